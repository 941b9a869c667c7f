// Package locator finds the file a download produced.
// Post-processing may change the extension the output template predicted, so an exact
// match falls back to any file whose name contains the media id.
package locator

import (
	"os"
	"path/filepath"
	"strings"

	"ytgrab/internal/consts"
)

// partial suffixes yt-dlp leaves while a download or merge is in progress
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// Locator searches the download directory and then the scratch directory.
type Locator struct {
	downloadDir string
	scratchDir  string
}

// New creates a locator over the two search directories.
func New(downloadDir, scratchDir string) *Locator {
	return &Locator{downloadDir: downloadDir, scratchDir: scratchDir}
}

// Locate returns expected if it exists, otherwise the best file containing id
// in the download directory, then in the scratch directory.
func (l *Locator) Locate(expected, id string, isAudio bool) (string, bool) {
	if isRegular(expected) {
		return expected, true
	}

	if id == "" {
		return "", false
	}

	for _, dir := range []string{l.downloadDir, l.scratchDir} {
		if dir == "" {
			continue
		}

		if path, ok := scan(dir, id, isAudio); ok {
			return path, true
		}
	}

	return "", false
}

// scan walks dir in name order. A file whose prefix matches the requested kind wins over one that does not.
func scan(dir, id string, isAudio bool) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var fallback string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.Contains(name, id) || isPartial(name) {
			continue
		}

		path := filepath.Join(dir, name)
		if !isRegular(path) {
			continue
		}

		if strings.HasPrefix(name, consts.AudioPrefix) == isAudio {
			return path, true
		}

		if fallback == "" {
			fallback = path
		}
	}

	return fallback, fallback != ""
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}

func isRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
