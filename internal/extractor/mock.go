package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
)

// Mock is a scripted Client for tests.
type Mock struct {
	Metadata    *entity.Metadata
	ProbeErr    error
	DownloadErr error

	// Produce lists file names written next to the output template on Download.
	// When nil the template is expanded with the metadata id and mp3 or mp4.
	Produce []string
	// Progress is replayed as [downloaded, total] pairs before the files appear.
	Progress [][2]int

	mu        sync.Mutex
	probes    []string
	downloads []Spec
}

// Probe implements Client.
func (m *Mock) Probe(ctx context.Context, link string, _ Options) (*entity.Metadata, error) {
	m.mu.Lock()
	m.probes = append(m.probes, link)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.ProbeErr != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMetadataUnavailable, m.ProbeErr)
	}

	if m.Metadata == nil || m.Metadata.ID == "" {
		return nil, errs.ErrMetadataUnavailable
	}

	meta := *m.Metadata

	return &meta, nil
}

// Download implements Client.
func (m *Mock) Download(ctx context.Context, _ string, spec Spec) error {
	m.mu.Lock()
	m.downloads = append(m.downloads, spec)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if m.DownloadErr != nil {
		return fmt.Errorf("%w: %w", errs.ErrDownloadFailed, m.DownloadErr)
	}

	for _, step := range m.Progress {
		if spec.Progress != nil {
			spec.Progress(step[0], step[1])
		}
	}

	for _, path := range m.outputs(spec) {
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrDownloadFailed, err)
		}
	}

	return nil
}

func (m *Mock) outputs(spec Spec) []string {
	if m.Produce != nil {
		out := make([]string, 0, len(m.Produce))
		for _, name := range m.Produce {
			out = append(out, filepath.Join(filepath.Dir(spec.Output), name))
		}

		return out
	}

	ext := "mp4"
	if spec.Audio {
		ext = "mp3"
	}

	var id string
	if m.Metadata != nil {
		id = m.Metadata.ID
	}

	return []string{strings.NewReplacer("%(id)s", id, "%(ext)s", ext).Replace(spec.Output)}
}

// Probes returns the links probed so far.
func (m *Mock) Probes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.probes...)
}

// Downloads returns the specs downloaded so far.
func (m *Mock) Downloads() []Spec {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Spec(nil), m.downloads...)
}
