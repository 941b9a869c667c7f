// Package extractor wraps the yt-dlp extraction service: metadata probes and downloads.
package extractor

import (
	"context"
	"time"

	"ytgrab/internal/entity"
)

const defaultProgressFreq = 500 * time.Millisecond

// Client probes and downloads media.
type Client interface {
	// Probe returns metadata without downloading. A result without an id is ErrMetadataUnavailable.
	Probe(ctx context.Context, link string, opts Options) (*entity.Metadata, error)
	// Download writes the media matching spec. Failures wrap ErrDownloadFailed.
	Download(ctx context.Context, link string, spec Spec) error
}

// ProgressFunc receives downloaded and total byte counts. total is 0 while unknown.
type ProgressFunc func(downloaded, total int)

// Options are passed on every call.
type Options struct {
	Proxy      string
	Username   string
	Password   string
	CookieFile string // only set when the file exists
	Progress   ProgressFunc
}

// Spec describes one download.
type Spec struct {
	Format string
	Output string // yt-dlp output template
	Audio  bool   // extract audio after download
	Options
}

// Paths are the binaries the client runs.
type Paths struct {
	YTdlp  string
	FFmpeg string
}
