// Package thumbnail fetches preview images into the scratch directory.
// Fetching is best-effort: every failure is logged and reported as a missing thumbnail.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ytgrab/internal/config"
	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/observability"
	"ytgrab/pkg/gen"
)

const defaultExt = ".jpg"

var allowedExt = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}}

// Fetcher downloads one preview image per call.
type Fetcher struct {
	log        *slog.Logger
	client     *http.Client
	scratchDir string
	maxBytes   int64
	metrics    *observability.Metrics
}

// New creates a fetcher writing into scratchDir.
func New(log *slog.Logger, cfg config.Thumbnail, scratchDir string, metrics *observability.Metrics) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultThumbnailTimeout
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = consts.DefaultThumbnailMaxBytes
	}

	return &Fetcher{
		log:        log.With(slog.String("package", "thumbnail")),
		client:     &http.Client{Timeout: timeout},
		scratchDir: scratchDir,
		maxBytes:   maxBytes,
		metrics:    metrics,
	}
}

// Fetch downloads rawURL to a unique scratch file. It returns nil on any failure
// and for an empty URL, which performs no I/O.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, req entity.MediaRequest) *entity.ThumbnailHandle {
	if rawURL == "" {
		return nil
	}

	path, err := f.fetch(ctx, rawURL)
	if err != nil {
		f.log.WarnContext(ctx, "thumbnail fetch failed",
			slog.String("url", rawURL), slog.Any("error", err), slog.Any("request", req))
		f.metrics.RecordThumbnailFailure()

		return nil
	}

	return &entity.ThumbnailHandle{Path: path, Request: req}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return "", fmt.Errorf("content length %d: %w", resp.ContentLength, errs.ErrThumbnailTooLarge)
	}

	dest := filepath.Join(f.scratchDir, consts.ThumbnailPrefix+gen.Token()+extFromURL(rawURL))

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// read one byte past the bound to detect oversized bodies
	n, err := io.Copy(file, io.LimitReader(resp.Body, f.maxBytes+1))

	closeErr := file.Close()

	switch {
	case err != nil:
		err = fmt.Errorf("write file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case n > f.maxBytes:
		err = errs.ErrThumbnailTooLarge
	case n == 0:
		err = errors.New("empty body")
	}

	if err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			f.log.Error("remove partial thumbnail", slog.String("path", dest), slog.Any("error", rmErr))
		}

		return "", err
	}

	return dest, nil
}

// extFromURL keeps known image extensions of the URL path; anything else becomes .jpg.
func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultExt
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := allowedExt[ext]; ok {
		return ext
	}

	return defaultExt
}

