// Package cleanup removes the files a request produced.
// Removal never fails a request: errors are logged and counted, then swallowed.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ytgrab/internal/errs"
	"ytgrab/internal/observability"
)

// Manager removes request-owned files.
type Manager struct {
	log     *slog.Logger
	metrics *observability.Metrics
	remove  func(string) error
}

// New creates a cleanup manager.
func New(log *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		log:     log.With(slog.String("package", "cleanup")),
		metrics: metrics,
		remove:  os.Remove,
	}
}

// Remove deletes path. A missing file is not an error, so Remove may be called any number of times.
// It reports whether a file was actually removed.
func (m *Manager) Remove(ctx context.Context, path string) bool {
	removed, err := m.removeFile(path)
	if err != nil {
		m.log.ErrorContext(ctx, "cleanup", slog.String("path", path), slog.Any("error", err))
		m.metrics.RecordCleanup(0, 1)

		return false
	}

	if removed {
		m.log.DebugContext(ctx, "file removed", slog.String("path", path))
		m.metrics.RecordCleanup(1, 0)
	}

	return removed
}

// RemoveAll removes every path and returns how many files were removed.
func (m *Manager) RemoveAll(ctx context.Context, paths ...string) int {
	n := 0

	for _, path := range paths {
		if path == "" {
			continue
		}

		if m.Remove(ctx, path) {
			n++
		}
	}

	return n
}

// RemoveMatching removes every file matching the glob pattern and returns how many were removed.
func (m *Manager) RemoveMatching(ctx context.Context, pattern string) int {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		m.log.ErrorContext(ctx, "bad cleanup pattern", slog.String("pattern", pattern), slog.Any("error", err))

		return 0
	}

	n := m.RemoveAll(ctx, matches...)
	if n > 0 {
		m.log.InfoContext(ctx, "stale files removed", slog.String("pattern", pattern), slog.Int("count", n))
	}

	return n
}

func (m *Manager) removeFile(path string) (bool, error) {
	if !filepath.IsAbs(path) {
		return false, fmt.Errorf("%w: non-absolute path %q", errs.ErrCleanupFailed, path)
	}

	err := m.remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("%w: %w", errs.ErrCleanupFailed, err)
	}

	return true, nil
}
