package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytgrab/internal/config"
	"ytgrab/internal/consts"
)

// Sweeper periodically removes our files older than a TTL, catching leftovers of crashed runs.
// Only names carrying one of our prefixes are considered.
type Sweeper struct {
	log      *slog.Logger
	manager  *Manager
	dirs     []string
	interval time.Duration
	ttl      time.Duration
}

// NewSweeper creates a sweeper over the given directories.
func NewSweeper(log *slog.Logger, manager *Manager, cfg config.Cleanup, dirs ...string) *Sweeper {
	return &Sweeper{
		log:      log.With(slog.String("package", "cleanup"), slog.String("action", "sweep")),
		manager:  manager,
		dirs:     dirs,
		interval: cfg.Interval,
		ttl:      cfg.TTL,
	}
}

// Run sweeps every interval until ctx ends. A non-positive interval or TTL disables it.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 || s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		case <-ctx.Done():
			s.log.Info("sweeper stopped")

			return
		}
	}
}

// Sweep removes expired files as of now and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) int {
	var expired []string

	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.log.WarnContext(ctx, "read dir", slog.String("dir", dir), slog.Any("error", err))

			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !owned(entry.Name()) {
				continue
			}

			info, err := entry.Info()
			if err != nil || now.Sub(info.ModTime()) < s.ttl {
				continue
			}

			expired = append(expired, filepath.Join(dir, entry.Name()))
		}
	}

	if len(expired) == 0 {
		s.log.DebugContext(ctx, "no expired files found")

		return 0
	}

	n := s.manager.RemoveAll(ctx, expired...)
	s.log.InfoContext(ctx, "expired files removed", slog.Int("count", n))

	return n
}

func owned(name string) bool {
	return strings.HasPrefix(name, consts.VideoPrefix) || strings.HasPrefix(name, consts.ThumbnailPrefix)
}
