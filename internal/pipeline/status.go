package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ytgrab/internal/channel"
	"ytgrab/internal/consts"
	"ytgrab/pkg/calc"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// status owns the one transient message a request shows while it runs.
// Progress callbacks arrive from the extractor's goroutine, hence the mutex.
type status struct {
	log     *slog.Logger
	ch      channel.Channel
	chatID  int64
	limiter *rate.Limiter

	mu          sync.Mutex
	msgID       int
	last        string
	progressing bool
}

func newStatus(log *slog.Logger, ch channel.Channel, chatID int64, interval time.Duration) *status {
	if interval <= 0 {
		interval = consts.DefaultStatusEditInterval
	}

	return &status{
		log:     log,
		ch:      ch,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// set shows text, sending the message on first use and editing it afterwards.
func (s *status) set(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(ctx, text)
}

func (s *status) setLocked(ctx context.Context, text string) {
	if text == s.last {
		return
	}

	if s.msgID == 0 {
		id, err := s.ch.SendText(ctx, s.chatID, text)
		if err != nil {
			s.log.WarnContext(ctx, "send status", slog.Any("error", err))

			return
		}

		s.msgID, s.last = id, text

		return
	}

	if err := s.ch.EditText(ctx, s.chatID, s.msgID, text); err != nil {
		s.log.WarnContext(ctx, "edit status", slog.Any("error", err))

		return
	}

	s.last = text
}

func (s *status) startProgress() {
	s.mu.Lock()
	s.progressing = true
	s.mu.Unlock()
}

func (s *status) stopProgress() {
	s.mu.Lock()
	s.progressing = false
	s.mu.Unlock()
}

// progress edits the message with the download progress, at most once per interval.
func (s *status) progress(ctx context.Context, downloaded, total int) {
	if !s.limiter.Allow() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.progressing {
		return
	}

	s.setLocked(ctx, progressText(downloaded, total))
}

func progressText(downloaded, total int) string {
	if downloaded <= 0 {
		return consts.MsgDownloading
	}

	if total <= 0 {
		return fmt.Sprintf("%s %s", consts.MsgDownloading, humanize.IBytes(uint64(downloaded)))
	}

	return fmt.Sprintf("%s %d%% (%s / %s)", consts.MsgDownloading,
		calc.Progress(downloaded, total), humanize.IBytes(uint64(downloaded)), humanize.IBytes(uint64(total)))
}

// clear deletes the message. Failure is logged and otherwise ignored.
func (s *status) clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progressing = false

	if s.msgID == 0 {
		return
	}

	if err := s.ch.DeleteMessage(ctx, s.chatID, s.msgID); err != nil {
		s.log.WarnContext(ctx, "delete stale status", slog.Int("message_id", s.msgID), slog.Any("error", err))
	}

	s.msgID, s.last = 0, ""
}
