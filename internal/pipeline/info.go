package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"

	"github.com/dustin/go-humanize"
)

const (
	unknown      = "Unknown"
	notAvailable = "N/A"
)

// runInfo replies with the metadata of the link instead of downloading it.
func (o *Orchestrator) runInfo(ctx context.Context, req entity.MediaRequest, log *slog.Logger) Result {
	r := &run{o: o, req: req, log: log}

	meta, err := o.probe(ctx, req.Link, r.options(ctx))
	if err != nil {
		if _, sendErr := o.deps.Channel.SendText(ctx, req.ChatID, consts.MsgInfoUnavailable); sendErr != nil {
			log.ErrorContext(ctx, "send info failure", slog.Any("error", sendErr))
		}

		return Result{State: entity.StateFailed, Err: err}
	}

	text := FormatInfo(meta)
	thumb := o.deps.Thumbnails.Fetch(ctx, meta.ThumbnailURL, req)

	if thumb != nil {
		defer o.deps.Cleanup.Remove(ctx, thumb.Path)

		err = o.deps.Channel.SendPhoto(ctx, req.ChatID, thumb.Path, text)
		if err == nil {
			return Result{State: entity.StateSucceeded, Thumbnail: thumb}
		}

		log.WarnContext(ctx, "send info photo, falling back to text", slog.Any("error", err))
	}

	if _, err := o.deps.Channel.SendText(ctx, req.ChatID, text); err != nil {
		return Result{State: entity.StateFailed, Err: fmt.Errorf("%w: %w", errs.ErrUploadFailed, err), Thumbnail: thumb}
	}

	return Result{State: entity.StateSucceeded, Thumbnail: thumb}
}

// FormatInfo renders the metadata display message.
func FormatInfo(meta *entity.Metadata) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📌 Title: %s\n", orUnknown(meta.Title))
	fmt.Fprintf(&b, "👤 Channel: %s\n", orUnknown(meta.Uploader))
	fmt.Fprintf(&b, "⏱ Duration: %d:%02d\n", meta.Duration/60, meta.Duration%60)
	fmt.Fprintf(&b, "👀 Views: %s\n", count(meta.ViewCount))
	fmt.Fprintf(&b, "👍 Likes: %s\n", count(meta.LikeCount))
	fmt.Fprintf(&b, "📅 Upload Date: %s", uploadDate(meta.UploadDate))

	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}

	return s
}

func count(v *int64) string {
	if v == nil {
		return notAvailable
	}

	return humanize.Comma(*v)
}

// uploadDate turns the YYYYMMDD form yt-dlp reports into YYYY-MM-DD.
func uploadDate(raw string) string {
	if raw == "" {
		return unknown
	}

	t, err := time.Parse("20060102", raw)
	if err != nil {
		return raw
	}

	return t.Format(time.DateOnly)
}
