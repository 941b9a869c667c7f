// Package uploader turns a located artifact and its metadata into a channel upload.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ytgrab/internal/channel"
	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/observability"
)

// Uploader delivers artifacts over a Channel.
type Uploader struct {
	log     *slog.Logger
	channel channel.Channel
	metrics *observability.Metrics
}

// New creates an uploader sending on ch.
func New(log *slog.Logger, ch channel.Channel, metrics *observability.Metrics) *Uploader {
	return &Uploader{
		log:     log.With(slog.String("package", "uploader")),
		channel: ch,
		metrics: metrics,
	}
}

// Deliver uploads artifact to chatID. thumb may be nil. Errors wrap errs.ErrUploadFailed.
func (u *Uploader) Deliver(ctx context.Context, chatID int64, artifact entity.ArtifactHandle,
	meta *entity.Metadata, thumb *entity.ThumbnailHandle,
) error {
	upload := Build(artifact, meta, thumb)

	u.log.InfoContext(ctx, "uploading", slog.Any("artifact", artifact), slog.Bool("thumbnail", thumb != nil))

	if err := channel.Send(ctx, u.channel, chatID, upload); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUploadFailed, err)
	}

	if info, err := os.Stat(artifact.Path); err == nil {
		u.metrics.RecordUpload(info.Size())
	}

	return nil
}

// Build shapes the upload variant for artifact.
func Build(artifact entity.ArtifactHandle, meta *entity.Metadata, thumb *entity.ThumbnailHandle) channel.Upload {
	if meta == nil {
		meta = &entity.Metadata{}
	}

	var thumbPath string
	if thumb != nil {
		thumbPath = thumb.Path
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = consts.DefaultTitle
	}

	if artifact.Kind == entity.ArtifactAudio {
		performer := strings.TrimSpace(meta.Uploader)
		if performer == "" {
			performer = consts.DefaultPerformer
		}

		return channel.AudioUpload{
			Path:      artifact.Path,
			Caption:   "🎵 " + title,
			Title:     Truncate(title, consts.MaxFieldLength),
			Performer: Truncate(performer, consts.MaxFieldLength),
			Duration:  meta.Duration,
			Thumbnail: thumbPath,
		}
	}

	return channel.VideoUpload{
		Path:      artifact.Path,
		Caption:   "🎬 " + title,
		Duration:  meta.Duration,
		Width:     meta.Width,
		Height:    meta.Height,
		Thumbnail: thumbPath,
	}
}

// Truncate cuts s to at most n characters without splitting a multi-byte character.
func Truncate(s string, n int) string {
	count := 0

	for i := range s {
		if count == n {
			return s[:i]
		}

		count++
	}

	return s
}
