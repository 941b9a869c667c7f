package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ytgrab/internal/config"
	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/pkg/maths"
	"ytgrab/pkg/ptr"

	"github.com/lrstanley/go-ytdlp"
)

// YTdlp runs the yt-dlp binary.
type YTdlp struct {
	log   *slog.Logger
	paths Paths
	cfg   config.Extract
	cache string
}

// NewYTdlp creates a client running the binaries in paths.
func NewYTdlp(log *slog.Logger, cfg *config.Config, paths Paths) *YTdlp {
	return &YTdlp{
		log:   log.With(slog.String("package", "extractor"), slog.String("extractor", "yt-dlp")),
		paths: paths,
		cfg:   cfg.Extract,
		cache: cfg.Dir.Cache,
	}
}

func (d *YTdlp) command(opts Options) *ytdlp.Command {
	cmd := ytdlp.New().NoPlaylist().NoWarnings()

	if d.paths.YTdlp != "" {
		cmd.SetExecutable(d.paths.YTdlp)
	}

	if d.paths.FFmpeg != "" {
		cmd.FFmpegLocation(d.paths.FFmpeg)
	}

	if d.cache != "" {
		cmd.CacheDir(d.cache)
	}

	if opts.Proxy != "" {
		cmd.Proxy(opts.Proxy)
	}

	if opts.Username != "" {
		cmd.Username(opts.Username)
	}

	if opts.Password != "" {
		cmd.Password(opts.Password)
	}

	if opts.CookieFile != "" {
		cmd.Cookies(opts.CookieFile)
	}

	return cmd
}

// Probe implements Client.
func (d *YTdlp) Probe(ctx context.Context, link string, opts Options) (*entity.Metadata, error) {
	res, err := d.command(opts).DumpJSON().SkipDownload().Run(ctx, link)
	if err != nil {
		d.log.ErrorContext(ctx, "ytdlp probe", slog.Any("error", err), slog.Any("result", Result{res}))

		return nil, fmt.Errorf("%w: %w", errs.ErrMetadataUnavailable, err)
	}

	meta, err := MetadataFromResult(res)
	if err != nil {
		d.log.ErrorContext(ctx, "ytdlp get extracted info", slog.Any("error", err), slog.Any("result", Result{res}))

		return nil, err
	}

	d.log.DebugContext(ctx, "probed", slog.Any("metadata", meta))

	return meta, nil
}

// Download implements Client.
func (d *YTdlp) Download(ctx context.Context, link string, spec Spec) error {
	cmd := d.command(spec.Options).
		Format(spec.Format).
		Output(spec.Output)

	if spec.Audio {
		cmd.ExtractAudio().
			AudioFormat(d.audioCodec()).
			AudioQuality(d.audioQuality())
	}

	if spec.Progress != nil {
		progress := spec.Progress

		cmd.ProgressFunc(defaultProgressFreq, func(update ytdlp.ProgressUpdate) {
			d.log.DebugContext(ctx, "ytdlp progress", slog.Any("progress_update", ProgressUpdate{&update}))
			progress(update.DownloadedBytes, update.TotalBytes)
		})
	}

	res, err := cmd.Run(ctx, link)
	if err != nil {
		d.log.ErrorContext(ctx, "ytdlp download", slog.Any("error", err), slog.Any("result", Result{res}))

		return fmt.Errorf("%w: %w", errs.ErrDownloadFailed, err)
	}

	d.log.InfoContext(ctx, "downloaded", slog.Any("result", Result{res}))

	return nil
}

func (d *YTdlp) audioCodec() string {
	if d.cfg.AudioCodec == "" {
		return consts.AudioCodec
	}

	return d.cfg.AudioCodec
}

func (d *YTdlp) audioQuality() string {
	if d.cfg.AudioQuality == "" {
		return consts.AudioBitrate
	}

	return d.cfg.AudioQuality
}

// MetadataFromResult maps the first extracted info dict carrying an id.
// A result without one is ErrMetadataUnavailable.
func MetadataFromResult(res *ytdlp.Result) (*entity.Metadata, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no yt-dlp result", errs.ErrMetadataUnavailable)
	}

	info, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMetadataUnavailable, err)
	}

	for _, inf := range info {
		if inf == nil || inf.ID == "" {
			continue
		}

		return composeMetadata(inf), nil
	}

	return nil, fmt.Errorf("%w: no info dict with an id", errs.ErrMetadataUnavailable)
}

func composeMetadata(inf *ytdlp.ExtractedInfo) *entity.Metadata {
	uploader := ptr.Deref(inf.Uploader)
	if uploader == "" {
		uploader = ptr.Deref(inf.Channel)
	}

	return &entity.Metadata{
		ID:           inf.ID,
		Title:        ptr.Deref(inf.Title),
		Uploader:     uploader,
		Duration:     maths.RoundFloat64ToInt(ptr.Deref(inf.Duration)),
		Width:        maths.RoundFloat64ToInt(ptr.Deref(inf.Width)),
		Height:       maths.RoundFloat64ToInt(ptr.Deref(inf.Height)),
		ThumbnailURL: ptr.Deref(inf.Thumbnail),
		ViewCount:    maths.RoundFloat64PtrToInt64(inf.ViewCount),
		LikeCount:    maths.RoundFloat64PtrToInt64(inf.LikeCount),
		UploadDate:   ptr.Deref(inf.UploadDate),
	}
}

// IsCanceled reports whether err came from the caller giving up rather than from yt-dlp.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
