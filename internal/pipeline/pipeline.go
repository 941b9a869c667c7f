// Package pipeline turns one media request into a delivered file.
//
// A request moves through quality resolution, metadata probe, download, artifact
// lookup, an optional thumbnail fetch and the upload. Whatever happens, every file
// the request produced is removed before Run returns and the user sees exactly one
// terminal message.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ytgrab/internal/channel"
	"ytgrab/internal/cleanup"
	"ytgrab/internal/config"
	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/extractor"
	"ytgrab/internal/locator"
	"ytgrab/internal/observability"
	"ytgrab/internal/quality"
	"ytgrab/internal/uploader"
	"ytgrab/internal/worker"
)

// Thumbnailer fetches optional preview images.
type Thumbnailer interface {
	Fetch(ctx context.Context, url string, req entity.MediaRequest) *entity.ThumbnailHandle
}

// ProxyPicker hands out a proxy per request and learns from the outcome.
type ProxyPicker interface {
	Pick() (string, error)
	MarkFailed(proxy string)
	MarkSuccess(proxy string)
}

// Deps are the collaborators of an Orchestrator. Proxies and Metrics may be nil.
type Deps struct {
	Extractor  extractor.Client
	Locator    *locator.Locator
	Thumbnails Thumbnailer
	Uploader   *uploader.Uploader
	Cleanup    *cleanup.Manager
	Channel    channel.Channel
	Pool       *worker.Pool
	Proxies    ProxyPicker
	Metrics    *observability.Metrics
}

// Result is the outcome of Run. Err wraps exactly one error kind from errs, or is nil.
// The handles are reported for inspection; their files are already gone.
type Result struct {
	State     entity.State
	Err       error
	Artifact  *entity.ArtifactHandle
	Thumbnail *entity.ThumbnailHandle
}

// Orchestrator runs requests. It is safe for concurrent use.
type Orchestrator struct {
	log   *slog.Logger
	cfg   *config.Config
	deps  Deps
	locks mediaLocks
}

// New creates an orchestrator.
func New(log *slog.Logger, cfg *config.Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		log:  log.With(slog.String("package", "pipeline")),
		cfg:  cfg,
		deps: deps,
	}
}

// run is the mutable state of one request.
type run struct {
	o      *Orchestrator
	req    entity.MediaRequest
	log    *slog.Logger
	status *status
	proxy  string
	unlock func()

	state    entity.State
	meta     *entity.Metadata
	artifact *entity.ArtifactHandle
	thumb    *entity.ThumbnailHandle
}

// Run processes req to completion.
func (o *Orchestrator) Run(ctx context.Context, req entity.MediaRequest) Result {
	log := o.log.With(slog.Any("request", req))
	log.InfoContext(ctx, "request received")

	o.deps.Metrics.RecordRequestStarted(string(req.Quality))

	var res Result
	if req.Quality == entity.QualityInfo {
		res = o.runInfo(ctx, req, log)
	} else {
		res = o.runDownload(ctx, req, log)
	}

	if res.Err != nil {
		o.deps.Metrics.RecordRequestFailed(errs.Kind(res.Err))
		log.ErrorContext(ctx, "request failed",
			slog.String("kind", errs.Kind(res.Err)), slog.Any("error", res.Err))
	} else {
		o.deps.Metrics.RecordRequestSucceeded()
		log.InfoContext(ctx, "request succeeded", slog.Any("artifact", res.Artifact))
	}

	return res
}

func (o *Orchestrator) runDownload(ctx context.Context, req entity.MediaRequest, log *slog.Logger) Result {
	r := &run{
		o:      o,
		req:    req,
		log:    log,
		status: newStatus(log, o.deps.Channel, req.ChatID, o.cfg.Status.EditInterval),
		state:  entity.StateReceived,
	}

	profile, ok := quality.Lookup(req.Quality)
	if !ok {
		err := fmt.Errorf("%w: %q", errs.ErrInvalidQuality, req.Quality)
		r.terminal(ctx, err)

		return Result{State: entity.StateFailed, Err: err}
	}

	r.state = entity.StateQualityResolved

	err := r.execute(ctx, profile)

	// exit action, once per request, on every path past the probe
	if r.state.NeedsCleanup() {
		r.cleanup(ctx)
	}

	if r.unlock != nil {
		r.unlock()
	}

	r.status.clear(ctx)
	r.terminal(ctx, err)

	res := Result{State: entity.StateSucceeded, Err: err, Artifact: r.artifact, Thumbnail: r.thumb}
	if err != nil {
		res.State = entity.StateFailed
	}

	return res
}

func (r *run) execute(ctx context.Context, profile quality.Profile) error {
	o := r.o
	dir := o.cfg.Dir.Downloads

	r.status.set(ctx, consts.MsgProcessing)

	opts := r.options(ctx)

	meta, err := o.probe(ctx, r.req.Link, opts)
	if err != nil {
		return err
	}

	r.meta = meta
	r.state = entity.StateMetadataProbed

	unlock, err := o.locks.lock(ctx, meta.ID)
	if err != nil {
		return fmt.Errorf("%w: wait for media %s: %w", errs.ErrDownloadFailed, meta.ID, err)
	}

	r.unlock = unlock

	expected := profile.ExpectedPath(dir, meta.ID)
	o.deps.Cleanup.RemoveMatching(ctx, profile.StalePattern(dir, meta.ID))

	r.state = entity.StateDownloading
	r.status.set(ctx, consts.MsgDownloading)
	r.status.startProgress()

	opts.Progress = func(downloaded, total int) { r.status.progress(ctx, downloaded, total) }
	spec := extractor.Spec{
		Format:  profile.Format,
		Output:  profile.OutputTemplate(dir),
		Audio:   profile.Audio,
		Options: opts,
	}

	stop := o.deps.Metrics.StageTimer(observability.StageDownload)
	err = o.deps.Pool.Do(ctx, func(ctx context.Context) error {
		return o.deps.Extractor.Download(ctx, r.req.Link, spec)
	})

	stop()
	r.status.stopProgress()
	r.reportProxy(err)

	if err != nil {
		return categorize(err, errs.ErrDownloadFailed)
	}

	path, ok := o.deps.Locator.Locate(expected, meta.ID, profile.Audio)
	if !ok {
		return fmt.Errorf("%w: id %s near %s", errs.ErrArtifactNotFound, meta.ID, expected)
	}

	r.artifact = &entity.ArtifactHandle{Path: path, Kind: profile.Kind(), Request: r.req}
	r.state = entity.StateArtifactLocated
	r.log.InfoContext(ctx, "artifact located", slog.Any("artifact", r.artifact))

	r.thumb = o.deps.Thumbnails.Fetch(ctx, meta.ThumbnailURL, r.req)
	r.state = entity.StateThumbnailAttempted

	r.state = entity.StateUploading
	r.status.set(ctx, consts.MsgUploading)

	stop = o.deps.Metrics.StageTimer(observability.StageUpload)
	defer stop()

	return o.deps.Uploader.Deliver(ctx, r.req.ChatID, *r.artifact, meta, r.thumb)
}

// options builds the per-call extraction options. The cookie file is passed only if it exists now.
func (r *run) options(ctx context.Context) extractor.Options {
	cfg := r.o.cfg.Extract

	opts := extractor.Options{
		Proxy:    r.pickProxy(ctx),
		Username: cfg.Username,
		Password: cfg.Password,
	}

	if cfg.CookieFile != "" {
		if info, err := os.Stat(cfg.CookieFile); err == nil && info.Mode().IsRegular() {
			opts.CookieFile = cfg.CookieFile
		}
	}

	return opts
}

func (r *run) pickProxy(ctx context.Context) string {
	if r.o.deps.Proxies == nil {
		return ""
	}

	proxy, err := r.o.deps.Proxies.Pick()
	if err != nil {
		r.log.WarnContext(ctx, "no proxy available, going direct", slog.Any("error", err))

		return ""
	}

	r.proxy = proxy

	return proxy
}

func (r *run) reportProxy(err error) {
	if r.proxy == "" || r.o.deps.Proxies == nil || extractor.IsCanceled(err) {
		return
	}

	if err != nil {
		r.o.deps.Proxies.MarkFailed(r.proxy)

		return
	}

	r.o.deps.Proxies.MarkSuccess(r.proxy)
}

func (o *Orchestrator) probe(ctx context.Context, link string, opts extractor.Options) (*entity.Metadata, error) {
	defer o.deps.Metrics.StageTimer(observability.StageProbe)()

	var meta *entity.Metadata

	err := o.deps.Pool.Do(ctx, func(ctx context.Context) error {
		var err error
		meta, err = o.deps.Extractor.Probe(ctx, link, opts)

		return err
	})
	if err != nil {
		return nil, categorize(err, errs.ErrMetadataUnavailable)
	}

	if meta == nil || meta.ID == "" {
		return nil, errs.ErrMetadataUnavailable
	}

	return meta, nil
}

// categorize files an error that carries no kind, such as a canceled context, under kind.
func categorize(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}

	return fmt.Errorf("%w: %w", kind, err)
}

// cleanup removes every handle this request created.
func (r *run) cleanup(ctx context.Context) {
	var paths []string

	if r.artifact != nil {
		paths = append(paths, r.artifact.Path)
	}

	if r.thumb != nil {
		paths = append(paths, r.thumb.Path)
	}

	r.o.deps.Cleanup.RemoveAll(ctx, paths...)
}

// terminal sends the one final message for err.
func (r *run) terminal(ctx context.Context, err error) {
	if _, sendErr := r.o.deps.Channel.SendText(ctx, r.req.ChatID, TerminalMessage(err)); sendErr != nil {
		r.log.ErrorContext(ctx, "send terminal message", slog.Any("error", sendErr))
	}
}

// TerminalMessage maps a pipeline outcome to the text shown to the user.
func TerminalMessage(err error) string {
	switch {
	case err == nil:
		return consts.MsgSuccess
	case errors.Is(err, errs.ErrInvalidQuality):
		return consts.MsgInvalidQuality
	case errors.Is(err, errs.ErrMetadataUnavailable):
		return consts.MsgMetadataUnavailable
	case errors.Is(err, errs.ErrDownloadFailed):
		return consts.MsgDownloadFailed
	case errors.Is(err, errs.ErrArtifactNotFound):
		return consts.MsgArtifactNotFound
	case errors.Is(err, errs.ErrUploadFailed):
		return consts.MsgUploadFailed + strings.TrimPrefix(err.Error(), errs.ErrUploadFailed.Error()+": ")
	default:
		return consts.MsgUnexpected + err.Error()
	}
}
