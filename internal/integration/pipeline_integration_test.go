//go:build integration

package integration_test

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"ytgrab/internal/channel"
	"ytgrab/internal/cleanup"
	"ytgrab/internal/config"
	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/extractor"
	"ytgrab/internal/locator"
	"ytgrab/internal/observability"
	"ytgrab/internal/pipeline"
	"ytgrab/internal/thumbnail"
	"ytgrab/internal/uploader"
	"ytgrab/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
)

//go:embed testdata/fake-ytdlp.sh
var fakeYTDLPScript string

type fixture struct {
	downloads string
	rec       *channel.Recorder
	orch      *pipeline.Orchestrator
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("integration fake yt-dlp helper uses shell script")
	}

	base := t.TempDir()

	bin := filepath.Join(base, "yt-dlp")
	if err := os.WriteFile(bin, []byte(fakeYTDLPScript), 0o755); err != nil {
		t.Fatalf("write fake yt-dlp: %v", err)
	}

	t.Setenv("YTGRAB_FAKE_MODE", mode)
	t.Setenv("YTGRAB_FAKE_ID", "vid123")

	cfg := &config.Config{
		Dir: config.Dir{
			Downloads: filepath.Join(base, "downloads"),
			Scratch:   filepath.Join(base, "scratch"),
			Cache:     filepath.Join(base, "cache"),
		},
		Status:    config.Status{EditInterval: time.Second},
		Thumbnail: config.Thumbnail{Timeout: time.Second, MaxBytes: 1 << 20},
	}

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	log := slog.New(slog.DiscardHandler)
	metrics := observability.New(prometheus.NewRegistry())
	rec := &channel.Recorder{}

	orch := pipeline.New(log, cfg, pipeline.Deps{
		Extractor:  extractor.NewYTdlp(log, cfg, extractor.Paths{YTdlp: bin}),
		Locator:    locator.New(cfg.Dir.Downloads, cfg.Dir.Scratch),
		Thumbnails: thumbnail.New(log, cfg.Thumbnail, cfg.Dir.Scratch, metrics),
		Uploader:   uploader.New(log, rec, metrics),
		Cleanup:    cleanup.New(log, metrics),
		Channel:    rec,
		Pool:       worker.New(1),
		Metrics:    metrics,
	})

	return &fixture{downloads: cfg.Dir.Downloads, rec: rec, orch: orch}
}

func (fx *fixture) run(ctx context.Context, q entity.Quality) pipeline.Result {
	return fx.orch.Run(ctx, entity.MediaRequest{Link: "https://youtu.be/vid123", Quality: q, ChatID: 1})
}

func (fx *fixture) terminal(t *testing.T) string {
	t.Helper()

	texts := fx.rec.Texts()
	if len(texts) == 0 {
		t.Fatal("no message sent")
	}

	return texts[len(texts)-1]
}

func TestPipelineVideo(t *testing.T) {
	fx := newFixture(t, "success")

	var sawFile bool

	fx.rec.OnUpload = func(u channel.Upload) {
		_, err := os.Stat(u.File())
		sawFile = err == nil
	}

	res := fx.run(t.Context(), entity.QualityMedium)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}

	want := filepath.Join(fx.downloads, "downloaded_vid123.mp4")
	if res.Artifact == nil || res.Artifact.Path != want {
		t.Fatalf("artifact = %+v, want %s", res.Artifact, want)
	}

	if !sawFile {
		t.Error("artifact was not on disk during upload")
	}

	if _, err := os.Stat(want); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact not removed: %v", err)
	}

	if got := fx.terminal(t); got != consts.MsgSuccess {
		t.Errorf("terminal = %q", got)
	}
}

func TestPipelineAudio(t *testing.T) {
	fx := newFixture(t, "success")

	res := fx.run(t.Context(), entity.QualityAudio)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}

	var audio channel.AudioUpload

	for _, c := range fx.rec.Calls() {
		if a, ok := c.Upload.(channel.AudioUpload); ok {
			audio = a
		}
	}

	if audio.Path != filepath.Join(fx.downloads, "downloaded_audio_vid123.mp3") {
		t.Errorf("audio path = %q", audio.Path)
	}

	if audio.Title != "Fake Title" || audio.Performer != "Fake Channel" || audio.Duration != 12 {
		t.Errorf("audio = %+v", audio)
	}
}

func TestPipelineDownloadFailure(t *testing.T) {
	fx := newFixture(t, "fail")

	res := fx.run(t.Context(), entity.QualityBest)
	if !errors.Is(res.Err, errs.ErrDownloadFailed) {
		t.Fatalf("err = %v, want download failed", res.Err)
	}

	if got := fx.terminal(t); got != consts.MsgDownloadFailed {
		t.Errorf("terminal = %q", got)
	}
}

func TestPipelineProbeFailure(t *testing.T) {
	fx := newFixture(t, "noprobe")

	res := fx.run(t.Context(), entity.QualityBest)
	if !errors.Is(res.Err, errs.ErrMetadataUnavailable) {
		t.Fatalf("err = %v, want metadata unavailable", res.Err)
	}

	if got := fx.terminal(t); got != consts.MsgMetadataUnavailable {
		t.Errorf("terminal = %q", got)
	}
}

func TestPipelineInfo(t *testing.T) {
	fx := newFixture(t, "success")

	res := fx.run(t.Context(), entity.QualityInfo)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}

	texts := fx.rec.Texts()
	if len(texts) != 1 || texts[0] != pipeline.FormatInfo(&entity.Metadata{
		Title: "Fake Title", Uploader: "Fake Channel", Duration: 12,
		ViewCount: ptrInt64(1000), UploadDate: "20240131",
	}) {
		t.Errorf("texts = %q", texts)
	}
}

func TestPipelineCanceled(t *testing.T) {
	fx := newFixture(t, "slow")

	ctx, cancel := context.WithTimeout(t.Context(), 300*time.Millisecond)
	defer cancel()

	res := fx.run(ctx, entity.QualityBest)
	if !errors.Is(res.Err, errs.ErrDownloadFailed) {
		t.Fatalf("Run() err = %v, want %v", res.Err, errs.ErrDownloadFailed)
	}

	if fx.rec.Count(channel.OpVideo) != 0 {
		t.Error("upload attempted after cancellation")
	}
}

func ptrInt64(v int64) *int64 { return &v }
