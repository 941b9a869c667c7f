package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/synctest"

	"ytgrab/internal/channel"
	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/extractor"
	"ytgrab/internal/pipeline"
)

// holdingExtractor writes its output and then keeps the first download open until release is closed.
type holdingExtractor struct {
	meta entity.Metadata
	// noVideo makes video downloads succeed without writing a file.
	noVideo bool

	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func newHoldingExtractor(id string) *holdingExtractor {
	return &holdingExtractor{
		meta:    entity.Metadata{ID: id, Title: "Clip"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (e *holdingExtractor) Probe(ctx context.Context, _ string, _ extractor.Options) (*entity.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta := e.meta

	return &meta, nil
}

func (e *holdingExtractor) Download(ctx context.Context, _ string, spec extractor.Spec) error {
	e.mu.Lock()
	e.calls++
	first := e.calls == 1
	e.mu.Unlock()

	if spec.Audio || !e.noVideo {
		ext := "mp4"
		if spec.Audio {
			ext = "mp3"
		}

		path := strings.NewReplacer("%(id)s", e.meta.ID, "%(ext)s", ext).Replace(spec.Output)
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			return err
		}
	}

	if !first {
		return nil
	}

	close(e.entered)

	select {
	case <-e.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func startRun(ctx context.Context, fx *fixture, q entity.Quality, chatID int64) <-chan pipeline.Result {
	out := make(chan pipeline.Result, 1)

	go func() {
		out <- fx.orch.Run(ctx, entity.MediaRequest{Link: link, Quality: q, ChatID: chatID})
	}()

	return out
}

func TestSameMediaRequestsDoNotShareArtifacts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ext := newHoldingExtractor("abc123")
		fx := newFixtureWith(t, ext)

		fx.rec.OnUpload = func(u channel.Upload) {
			if _, err := os.Stat(u.File()); err != nil {
				t.Errorf("artifact missing during upload: %v", err)
			}
		}

		expected := filepath.Join(fx.downloads, "downloaded_abc123.mp4")

		first := startRun(t.Context(), fx, entity.QualityLow, 1)
		<-ext.entered

		second := startRun(t.Context(), fx, entity.QualityLow, 2)
		synctest.Wait()

		select {
		case res := <-second:
			t.Fatalf("second request finished while the first was downloading: %+v", res)
		default:
		}

		if _, err := os.Stat(expected); err != nil {
			t.Fatalf("in-progress artifact removed: %v", err)
		}

		close(ext.release)

		for _, res := range []pipeline.Result{<-first, <-second} {
			if res.Err != nil || res.State != entity.StateSucceeded {
				t.Errorf("Run() = %+v", res)
			}
		}

		if n := len(uploads(fx.rec)); n != 2 {
			t.Errorf("uploads = %d, want 2", n)
		}

		assertGone(t, expected)
	})
}

func TestVideoRequestWaitsForAudioOfSameMedia(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ext := newHoldingExtractor("abc123")
		ext.noVideo = true
		fx := newFixtureWith(t, ext)

		audioPath := filepath.Join(fx.downloads, "downloaded_audio_abc123.mp3")

		audio := startRun(t.Context(), fx, entity.QualityAudio, 1)
		<-ext.entered

		video := startRun(t.Context(), fx, entity.QualityLow, 2)
		synctest.Wait()

		if _, err := os.Stat(audioPath); err != nil {
			t.Fatalf("audio artifact removed while downloading: %v", err)
		}

		close(ext.release)

		if res := <-audio; res.Err != nil {
			t.Fatalf("audio Run() err = %v", res.Err)
		}

		res := <-video
		if !errors.Is(res.Err, errs.ErrArtifactNotFound) {
			t.Fatalf("video Run() err = %v, want %v", res.Err, errs.ErrArtifactNotFound)
		}

		if n := fx.rec.Count(channel.OpAudio); n != 1 {
			t.Errorf("audio uploads = %d, want 1", n)
		}

		if n := fx.rec.Count(channel.OpVideo); n != 0 {
			t.Errorf("video uploads = %d, want 0", n)
		}

		assertGone(t, audioPath)
	})
}

func TestWaitingRequestGivesUpWithItsContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ext := newHoldingExtractor("abc123")
		fx := newFixtureWith(t, ext)

		first := startRun(t.Context(), fx, entity.QualityLow, 1)
		<-ext.entered

		ctx, cancel := context.WithCancel(t.Context())
		second := startRun(ctx, fx, entity.QualityLow, 2)
		synctest.Wait()
		cancel()

		res := <-second
		if !errors.Is(res.Err, errs.ErrDownloadFailed) || !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("waiting Run() err = %v", res.Err)
		}

		if _, err := os.Stat(filepath.Join(fx.downloads, "downloaded_abc123.mp4")); err != nil {
			t.Fatalf("first request's artifact removed by the canceled one: %v", err)
		}

		close(ext.release)

		if res := <-first; res.Err != nil {
			t.Errorf("first Run() err = %v", res.Err)
		}
	})
}

func TestCanceledDownloadIsDownloadFailed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ext := newHoldingExtractor("abc123")
		fx := newFixtureWith(t, ext)

		ctx, cancel := context.WithCancel(t.Context())
		done := startRun(ctx, fx, entity.QualityBest, 1)

		<-ext.entered
		cancel()

		res := <-done
		if !errors.Is(res.Err, errs.ErrDownloadFailed) || !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("Run() err = %v", res.Err)
		}

		if msg := fx.lastText(t); msg != consts.MsgDownloadFailed {
			t.Errorf("terminal = %q, want %q", msg, consts.MsgDownloadFailed)
		}

		if len(fx.proxies.failed) != 0 {
			t.Errorf("proxy blamed for a cancellation: %+v", fx.proxies.failed)
		}
	})
}

func TestCanceledProbeIsMetadataUnavailable(t *testing.T) {
	fx := newFixture(t, &extractor.Mock{Metadata: &entity.Metadata{ID: "abc123"}})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res := fx.orch.Run(ctx, entity.MediaRequest{Link: link, Quality: entity.QualityLow, ChatID: 99})
	if !errors.Is(res.Err, errs.ErrMetadataUnavailable) {
		t.Fatalf("Run() err = %v, want %v", res.Err, errs.ErrMetadataUnavailable)
	}

	if msg := fx.lastText(t); msg != consts.MsgMetadataUnavailable {
		t.Errorf("terminal = %q", msg)
	}
}
