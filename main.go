// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ytgrab/internal/channel"
	"ytgrab/internal/cleanup"
	"ytgrab/internal/config"
	"ytgrab/internal/depmanager"
	"ytgrab/internal/extractor"
	httprouter "ytgrab/internal/infrastructure/delivery/http"
	"ytgrab/internal/infrastructure/delivery/telegram"
	"ytgrab/internal/locator"
	"ytgrab/internal/observability"
	"ytgrab/internal/pipeline"
	"ytgrab/internal/proxymgr"
	"ytgrab/internal/thumbnail"
	"ytgrab/internal/uploader"
	"ytgrab/internal/worker"
	httpserver "ytgrab/pkg/http/server"
	"ytgrab/pkg/logger"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
)

type args struct {
	EnvFile   []string `arg:"--env-file,separate" help:"dotenv file to load before reading the environment; repeatable"`
	LogLevel  string   `arg:"--log-level" help:"override YTGRAB_APP_LOG_LEVEL"`
	LogText   bool     `arg:"--log-text" help:"human readable logs instead of JSON"`
	CheckDeps bool     `arg:"--check-deps" help:"resolve yt-dlp and ffmpeg, then exit"`
}

func (args) Description() string {
	return "ytgrab downloads YouTube media on request and delivers it to Telegram chats"
}

func main() {
	a := args{EnvFile: []string{".env"}}
	arg.MustParse(&a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a); err != nil {
		slog.ErrorContext(ctx, "ytgrab stopped", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, a args) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := config.LoadEnvFiles(a.EnvFile...); err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	if a.LogLevel != "" {
		cfg.App.LogLevel = a.LogLevel
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
		Text:      a.LogText,
	})
	if err != nil {
		log.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	depMgr := depmanager.New(log, cfg.DepManager)

	log.InfoContext(ctx, "checking if yt-dlp and ffmpeg are installed. it may take some time...")

	if err = depMgr.Start(ctx); err != nil {
		return err
	}

	if a.CheckDeps {
		log.InfoContext(ctx, "dependencies ready",
			slog.String("yt-dlp", depMgr.GetBinaryPath(depmanager.BinaryYTdlp)),
			slog.String("ffmpeg", depMgr.GetBinaryPath(depmanager.BinaryFFmpeg)))

		return nil
	}

	if err = cfg.EnsureDirs(); err != nil {
		return err
	}

	metrics := observability.New(prometheus.NewRegistry())

	proxyMgr := proxymgr.New(log, cfg.Proxy, metrics)
	if proxyMgr.Count() > 0 {
		go proxyMgr.StartHealthChecker(ctx)

		log.InfoContext(ctx, "proxy manager initialized", slog.Int("proxy_count", proxyMgr.Count()))
	}

	tgBot, err := telegram.NewBot(log, cfg.Telegram)
	if err != nil {
		return err
	}

	var ch channel.Channel = telegram.NewClient(tgBot)

	cleaner := cleanup.New(log, metrics)
	pool := worker.New(cfg.Worker.MaxConcurrent)

	orch := pipeline.New(log, cfg, pipeline.Deps{
		Extractor: extractor.NewYTdlp(log, cfg, extractor.Paths{
			YTdlp:  depMgr.GetBinaryPath(depmanager.BinaryYTdlp),
			FFmpeg: depMgr.GetBinaryPath(depmanager.BinaryFFmpeg),
		}),
		Locator:    locator.New(cfg.Dir.Downloads, cfg.Dir.Scratch),
		Thumbnails: thumbnail.New(log, cfg.Thumbnail, cfg.Dir.Scratch, metrics),
		Uploader:   uploader.New(log, ch, metrics),
		Cleanup:    cleaner,
		Channel:    ch,
		Pool:       pool,
		Proxies:    proxyMgr,
		Metrics:    metrics,
	})

	sweeper := cleanup.NewSweeper(log, cleaner, cfg.Cleanup, cfg.Dir.Downloads, cfg.Dir.Scratch)
	go sweeper.Run(ctx)

	handler := telegram.NewHandler(log, tgBot, telegram.NewLinks(cfg.Telegram.LinkTTL), orch)
	handler.Register(tgBot)

	router := httprouter.New(ctx, log, httprouter.Deps{
		Runner:  orch,
		Pool:    pool,
		Proxies: proxyMgr,
		Metrics: metrics,
	})

	httpSrv := httpserver.New(router, httpserver.Options{
		Addr:            cfg.HTTP.Port,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	go tgBot.Start(ctx)

	log.InfoContext(ctx, "ytgrab started", slog.String("port", cfg.HTTP.Port))

	// Waiting for shutdown signal
	var serveErr error

	select {
	case <-ctx.Done():
	case serveErr = <-httpSrv.Notify():
	}

	cancel()

	if err = httpSrv.Shutdown(); err != nil {
		log.Error("http server shutdown", slog.Any("error", err))
	}

	// in-flight requests see the canceled context and still run their cleanup
	handler.Wait()
	router.Wait()

	if serveErr != nil {
		return serveErr
	}

	log.Info("ytgrab shut down gracefully")

	return nil
}
