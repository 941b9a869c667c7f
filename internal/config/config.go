// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App        App
	Telegram   Telegram
	Extract    Extract
	Dir        Dir
	Worker     Worker
	Status     Status
	Thumbnail  Thumbnail
	Cleanup    Cleanup
	HTTP       HTTP
	DepManager DepManager
	Proxy      Proxy
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"YTGRAB_APP_LOG_LEVEL" envDefault:"info"`
}

// Telegram holds bot API configuration.
type Telegram struct {
	Token string `env:"YTGRAB_TELEGRAM_BOT_TOKEN"`
	// LinkTTL is how long a quality keyboard stays usable after the link was sent.
	LinkTTL time.Duration `env:"YTGRAB_TELEGRAM_LINK_TTL" envDefault:"24h"`
	// PollTimeout is the long-polling timeout of getUpdates.
	PollTimeout time.Duration `env:"YTGRAB_TELEGRAM_POLL_TIMEOUT" envDefault:"1m"`
}

// Extract holds options handed to the extraction service on every call.
type Extract struct {
	Username string `env:"YTGRAB_EXTRACT_USERNAME"`
	Password string `env:"YTGRAB_EXTRACT_PASSWORD"`

	// passed to yt-dlp only when the file exists at call time
	// see: https://github.com/yt-dlp/yt-dlp/wiki/FAQ#how-do-i-pass-cookies-to-yt-dlp
	CookieFile string `env:"YTGRAB_EXTRACT_COOKIE_FILE" envDefault:"cookies.txt"`

	AudioCodec   string `env:"YTGRAB_EXTRACT_AUDIO_CODEC"   envDefault:"mp3"`
	AudioQuality string `env:"YTGRAB_EXTRACT_AUDIO_QUALITY" envDefault:"320"`
}

// Dir holds directory paths for downloads, scratch files and the yt-dlp cache.
type Dir struct {
	Downloads string `env:"YTGRAB_DIR_DOWNLOAD" envDefault:"./yt_downloads"`
	// Scratch holds thumbnails and is the locator's fallback; empty means a ytgrab dir under the OS temp dir.
	Scratch string `env:"YTGRAB_DIR_SCRATCH" envDefault:""`
	Cache   string `env:"YTGRAB_DIR_CACHE"   envDefault:"./data/cache"` // yt-dlp cache (meta, sigs)
}

// scratch files never share the system temp dir with other programs
const scratchDirName = "ytgrab"

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Downloads, err = filepath.Abs(c.Downloads); err != nil {
		return fmt.Errorf("downloads: %w", err)
	}

	if c.Scratch == "" {
		c.Scratch = filepath.Join(os.TempDir(), scratchDirName)
	}

	if c.Scratch, err = filepath.Abs(c.Scratch); err != nil {
		return fmt.Errorf("scratch: %w", err)
	}

	if c.Cache, err = filepath.Abs(c.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	return nil
}

// Worker bounds concurrent blocking extraction calls.
type Worker struct {
	MaxConcurrent int `env:"YTGRAB_WORKER_MAX_CONCURRENT" envDefault:"4"`
}

// Status holds status message configuration.
type Status struct {
	EditInterval time.Duration `env:"YTGRAB_STATUS_EDIT_INTERVAL" envDefault:"3s"`
}

// Thumbnail holds preview image fetch limits.
type Thumbnail struct {
	Timeout  time.Duration `env:"YTGRAB_THUMBNAIL_TIMEOUT"   envDefault:"15s"`
	MaxBytes int64         `env:"YTGRAB_THUMBNAIL_MAX_BYTES" envDefault:"5242880"`
}

// Cleanup holds configuration of the orphaned file sweeper.
type Cleanup struct {
	Interval time.Duration `env:"YTGRAB_CLEANUP_INTERVAL" envDefault:"30m"`
	TTL      time.Duration `env:"YTGRAB_CLEANUP_TTL"      envDefault:"6h"`
}

// HTTP holds health and metrics server configuration.
type HTTP struct {
	Port            string        `env:"YTGRAB_HTTP_PORT"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"YTGRAB_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DepManager holds binary dependency management configuration.
type DepManager struct {
	// BinsDir is the directory where binaries are stored
	BinsDir string `env:"YTGRAB_DEPMANAGER_BINS_DIR" envDefault:"./bins"`
	// UseSystemBinaries indicates whether to use system-installed binaries or download them.
	UseSystemBinaries bool `env:"YTGRAB_DEPMANAGER_USE_SYSTEM_BINARIES" envDefault:"true"`

	FFmpegLinuxARM64 string `env:"YTGRAB_DEPMANAGER_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	FFmpegLinuxAMD64 string `env:"YTGRAB_DEPMANAGER_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll
	YTdlpLinuxARM64  string `env:"YTGRAB_DEPMANAGER_YTDLP_LINUX_ARM64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux_aarch64"`                             //nolint:lll
	YTdlpLinuxAMD64  string `env:"YTGRAB_DEPMANAGER_YTDLP_LINUX_AMD64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux"`                                     //nolint:lll
}

// SetAbsPaths converts the BinsDir path to an absolute path.
func (d *DepManager) SetAbsPaths() error {
	var err error
	if d.BinsDir, err = filepath.Abs(d.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	return nil
}

// Proxy holds proxy configuration for extraction requests.
type Proxy struct {
	// List is a comma-separated list of proxy URLs; a single URL is the common case
	List string `env:"YTGRAB_PROXY_LIST" envDefault:""`
	// HealthCheckInterval is how often to check proxy health
	HealthCheckInterval time.Duration `env:"YTGRAB_PROXY_HEALTH_CHECK_INTERVAL" envDefault:"5m"`
	// FailureBackoff is the initial backoff duration for failed proxies
	FailureBackoff time.Duration `env:"YTGRAB_PROXY_FAILURE_BACKOFF" envDefault:"1m"`
	// MaxFailures is the maximum number of failures before a proxy is temporarily removed
	MaxFailures int `env:"YTGRAB_PROXY_MAX_FAILURES" envDefault:"3"`

	// Proxies is the parsed list of proxy URLs
	Proxies []string `env:"-"`
}

// parseList parses the comma-separated proxy list.
func (p *Proxy) parseList() {
	p.Proxies = nil

	if p.List == "" {
		return
	}

	for proxy := range strings.SplitSeq(p.List, ",") {
		proxy = strings.TrimSpace(proxy)
		if proxy != "" {
			p.Proxies = append(p.Proxies, proxy)
		}
	}
}

// LoadEnvFiles loads dotenv files into the process environment.
// Variables already set are kept. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if file == "" {
			continue
		}

		if _, err := os.Stat(file); err != nil {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}

	return nil
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.DepManager.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set dep manager absolute paths: %w", err)
	}

	if cfg.Worker.MaxConcurrent < 1 {
		cfg.Worker.MaxConcurrent = 1
	}

	cfg.Proxy.parseList()

	return cfg, nil
}

// EnsureDirs creates the download and scratch directories if absent.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Dir.Downloads, c.Dir.Scratch} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	return nil
}
