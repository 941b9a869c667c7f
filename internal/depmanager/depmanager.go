// Package depmanager resolves the external binaries the extractor shells out to.
// In system mode they are looked up in PATH; otherwise they are downloaded into the bins directory.
package depmanager

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"ytgrab/internal/config"
	"ytgrab/internal/errs"

	"github.com/ulikunitz/xz"
)

// BinaryName represents the name of a binary dependency.
type BinaryName string

// Binary dependency names.
const (
	BinaryYTdlp   BinaryName = "yt-dlp"
	BinaryFFmpeg  BinaryName = "ffmpeg"
	BinaryFFprobe BinaryName = "ffprobe"
)

const (
	platformLinux   = "linux"
	platformWindows = "windows"
	archARM64       = "arm64"
	archAMD64       = "amd64"
)

const (
	// downloadTimeout is the HTTP client timeout for downloading binaries.
	downloadTimeout = 10 * time.Minute
	// filePermExecutable is the file permission for executable binaries and the bins directory.
	filePermExecutable = 0o755
)

// Platform represents the OS and architecture combination.
type Platform struct {
	OS   string
	Arch string
}

// String returns the platform string in format "os/arch".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Manager resolves and installs binary dependencies.
type Manager struct {
	log      *slog.Logger
	cfg      config.DepManager
	platform Platform
	client   *http.Client
	lookPath func(string) (string, error)

	mu       sync.RWMutex
	binPaths map[BinaryName]string
}

// New creates a new dependency manager.
func New(log *slog.Logger, cfg config.DepManager) *Manager {
	return &Manager{
		log: log.With(slog.String("package", "depmanager")),
		cfg: cfg,
		platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		client:   &http.Client{Timeout: downloadTimeout},
		lookPath: exec.LookPath,
		binPaths: make(map[BinaryName]string),
	}
}

// Start resolves every binary according to the configured mode.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.UseSystemBinaries {
		return m.SetSystemBinaries(ctx)
	}

	return m.InstallAll(ctx)
}

// SetSystemBinaries looks the binaries up in the system PATH.
// yt-dlp and ffmpeg are required; ffprobe is optional since only audio postprocessing uses it.
func (m *Manager) SetSystemBinaries(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, binary := range []BinaryName{BinaryYTdlp, BinaryFFmpeg, BinaryFFprobe} {
		path, err := m.lookPath(string(binary))
		if err != nil {
			if binary == BinaryFFprobe {
				m.log.WarnContext(ctx, "binary not found in PATH", slog.String("binary", string(binary)))

				continue
			}

			return fmt.Errorf("%s: %w: %w", binary, errs.ErrBinaryNotFound, err)
		}

		m.binPaths[binary] = path
	}

	m.log.InfoContext(ctx, "using system binaries", slog.Any("binaries", m.binPaths))

	return nil
}

// InstallAll downloads the binaries that are not present in the bins directory yet.
func (m *Manager) InstallAll(ctx context.Context) error {
	if m.platform.OS != platformLinux {
		return fmt.Errorf("install on %s: %w", m.platform, errs.ErrUnsupportedPlatform)
	}

	if err := os.MkdirAll(m.cfg.BinsDir, filePermExecutable); err != nil {
		return fmt.Errorf("create bins directory: %w", err)
	}

	// ffprobe ships in the ffmpeg archive
	for _, binary := range []BinaryName{BinaryFFmpeg, BinaryYTdlp} {
		if m.isBinaryExists(binary) && (binary != BinaryFFmpeg || m.isBinaryExists(BinaryFFprobe)) {
			m.setBinaryPath(binary)

			if binary == BinaryFFmpeg {
				m.setBinaryPath(BinaryFFprobe)
			}

			m.log.DebugContext(ctx, "binary already exists", slog.String("binary", string(binary)))

			continue
		}

		if err := m.downloadAndInstall(ctx, binary); err != nil {
			return fmt.Errorf("download and install %s: %w", binary, err)
		}
	}

	m.log.InfoContext(ctx, "all binaries are installed", slog.Any("binaries", m.binPaths))

	return nil
}

// GetBinaryPath returns where a binary lives inside the bins directory.
func (m *Manager) GetBinaryPath(name BinaryName) string {
	filename := string(name)
	if m.platform.OS == platformWindows {
		filename += ".exe"
	}

	return filepath.Join(m.cfg.BinsDir, filename)
}

// InstalledPath returns the resolved path for a binary, or empty if unresolved.
func (m *Manager) InstalledPath(name BinaryName) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.binPaths[name]
}

func (m *Manager) isBinaryExists(name BinaryName) bool {
	info, err := os.Stat(m.GetBinaryPath(name))

	return err == nil && info.Size() > 0
}

func (m *Manager) setBinaryPath(name BinaryName) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.binPaths[name] = m.GetBinaryPath(name)
}

func (m *Manager) downloadAndInstall(ctx context.Context, name BinaryName) error {
	log := m.log.With(slog.String("binary", string(name)))

	url := m.binaryURL(name)
	if url == "" {
		return fmt.Errorf("no download URL configured for %s on %s", name, m.platform)
	}

	log.InfoContext(ctx, "downloading binary", slog.String("url", url))

	installed, err := m.downloadDependency(ctx, url, name)
	if err != nil {
		return fmt.Errorf("download dependency: %w", err)
	}

	for bin, path := range installed {
		if err := os.Chmod(path, filePermExecutable); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}

		m.setBinaryPath(bin)

		log.InfoContext(ctx, "binary installed", slog.String("path", path))
	}

	return nil
}

func (m *Manager) binaryURL(name BinaryName) string {
	switch name {
	case BinaryYTdlp:
		return m.selectURL(m.cfg.YTdlpLinuxARM64, m.cfg.YTdlpLinuxAMD64)
	case BinaryFFmpeg, BinaryFFprobe:
		return m.selectURL(m.cfg.FFmpegLinuxARM64, m.cfg.FFmpegLinuxAMD64)
	}

	return ""
}

func (m *Manager) selectURL(linuxARM64, linuxAMD64 string) string {
	if m.platform.Arch == archARM64 && linuxARM64 != "" {
		return linuxARM64
	}

	return linuxAMD64
}

// filesNeeded returns the binaries a download of name provides.
func filesNeeded(name BinaryName) []BinaryName {
	if name == BinaryFFmpeg || name == BinaryFFprobe {
		return []BinaryName{BinaryFFmpeg, BinaryFFprobe}
	}

	return []BinaryName{name}
}

// downloadDependency fetches url into the bins directory. Archives are unpacked. Returns installed paths.
func (m *Manager) downloadDependency(ctx context.Context, url string, name BinaryName) (map[BinaryName]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(m.cfg.BinsDir, "download-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	targets := make(map[BinaryName]string)
	for _, bin := range filesNeeded(name) {
		targets[bin] = m.GetBinaryPath(bin)
	}

	if strings.HasSuffix(url, ".tar.xz") {
		if err := extractFromTarXZ(tmpPath, targets); err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}

		return targets, nil
	}

	if err := os.Rename(tmpPath, targets[name]); err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}

	return targets, nil
}

func extractFromTarXZ(archivePath string, targets map[BinaryName]string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open tar.xz: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	tarReader := tar.NewReader(xzReader)
	extracted := 0

	for extracted < len(targets) {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		destPath, ok := targets[BinaryName(filepath.Base(header.Name))]
		if !ok {
			continue
		}

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			return fmt.Errorf("create dest file: %w", err)
		}

		_, err = io.Copy(outFile, tarReader)
		outFile.Close()

		if err != nil {
			return fmt.Errorf("extract file: %w", err)
		}

		extracted++
	}

	if extracted != len(targets) {
		return fmt.Errorf("archive has %d of %d binaries: %w", extracted, len(targets), errs.ErrBinaryNotFound)
	}

	return nil
}
