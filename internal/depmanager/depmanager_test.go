//nolint:testpackage // using internal package access to cover private helpers
package depmanager

import (
	"archive/tar"
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"ytgrab/internal/config"
	"ytgrab/internal/errs"

	"github.com/ulikunitz/xz"
)

func newTestManager(t *testing.T, cfg config.DepManager) *Manager {
	t.Helper()

	mgr := New(slog.New(slog.DiscardHandler), cfg)
	mgr.platform = Platform{OS: platformLinux, Arch: archAMD64}

	return mgr
}

func tarXZ(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	xzw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}

	tw := tar.NewWriter(xzw)

	if err := tw.WriteHeader(&tar.Header{Name: "ffmpeg-build/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatalf("write dir header: %v", err)
	}

	for name, body := range files {
		hdr := &tar.Header{Name: "ffmpeg-build/bin/" + name, Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}

		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}

	if err := xzw.Close(); err != nil {
		t.Fatalf("close xz: %v", err)
	}

	return buf.Bytes()
}

func serve(t *testing.T, body []byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestGetBinaryPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		binary   BinaryName
		os       string
		wantPath string
	}{
		{name: "yt-dlp on linux", binary: BinaryYTdlp, os: "linux", wantPath: "/app/bins/yt-dlp"},
		{name: "ffprobe on linux", binary: BinaryFFprobe, os: "linux", wantPath: "/app/bins/ffprobe"},
		{name: "ffmpeg on windows", binary: BinaryFFmpeg, os: "windows", wantPath: "/app/bins/ffmpeg.exe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mgr := newTestManager(t, config.DepManager{BinsDir: "/app/bins"})
			mgr.platform.OS = tc.os

			if got := mgr.GetBinaryPath(tc.binary); got != tc.wantPath {
				t.Errorf("got %s, want %s", got, tc.wantPath)
			}
		})
	}
}

func TestSelectURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		arch     string
		linuxARM string
		want     string
	}{
		{name: "arm64 with config", arch: archARM64, linuxARM: "https://example.com/arm64", want: "https://example.com/arm64"},
		{name: "arm64 without config falls back", arch: archARM64, want: "https://example.com/amd64"},
		{name: "amd64", arch: archAMD64, linuxARM: "https://example.com/arm64", want: "https://example.com/amd64"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mgr := newTestManager(t, config.DepManager{})
			mgr.platform.Arch = tc.arch

			if got := mgr.selectURL(tc.linuxARM, "https://example.com/amd64"); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDownloadDependencyPlainBinary(t *testing.T) {
	t.Parallel()

	srv := serve(t, []byte("#!/bin/sh\necho yt-dlp\n"))
	dir := t.TempDir()

	mgr := newTestManager(t, config.DepManager{BinsDir: dir, YTdlpLinuxAMD64: srv.URL + "/yt-dlp_linux"})

	if err := mgr.InstallAll(t.Context()); err == nil {
		t.Fatal("expected InstallAll to fail without an ffmpeg URL")
	}

	if err := mgr.downloadAndInstall(t.Context(), BinaryYTdlp); err != nil {
		t.Fatalf("downloadAndInstall: %v", err)
	}

	path := mgr.InstalledPath(BinaryYTdlp)
	if path != filepath.Join(dir, "yt-dlp") {
		t.Fatalf("installed path = %q", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("binary is not executable: %v", info.Mode())
	}
}

func TestInstallAllExtractsFFmpegArchive(t *testing.T) {
	t.Parallel()

	archive := serve(t, tarXZ(t, map[string]string{"ffmpeg": "ff", "ffprobe": "fp", "ffplay": "x"}))
	ytdlp := serve(t, []byte("yt"))
	dir := t.TempDir()

	mgr := newTestManager(t, config.DepManager{
		BinsDir:          dir,
		FFmpegLinuxAMD64: archive.URL + "/ffmpeg-master-latest-linux64-gpl.tar.xz",
		YTdlpLinuxAMD64:  ytdlp.URL + "/yt-dlp_linux",
	})

	if err := mgr.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for bin, want := range map[BinaryName]string{BinaryFFmpeg: "ff", BinaryFFprobe: "fp", BinaryYTdlp: "yt"} {
		got, err := os.ReadFile(mgr.InstalledPath(bin))
		if err != nil {
			t.Fatalf("read %s: %v", bin, err)
		}

		if string(got) != want {
			t.Errorf("%s content = %q, want %q", bin, got, want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "ffplay")); !os.IsNotExist(err) {
		t.Errorf("unrequested archive member was extracted: %v", err)
	}

	// second run keeps existing binaries without network
	archive.Close()
	ytdlp.Close()

	again := newTestManager(t, mgr.cfg)
	if err := again.InstallAll(t.Context()); err != nil {
		t.Fatalf("InstallAll with existing binaries: %v", err)
	}
}

func TestExtractFromTarXZMissingMember(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "a.tar.xz")

	if err := os.WriteFile(archivePath, tarXZ(t, map[string]string{"ffmpeg": "ff"}), 0o644); err != nil {
		t.Fatal(err)
	}

	err := extractFromTarXZ(archivePath, map[BinaryName]string{
		BinaryFFmpeg:  filepath.Join(dir, "ffmpeg"),
		BinaryFFprobe: filepath.Join(dir, "ffprobe"),
	})
	if !errors.Is(err, errs.ErrBinaryNotFound) {
		t.Fatalf("got %v, want ErrBinaryNotFound", err)
	}
}

func TestSetSystemBinaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		found   map[string]string
		wantErr bool
	}{
		{
			name:  "all present",
			found: map[string]string{"yt-dlp": "/usr/bin/yt-dlp", "ffmpeg": "/usr/bin/ffmpeg", "ffprobe": "/usr/bin/ffprobe"},
		},
		{
			name:  "ffprobe optional",
			found: map[string]string{"yt-dlp": "/usr/bin/yt-dlp", "ffmpeg": "/usr/bin/ffmpeg"},
		},
		{
			name:    "yt-dlp required",
			found:   map[string]string{"ffmpeg": "/usr/bin/ffmpeg"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mgr := newTestManager(t, config.DepManager{UseSystemBinaries: true})
			mgr.lookPath = func(name string) (string, error) {
				if p, ok := tc.found[name]; ok {
					return p, nil
				}

				return "", exec.ErrNotFound
			}

			err := mgr.Start(t.Context())
			if tc.wantErr {
				if !errors.Is(err, errs.ErrBinaryNotFound) {
					t.Fatalf("got %v, want ErrBinaryNotFound", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Start: %v", err)
			}

			if got := mgr.InstalledPath(BinaryYTdlp); got != tc.found["yt-dlp"] {
				t.Errorf("yt-dlp path = %q", got)
			}
		})
	}
}

func TestInstallAllUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	mgr := newTestManager(t, config.DepManager{BinsDir: t.TempDir()})
	mgr.platform = Platform{OS: "darwin", Arch: archARM64}

	if err := mgr.InstallAll(t.Context()); !errors.Is(err, errs.ErrUnsupportedPlatform) {
		t.Fatalf("got %v, want ErrUnsupportedPlatform", err)
	}
}
