package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"ytgrab/pkg/calc"
	"ytgrab/pkg/shellquote"

	"github.com/lrstanley/go-ytdlp"
)

// flags whose values never reach the logs
var secretFlags = []string{"--password", "--proxy", "--username"}

// Result wraps ytdlp.Result for custom logging.
type Result struct {
	*ytdlp.Result
}

// LogValue implements the slog.LogValuer interface for custom logging of Result.
func (r Result) LogValue() slog.Value {
	if r.Result == nil {
		return slog.GroupValue(slog.String("error", "nil result"))
	}

	var logs strings.Builder
	for _, line := range r.OutputLogs {
		fmt.Fprintf(&logs, "%s\n", line)
	}

	return slog.GroupValue(
		slog.String("command", shellquote.JoinRedacted(r.Executable, r.Args, secretFlags...)),
		slog.Int("exit_code", r.ExitCode),
		slog.String("stderr", r.Stderr),
		slog.String("output_logs", logs.String()),
	)
}

// ProgressUpdate wraps ytdlp.ProgressUpdate for custom logging.
type ProgressUpdate struct {
	*ytdlp.ProgressUpdate
}

// LogValue implements the slog.LogValuer interface for custom logging of ProgressUpdate.
func (p ProgressUpdate) LogValue() slog.Value {
	if p.ProgressUpdate == nil {
		return slog.GroupValue(slog.String("error", "nil progress update"))
	}

	return slog.GroupValue(
		slog.String("filename", p.Filename),
		slog.String("status", fmt.Sprintf("%v", p.Status)),
		slog.Int("downloaded_bytes", p.DownloadedBytes),
		slog.Int("total_bytes", p.TotalBytes),
		slog.Int("progress", calc.Progress(p.DownloadedBytes, p.TotalBytes)),
	)
}
