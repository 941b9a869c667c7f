// Package entity defines the core entities used in the application.
package entity

import (
	"log/slog"
)

// Quality is a user-facing quality tag picked from the selection keyboard.
type Quality string

const (
	QualityBest   Quality = "best"
	QualityAudio  Quality = "audio"
	Quality1080p  Quality = "1080p"
	Quality2K     Quality = "2k"
	Quality4K     Quality = "4k"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
	// QualityInfo requests the metadata display instead of a download.
	QualityInfo Quality = "info"
)

// MediaRequest is a single user request. It is immutable once created and consumed once by the pipeline.
type MediaRequest struct {
	Link    string
	Quality Quality
	// ChatID is the delivery target on the messaging platform.
	ChatID int64
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (r MediaRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("link", r.Link),
		slog.String("quality", string(r.Quality)),
		slog.Int64("chat_id", r.ChatID),
	)
}

// Metadata is the result of a metadata probe. Every field except ID is optional.
type Metadata struct {
	ID           string
	Title        string
	Uploader     string
	Duration     int // seconds
	Width        int
	Height       int
	ThumbnailURL string
	ViewCount    *int64
	LikeCount    *int64
	UploadDate   string // YYYYMMDD as reported by the source
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (m Metadata) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", m.ID),
		slog.String("title", m.Title),
		slog.String("uploader", m.Uploader),
		slog.Int("duration", m.Duration),
		slog.Int("width", m.Width),
		slog.Int("height", m.Height),
		slog.Bool("has_thumbnail", m.ThumbnailURL != ""),
	)
}

// ArtifactKind is the shape of a downloaded artifact.
type ArtifactKind string

const (
	ArtifactAudio ArtifactKind = "audio"
	ArtifactVideo ArtifactKind = "video"
)

// ArtifactHandle is a located download. The file is owned by the request and removed when it ends.
type ArtifactHandle struct {
	Path    string
	Kind    ArtifactKind
	Request MediaRequest
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (a ArtifactHandle) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", a.Path),
		slog.String("kind", string(a.Kind)),
	)
}

// ThumbnailHandle is an optional preview image in the scratch directory.
type ThumbnailHandle struct {
	Path    string
	Request MediaRequest
}

// State is a step of the per-request state machine.
type State string

const (
	StateReceived           State = "received"
	StateQualityResolved    State = "quality_resolved"
	StateMetadataProbed     State = "metadata_probed"
	StateDownloading        State = "downloading"
	StateArtifactLocated    State = "artifact_located"
	StateThumbnailAttempted State = "thumbnail_attempted"
	StateUploading          State = "uploading"
	StateSucceeded          State = "succeeded"
	StateFailed             State = "failed"
)

// NeedsCleanup reports whether leaving this state must run the cleanup exit action.
func (s State) NeedsCleanup() bool {
	switch s {
	case StateDownloading, StateArtifactLocated, StateThumbnailAttempted,
		StateUploading, StateSucceeded, StateFailed:
		return true
	default:
		return false
	}
}
