// Package errs defines common error variables used across the application.
package errs

import "errors"

// Request pipeline errors. Each one is terminal for the request it occurs in.
var (
	// ErrInvalidQuality indicates that the requested quality tag is not in the profile table.
	ErrInvalidQuality = errors.New("invalid quality")
	// ErrMetadataUnavailable indicates that the metadata probe returned no usable result.
	ErrMetadataUnavailable = errors.New("metadata unavailable")
	// ErrDownloadFailed indicates that the extraction service failed to download the media.
	ErrDownloadFailed = errors.New("download failed")
	// ErrArtifactNotFound indicates that the download succeeded but no matching file exists on disk.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrUploadFailed indicates that the delivery channel rejected the artifact.
	ErrUploadFailed = errors.New("upload failed")
	// ErrCleanupFailed indicates that a produced file could not be removed. Never shown to users.
	ErrCleanupFailed = errors.New("cleanup failed")
)

// Infrastructure errors.
var (
	// ErrBinaryNotFound indicates that the required binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrNoProxiesAvailable indicates that no proxies are available.
	ErrNoProxiesAvailable = errors.New("no proxies available")
	// ErrThumbnailTooLarge indicates that a preview image exceeded the configured size bound.
	ErrThumbnailTooLarge = errors.New("thumbnail too large")
	// ErrUnknownLink indicates that a callback referenced a link token that is no longer known.
	ErrUnknownLink = errors.New("unknown link token")
)

// Admin API validation errors.
var (
	// ErrInvalidURL indicates that the submitted link is not a YouTube URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidChatID indicates that the submitted request has no delivery target.
	ErrInvalidChatID = errors.New("invalid chat id")
)

// Kind returns a stable label for the pipeline error kind wrapped by err.
// It is used as a metric label and log attribute.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidQuality):
		return "invalid_quality"
	case errors.Is(err, ErrMetadataUnavailable):
		return "metadata_unavailable"
	case errors.Is(err, ErrDownloadFailed):
		return "download_failed"
	case errors.Is(err, ErrArtifactNotFound):
		return "artifact_not_found"
	case errors.Is(err, ErrUploadFailed):
		return "upload_failed"
	case errors.Is(err, ErrCleanupFailed):
		return "cleanup_failed"
	default:
		return "unexpected"
	}
}
