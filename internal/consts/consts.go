// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultThumbnailTimeout is the default timeout for fetching a preview image.
	DefaultThumbnailTimeout = 15 * time.Second
	// DefaultThumbnailMaxBytes bounds the size of a fetched preview image.
	DefaultThumbnailMaxBytes = 5 << 20
	// DefaultStatusEditInterval is the minimum gap between progress edits of a status message.
	DefaultStatusEditInterval = 3 * time.Second
	// DefaultLinkTTL is how long a link token from a quality keyboard stays valid.
	DefaultLinkTTL = 24 * time.Hour
)

// Upload field bounds and defaults. Delivery parity depends on these exact values.
const (
	// MaxFieldLength is the maximum number of characters of a title or performer field.
	MaxFieldLength = 64
	// DefaultPerformer is used when the source has no uploader.
	DefaultPerformer = "Unknown Artist"
	// DefaultTitle is used when the source has no title.
	DefaultTitle = "Untitled"
)

// Output naming.
const (
	// VideoPrefix prefixes every downloaded video file.
	VideoPrefix = "downloaded_"
	// AudioPrefix prefixes every downloaded audio file.
	AudioPrefix = "downloaded_audio_"
	// ThumbnailPrefix prefixes every fetched preview image in the scratch directory.
	ThumbnailPrefix = "thumb_"
	// ExtVideo is the expected extension of a video artifact.
	ExtVideo = "mp4"
	// ExtAudio is the expected extension of an audio artifact.
	ExtAudio = "mp3"
)

// Audio postprocessing.
const (
	// AudioCodec is the target codec when extracting audio.
	AudioCodec = "mp3"
	// AudioBitrate is the target bitrate in kbps when extracting audio.
	AudioBitrate = "320"
)

// Status messages shown while a request is in flight.
const (
	MsgProcessing  = "⏳ Processing..."
	MsgDownloading = "⏳ Downloading..."
	MsgUploading   = "📤 Uploading..."
)

// Terminal messages. Exactly one of these is sent per request.
const (
	MsgSuccess             = "✅ Successfully uploaded!"
	MsgInvalidQuality      = "❌ Invalid quality selected"
	MsgMetadataUnavailable = "❌ Error: Could not get video information"
	MsgDownloadFailed      = "❌ Download error: The video may be restricted or unavailable"
	MsgArtifactNotFound    = "❌ Error: Downloaded file not found. Please try again."
	MsgUploadFailed        = "❌ Upload failed: "
	MsgUnexpected          = "❌ An unexpected error occurred: "
	MsgInfoUnavailable     = "❌ Could not fetch video information"
)

// Telegram interaction texts.
const (
	MsgSelectFormat   = "🎬 Select Download Format\n\nChoose the quality you want to download:"
	MsgAnswerDownload = "Processing your request..."
	MsgAnswerInfo     = "Fetching video info..."
	MsgLinkExpired    = "This link has expired, please send it again"
)

// Callback actions.
const (
	ActionDownload = "download"
	ActionInfo     = "info"
	CallbackSep    = "|"
)

// Admin HTTP responses.
const (
	RespInvalidRequestBody  = "invalid request body"
	RespUnprocessableEntity = "unprocessable entity"
	RespRequestAccepted     = "request accepted"
	RespReady               = "ready"
	// DefaultHandlerTimeout bounds synchronous admin handlers.
	DefaultHandlerTimeout = 5 * time.Second
)
