// Package channel defines the boundary to the chat platform media is delivered on.
package channel

import (
	"context"
)

// Channel sends messages and media to a chat.
type Channel interface {
	// SendText posts a message and returns its id.
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendPhoto(ctx context.Context, chatID int64, path, caption string) error
	SendAudio(ctx context.Context, chatID int64, upload AudioUpload) error
	SendVideo(ctx context.Context, chatID int64, upload VideoUpload) error
}

// Upload is either an AudioUpload or a VideoUpload.
type Upload interface {
	// File returns the local path of the media.
	File() string
	isUpload()
}

// AudioUpload is an audio file with track fields. Thumbnail is an optional local path.
type AudioUpload struct {
	Path      string
	Caption   string
	Title     string
	Performer string
	Duration  int
	Thumbnail string
}

// VideoUpload is a video file with its dimensions. Thumbnail is an optional local path.
type VideoUpload struct {
	Path      string
	Caption   string
	Duration  int
	Width     int
	Height    int
	Thumbnail string
}

func (u AudioUpload) File() string { return u.Path }
func (u VideoUpload) File() string { return u.Path }

func (AudioUpload) isUpload() {}
func (VideoUpload) isUpload() {}

// Send dispatches upload to the matching Channel method.
func Send(ctx context.Context, ch Channel, chatID int64, upload Upload) error {
	switch u := upload.(type) {
	case AudioUpload:
		return ch.SendAudio(ctx, chatID, u)
	case VideoUpload:
		return ch.SendVideo(ctx, chatID, u)
	default:
		panic("channel: unknown upload type")
	}
}
