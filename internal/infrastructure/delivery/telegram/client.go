// Package telegram delivers the pipeline over the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ytgrab/internal/channel"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// API is the subset of *bot.Bot the adapter calls.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendAudio(ctx context.Context, params *bot.SendAudioParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Client implements channel.Channel.
type Client struct {
	api API
}

var _ channel.Channel = (*Client)(nil)

// NewClient wraps api.
func NewClient(api API) *Client {
	return &Client{api: api}
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := c.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}

	return msg.ID, nil
}

func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := c.api.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: chatID, MessageID: messageID, Text: text})
	if err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}

	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
	if err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}

	return nil
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, path, caption string) error {
	photo, closer, err := openUpload(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	if _, err = c.api.SendPhoto(ctx, &bot.SendPhotoParams{ChatID: chatID, Photo: photo, Caption: caption}); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	return nil
}

func (c *Client) SendAudio(ctx context.Context, chatID int64, upload channel.AudioUpload) error {
	audio, closer, err := openUpload(upload.Path)
	if err != nil {
		return err
	}
	defer closer.Close()

	params := &bot.SendAudioParams{
		ChatID:    chatID,
		Audio:     audio,
		Caption:   upload.Caption,
		Title:     upload.Title,
		Performer: upload.Performer,
		Duration:  upload.Duration,
	}

	thumb, thumbCloser := openThumbnail(upload.Thumbnail)
	defer thumbCloser.Close()

	if thumb != nil {
		params.Thumbnail = thumb
	}

	if _, err = c.api.SendAudio(ctx, params); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}

	return nil
}

func (c *Client) SendVideo(ctx context.Context, chatID int64, upload channel.VideoUpload) error {
	video, closer, err := openUpload(upload.Path)
	if err != nil {
		return err
	}
	defer closer.Close()

	params := &bot.SendVideoParams{
		ChatID:            chatID,
		Video:             video,
		Caption:           upload.Caption,
		Duration:          upload.Duration,
		Width:             upload.Width,
		Height:            upload.Height,
		SupportsStreaming: true,
	}

	thumb, thumbCloser := openThumbnail(upload.Thumbnail)
	defer thumbCloser.Close()

	if thumb != nil {
		params.Thumbnail = thumb
	}

	if _, err = c.api.SendVideo(ctx, params); err != nil {
		return fmt.Errorf("send video: %w", err)
	}

	return nil
}

func openUpload(path string) (*models.InputFileUpload, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &models.InputFileUpload{Filename: filepath.Base(path), Data: f}, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openThumbnail opens an optional preview. A missing file just drops the preview.
func openThumbnail(path string) (*models.InputFileUpload, io.Closer) {
	if path == "" {
		return nil, nopCloser{}
	}

	thumb, closer, err := openUpload(path)
	if err != nil {
		return nil, nopCloser{}
	}

	return thumb, closer
}
