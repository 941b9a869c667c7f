package telegram

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ytgrab/internal/config"

	"github.com/go-telegram/bot"
)

// pollSlack is added to the long-polling timeout for the HTTP client deadline.
const pollSlack = 10 * time.Second

var errNoToken = errors.New("telegram bot token is not set")

// NewBot creates a long-polling bot. Handlers are registered separately.
func NewBot(log *slog.Logger, cfg config.Telegram, opts ...bot.Option) (*bot.Bot, error) {
	if cfg.Token == "" {
		return nil, errNoToken
	}

	log = log.With(slog.String("package", "telegram"))

	base := []bot.Option{
		bot.WithHTTPClient(cfg.PollTimeout, &http.Client{Timeout: cfg.PollTimeout + pollSlack}),
		bot.WithErrorsHandler(func(err error) {
			log.Error("telegram polling", slog.Any("error", err))
		}),
	}

	return bot.New(cfg.Token, append(base, opts...)...)
}
