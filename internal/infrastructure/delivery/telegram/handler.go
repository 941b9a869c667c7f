package telegram

import (
	"context"
	"log/slog"
	"sync"

	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/pipeline"
	"ytgrab/pkg/urls"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Runner processes a media request to completion.
type Runner interface {
	Run(ctx context.Context, req entity.MediaRequest) pipeline.Result
}

// Handler reacts to links and keyboard presses.
type Handler struct {
	log    *slog.Logger
	api    API
	links  *Links
	runner Runner

	wg sync.WaitGroup
}

// NewHandler creates a handler replying through api.
func NewHandler(log *slog.Logger, api API, links *Links, runner Runner) *Handler {
	return &Handler{
		log:    log.With(slog.String("package", "telegram")),
		api:    api,
		links:  links,
		runner: runner,
	}
}

// Register wires the handler into b.
func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandlerRegexp(bot.HandlerTypeMessageText, urls.YouTubeLink, h.OnLink)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, consts.ActionDownload+consts.CallbackSep, bot.MatchTypePrefix, h.OnCallback)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, consts.ActionInfo+consts.CallbackSep, bot.MatchTypePrefix, h.OnCallback)
}

// OnLink replies to a message carrying a YouTube link with the quality keyboard.
func (h *Handler) OnLink(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	link, ok := urls.FindYouTube(msg.Text)
	if !ok {
		return
	}

	token := h.links.Put(link, msg.Chat.ID)

	_, err := h.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        consts.MsgSelectFormat,
		ReplyMarkup: Keyboard(token),
	})
	if err != nil {
		h.log.ErrorContext(ctx, "send quality keyboard", slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))

		return
	}

	h.log.DebugContext(ctx, "quality keyboard sent", slog.String("link", link), slog.Int64("chat_id", msg.Chat.ID))
}

// OnCallback answers a keyboard press and runs the request in the background.
func (h *Handler) OnCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}

	req, err := h.request(q)
	if err != nil {
		h.log.WarnContext(ctx, "reject callback", slog.String("data", q.Data), slog.Any("error", err))
		h.answer(ctx, q.ID, consts.MsgLinkExpired)

		return
	}

	if req.Quality == entity.QualityInfo {
		h.answer(ctx, q.ID, consts.MsgAnswerInfo)
	} else {
		h.answer(ctx, q.ID, consts.MsgAnswerDownload)
	}

	h.wg.Go(func() {
		h.runner.Run(ctx, req)
	})
}

// Wait blocks until every request started by a callback has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) request(q *models.CallbackQuery) (entity.MediaRequest, error) {
	cb, err := ParseCallback(q.Data)
	if err != nil {
		return entity.MediaRequest{}, err
	}

	link, ok := h.links.Get(cb.Token)
	if !ok {
		return entity.MediaRequest{}, errs.ErrUnknownLink
	}

	return entity.MediaRequest{Link: link, Quality: cb.Quality, ChatID: chatID(q)}, nil
}

// chatID is the chat of the keyboard message, or the sender when that message is gone.
func chatID(q *models.CallbackQuery) int64 {
	switch {
	case q.Message.Message != nil:
		return q.Message.Message.Chat.ID
	case q.Message.InaccessibleMessage != nil:
		return q.Message.InaccessibleMessage.Chat.ID
	default:
		return q.From.ID
	}
}

func (h *Handler) answer(ctx context.Context, queryID, text string) {
	_, err := h.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: queryID, Text: text})
	if err != nil {
		h.log.WarnContext(ctx, "answer callback", slog.Any("error", err))
	}
}
