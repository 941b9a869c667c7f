package telegram

import (
	"fmt"
	"slices"
	"strings"

	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
	"ytgrab/internal/quality"

	"github.com/go-telegram/bot/models"
)

const infoLabel = "ℹ️ Info"

// Callback is a parsed keyboard press.
type Callback struct {
	Quality entity.Quality
	Token   string
}

// CallbackData encodes a keyboard button payload.
func CallbackData(q entity.Quality, token string) string {
	if q == entity.QualityInfo {
		return consts.ActionInfo + consts.CallbackSep + token
	}

	return strings.Join([]string{consts.ActionDownload, string(q), token}, consts.CallbackSep)
}

// ParseCallback decodes download|<quality>|<token> and info|<token>.
// The quality is not checked here; the pipeline rejects unknown tags.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, consts.CallbackSep)

	switch {
	case len(parts) == 3 && parts[0] == consts.ActionDownload && parts[2] != "":
		return Callback{Quality: entity.Quality(parts[1]), Token: parts[2]}, nil
	case len(parts) == 2 && parts[0] == consts.ActionInfo && parts[1] != "":
		return Callback{Quality: entity.QualityInfo, Token: parts[1]}, nil
	default:
		return Callback{}, fmt.Errorf("malformed callback data %q", data)
	}
}

// Keyboard lays out the quality buttons two per row with the info button last.
func Keyboard(token string) *models.InlineKeyboardMarkup {
	profiles := quality.All()

	buttons := make([]models.InlineKeyboardButton, 0, len(profiles)+1)
	for _, p := range profiles {
		buttons = append(buttons, models.InlineKeyboardButton{Text: p.Label, CallbackData: CallbackData(p.Tag, token)})
	}

	buttons = append(buttons, models.InlineKeyboardButton{Text: infoLabel, CallbackData: CallbackData(entity.QualityInfo, token)})

	var rows [][]models.InlineKeyboardButton
	for row := range slices.Chunk(buttons, 2) {
		rows = append(rows, row)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
