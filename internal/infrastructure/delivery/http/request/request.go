package request

import (
	"fmt"
	"slices"

	"ytgrab/internal/entity"
	"ytgrab/internal/errs"
	"ytgrab/internal/quality"
	"ytgrab/pkg/urls"
)

// Enqueue submits one media request for delivery to a chat.
type Enqueue struct {
	URL     string `json:"url"`
	Quality string `json:"quality"` // one of the keyboard tags, e.g. "best", "audio", "info"
	ChatID  int64  `json:"chat_id"`
}

// Validate normalizes the link and checks that every field is usable.
func (e *Enqueue) Validate() error {
	link, ok := urls.FindYouTube(e.URL)
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrInvalidURL, e.URL)
	}

	e.URL = link

	q := entity.Quality(e.Quality)
	if !slices.Contains(quality.Tags(), q) && q != entity.QualityInfo {
		return fmt.Errorf("%w: %q", errs.ErrInvalidQuality, e.Quality)
	}

	if e.ChatID == 0 {
		return errs.ErrInvalidChatID
	}

	return nil
}

// MediaRequest converts a validated Enqueue.
func (e *Enqueue) MediaRequest() entity.MediaRequest {
	return entity.MediaRequest{Link: e.URL, Quality: entity.Quality(e.Quality), ChatID: e.ChatID}
}
