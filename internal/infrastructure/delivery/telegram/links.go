package telegram

import (
	"strconv"
	"sync"
	"time"

	"ytgrab/internal/consts"
	"ytgrab/pkg/gen"
)

// Links maps short tokens to the links they were issued for.
// Callback data is capped at 64 bytes, too small for a full URL.
type Links struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]link
}

type link struct {
	url     string
	expires time.Time
}

// NewLinks creates a store whose tokens live for ttl.
func NewLinks(ttl time.Duration) *Links {
	if ttl <= 0 {
		ttl = consts.DefaultLinkTTL
	}

	return &Links{ttl: ttl, now: time.Now, items: make(map[string]link)}
}

// Put stores url sent in chatID and returns its token. The same link in the same chat
// gets the same token with a refreshed expiry. Expired tokens are pruned on the way.
func (l *Links) Put(url string, chatID int64) string {
	token := gen.ShortKey(url, strconv.FormatInt(chatID, 10))
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range l.items {
		if !now.Before(v.expires) {
			delete(l.items, k)
		}
	}

	l.items[token] = link{url: url, expires: now.Add(l.ttl)}

	return token
}

// Get resolves a token. A token can be resolved any number of times until it expires.
func (l *Links) Get(token string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.items[token]
	if !ok || !l.now().Before(v.expires) {
		return "", false
	}

	return v.url, true
}

// Len returns the number of stored tokens, expired ones included.
func (l *Links) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.items)
}
