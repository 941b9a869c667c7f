// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// YouTubeLink matches watch, short-link and shorts URLs, with or without a scheme.
var YouTubeLink = regexp.MustCompile(
	`(?i)(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?\S*v=|shorts/)|youtu\.be/)[\w-]{6,}\S*`)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// FixURL prepends https scheme to a scheme-less URL.
// Example: youtu.be/abc => https://youtu.be/abc
func FixURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}

	return schemeHTTPS + "://" + raw
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}

// FindYouTube returns the first YouTube link in text, normalized to https.
func FindYouTube(text string) (string, bool) {
	match := YouTubeLink.FindString(text)
	if match == "" {
		return "", false
	}

	link := Normalize(FixURL(match))

	return link, IsURLValid(link)
}
