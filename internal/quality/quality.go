// Package quality holds the static quality profile table.
// It maps a user-facing tag to a yt-dlp format expression and the output shape.
package quality

import (
	"path/filepath"
	"strings"

	"ytgrab/internal/consts"
	"ytgrab/internal/entity"
)

// Profile describes how one quality tag is downloaded and named.
type Profile struct {
	Tag    entity.Quality
	Label  string
	Format string
	Audio  bool
	Ext    string
}

// see: https://github.com/yt-dlp/yt-dlp#format-selection
var profiles = []Profile{
	{Tag: entity.QualityBest, Label: "🎥 Best Quality", Format: "best", Ext: consts.ExtVideo},
	{Tag: entity.QualityAudio, Label: "🎵 Audio Only", Format: "bestaudio/best", Audio: true, Ext: consts.ExtAudio},
	{Tag: entity.Quality1080p, Label: "🖥 1080p", Format: heightCapped("1080"), Ext: consts.ExtVideo},
	{Tag: entity.Quality2K, Label: "📺 2K", Format: heightCapped("1440"), Ext: consts.ExtVideo},
	{Tag: entity.Quality4K, Label: "📽 4K", Format: heightCapped("2160"), Ext: consts.ExtVideo},
	{Tag: entity.QualityMedium, Label: "🖼 Medium", Format: "best[height<=480]", Ext: consts.ExtVideo},
	{Tag: entity.QualityLow, Label: "📱 Low Quality", Format: "best[height<=360]", Ext: consts.ExtVideo},
}

var byTag = func() map[entity.Quality]Profile {
	m := make(map[entity.Quality]Profile, len(profiles))
	for _, p := range profiles {
		m[p.Tag] = p
	}

	return m
}()

func heightCapped(h string) string {
	return "bestvideo[height<=" + h + "]+bestaudio/best[height<=" + h + "]"
}

// Lookup returns the profile for a download tag.
// The info tag has no profile since it never downloads.
func Lookup(tag entity.Quality) (Profile, bool) {
	p, ok := byTag[tag]

	return p, ok
}

// All returns the profiles in keyboard order.
func All() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)

	return out
}

// Kind returns the artifact kind this profile produces.
func (p Profile) Kind() entity.ArtifactKind {
	if p.Audio {
		return entity.ArtifactAudio
	}

	return entity.ArtifactVideo
}

func (p Profile) prefix() string {
	if p.Audio {
		return consts.AudioPrefix
	}

	return consts.VideoPrefix
}

// OutputTemplate is the yt-dlp output template inside dir.
// see: https://github.com/yt-dlp/yt-dlp#output-template
func (p Profile) OutputTemplate(dir string) string {
	return filepath.Join(dir, p.prefix()+"%(id)s.%(ext)s")
}

// ExpectedPath is where the artifact for id is expected after post-processing.
func (p Profile) ExpectedPath(dir, id string) string {
	return filepath.Join(dir, p.prefix()+id+"."+p.Ext)
}

// StalePattern is a glob matching any leftover of a previous run for id, whatever its extension.
func (p Profile) StalePattern(dir, id string) string {
	return filepath.Join(dir, p.prefix()+EscapeGlob(id)+".*")
}

// EscapeGlob escapes filepath.Match metacharacters so s matches literally.
func EscapeGlob(s string) string {
	var b strings.Builder

	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}

		b.WriteRune(r)
	}

	return b.String()
}

// Tags returns the download tags in keyboard order.
func Tags() []entity.Quality {
	out := make([]entity.Quality, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Tag)
	}

	return out
}
