package quality_test

import (
	"os"
	"path/filepath"
	"testing"

	"ytgrab/internal/entity"
	"ytgrab/internal/quality"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		tag        entity.Quality
		wantOK     bool
		wantFormat string
		wantAudio  bool
		wantExt    string
	}{
		{tag: entity.QualityBest, wantOK: true, wantFormat: "best", wantExt: "mp4"},
		{tag: entity.QualityAudio, wantOK: true, wantFormat: "bestaudio/best", wantAudio: true, wantExt: "mp3"},
		{tag: entity.Quality1080p, wantOK: true, wantFormat: "bestvideo[height<=1080]+bestaudio/best[height<=1080]", wantExt: "mp4"},
		{tag: entity.Quality2K, wantOK: true, wantFormat: "bestvideo[height<=1440]+bestaudio/best[height<=1440]", wantExt: "mp4"},
		{tag: entity.Quality4K, wantOK: true, wantFormat: "bestvideo[height<=2160]+bestaudio/best[height<=2160]", wantExt: "mp4"},
		{tag: entity.QualityMedium, wantOK: true, wantFormat: "best[height<=480]", wantExt: "mp4"},
		{tag: entity.QualityLow, wantOK: true, wantFormat: "best[height<=360]", wantExt: "mp4"},
		{tag: entity.QualityInfo, wantOK: false},
		{tag: "8k", wantOK: false},
		{tag: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			got, ok := quality.Lookup(tt.tag)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.tag, ok, tt.wantOK)
			}

			if !ok {
				return
			}

			if got.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", got.Format, tt.wantFormat)
			}

			if got.Audio != tt.wantAudio {
				t.Errorf("Audio = %v, want %v", got.Audio, tt.wantAudio)
			}

			if got.Ext != tt.wantExt {
				t.Errorf("Ext = %q, want %q", got.Ext, tt.wantExt)
			}
		})
	}
}

func TestNamingIsDeterministic(t *testing.T) {
	dir := filepath.Join(string(os.PathSeparator), "data", "downloads")

	for _, p := range quality.All() {
		t.Run(string(p.Tag), func(t *testing.T) {
			first := p.ExpectedPath(dir, "abc123")
			second := p.ExpectedPath(dir, "abc123")

			if first != second {
				t.Errorf("ExpectedPath not deterministic: %q != %q", first, second)
			}

			want := filepath.Join(dir, "downloaded_abc123.mp4")
			if p.Audio {
				want = filepath.Join(dir, "downloaded_audio_abc123.mp3")
			}

			if first != want {
				t.Errorf("ExpectedPath = %q, want %q", first, want)
			}

			wantTmpl := filepath.Join(dir, "downloaded_%(id)s.%(ext)s")
			if p.Audio {
				wantTmpl = filepath.Join(dir, "downloaded_audio_%(id)s.%(ext)s")
			}

			if got := p.OutputTemplate(dir); got != wantTmpl {
				t.Errorf("OutputTemplate = %q, want %q", got, wantTmpl)
			}
		})
	}
}

func TestStalePattern(t *testing.T) {
	dir := t.TempDir()
	video, _ := quality.Lookup(entity.QualityLow)
	audio, _ := quality.Lookup(entity.QualityAudio)

	files := []string{
		"downloaded_abc.mp4",
		"downloaded_abc.webm",
		"downloaded_abc.mp4.part",
		"downloaded_audio_abc.mp3",
		"downloaded_abcd.mp4",
		"downloaded_a[b]c.mp4",
	}

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	tests := []struct {
		name    string
		profile quality.Profile
		id      string
		want    int
	}{
		{name: "video leftovers only", profile: video, id: "abc", want: 3},
		{name: "audio leftovers only", profile: audio, id: "abc", want: 1},
		{name: "glob metacharacters in id", profile: video, id: "a[b]c", want: 1},
		{name: "no leftovers", profile: video, id: "zzz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := filepath.Glob(tt.profile.StalePattern(dir, tt.id))
			if err != nil {
				t.Fatalf("glob: %v", err)
			}

			if len(matches) != tt.want {
				t.Errorf("got %d matches %v, want %d", len(matches), matches, tt.want)
			}
		})
	}
}
