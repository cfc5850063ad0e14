package ytdlp

import (
	"strings"
	"testing"

	"vgrab/internal/model"
)

func TestBuildFormatSelector(t *testing.T) {
	tests := []struct {
		name     string
		formatID string
		want     string
	}{
		{name: "empty defaults to best ladder", formatID: "", want: "best[height<=1080]/best[height<=720]/best[height<=480]/best"},
		{name: "best ladder", formatID: FormatBest, want: "best[height<=1080]/best[height<=720]/best[height<=480]/best"},
		{name: "merged mp4", formatID: FormatBestAudio, want: "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"},
		{name: "compatible", formatID: FormatCompatible, want: "best[height<=720][ext=mp4]/best[height<=720]/best[ext=mp4]/best"},
		{name: "concrete id gets audio merged", formatID: "137", want: "137+bestaudio/bestaudio/best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildFormatSelector(tt.formatID); got != tt.want {
				t.Fatalf("unexpected selector: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestQualityNote(t *testing.T) {
	tests := []struct {
		height int
		want   string
	}{
		{height: 2160, want: "High Quality"},
		{height: 1080, want: "High Quality"},
		{height: 720, want: "Medium Quality"},
		{height: 480, want: "Standard Quality"},
		{height: 360, want: "Low Quality"},
		{height: 0, want: "Low Quality"},
	}

	for _, tt := range tests {
		if got := QualityNote(tt.height); got != tt.want {
			t.Fatalf("QualityNote(%d) = %q, want %q", tt.height, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{seconds: 0, want: "Unknown"},
		{seconds: 59, want: "00:59"},
		{seconds: 120, want: "02:00"},
		{seconds: 3599, want: "59:59"},
		{seconds: 3600, want: "01:00:00"},
		{seconds: 7265, want: "02:01:05"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatFilesize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{bytes: 0, want: "Unknown"},
		{bytes: -1, want: "Unknown"},
		{bytes: 1048576, want: "1.0 MB"},
		{bytes: 15938355, want: "15.2 MB"},
	}

	for _, tt := range tests {
		if got := FormatFilesize(tt.bytes); got != tt.want {
			t.Fatalf("FormatFilesize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := TruncateDescription(long)
	if len([]rune(got)) != 203 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long description not truncated: len=%d", len([]rune(got)))
	}
	if got := TruncateDescription("short"); got != "short" {
		t.Fatalf("short description changed: %q", got)
	}
	if got := TruncateDescription(""); got != "" {
		t.Fatalf("empty description changed: %q", got)
	}
}

func TestProjectFormats(t *testing.T) {
	raw := []rawFormat{
		{FormatID: "audio", VCodec: "none", ACodec: "opus", Filesize: 500},
		{FormatID: "empty", VCodec: "vp9", ACodec: "none"},
		{FormatID: "480", VCodec: "avc1", ACodec: "none", Height: 480, Width: 854, Ext: "mp4", Filesize: 1 << 20, URL: "http://x/480"},
		{FormatID: "1080", VCodec: "avc1", ACodec: "none", Height: 1080, Width: 1920, Ext: "mp4", FilesizeA: 5 << 20, URL: "http://x/1080"},
		{FormatID: "1080a", VCodec: "avc1", ACodec: "mp4a", Height: 1080, Width: 1920, Ext: "mp4", Filesize: 6 << 20, URL: "http://x/1080a"},
	}

	got := ProjectFormats(raw, 15)
	if len(got) != 3 {
		t.Fatalf("expected 3 formats, got %d", len(got))
	}
	// 1080 with audio sorts before 1080 without, 480 last.
	if got[0].FormatID != "1080a" || got[1].FormatID != "1080" || got[2].FormatID != "480" {
		t.Fatalf("bad order: %s, %s, %s", got[0].FormatID, got[1].FormatID, got[2].FormatID)
	}
	if !got[0].HasAudio || got[1].HasAudio {
		t.Fatalf("audio flags wrong")
	}
	if got[0].FormatNote != "High Quality" || got[2].FormatNote != "Standard Quality" {
		t.Fatalf("quality notes wrong: %q, %q", got[0].FormatNote, got[2].FormatNote)
	}
	if got[1].Filesize != 5<<20 {
		t.Fatalf("approx filesize not used: %d", got[1].Filesize)
	}
	if got[2].FileSize != "1.0 MB" {
		t.Fatalf("size string wrong: %q", got[2].FileSize)
	}
}

func TestProjectFormatsCap(t *testing.T) {
	raw := make([]rawFormat, 0, 20)
	for i := 0; i < 20; i++ {
		raw = append(raw, rawFormat{
			FormatID: "f", VCodec: "avc1", Height: 100 + i, Filesize: 1,
		})
	}
	if got := ProjectFormats(raw, 15); len(got) != 15 {
		t.Fatalf("expected cap at 15, got %d", len(got))
	}
}

func TestIsDirectHTTP(t *testing.T) {
	tests := []struct {
		name string
		f    model.FormatInfo
		want bool
	}{
		{name: "https with audio", f: model.FormatInfo{HasAudio: true, URL: "http://x", Protocol: "https"}, want: true},
		{name: "empty protocol", f: model.FormatInfo{HasAudio: true, URL: "http://x"}, want: true},
		{name: "no audio", f: model.FormatInfo{URL: "http://x", Protocol: "https"}, want: false},
		{name: "hls", f: model.FormatInfo{HasAudio: true, URL: "http://x", Protocol: "m3u8_native"}, want: false},
		{name: "no url", f: model.FormatInfo{HasAudio: true, Protocol: "https"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDirectHTTP(&tt.f); got != tt.want {
				t.Fatalf("IsDirectHTTP = %v, want %v", got, tt.want)
			}
		})
	}
}
