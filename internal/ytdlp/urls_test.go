package ytdlp

import "testing"

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "https", url: "https://youtube.com/watch?v=abc", want: true},
		{name: "http", url: "http://example.com/v/1", want: true},
		{name: "whitespace trimmed", url: "  https://example.com  ", want: true},
		{name: "no scheme", url: "youtube.com/watch?v=abc", want: false},
		{name: "ftp", url: "ftp://example.com/file", want: false},
		{name: "empty", url: "", want: false},
		{name: "scheme only", url: "https://", want: false},
		{name: "garbage", url: "not a url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidURL(tt.url); got != tt.want {
				t.Fatalf("IsValidURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestSiteName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://www.youtube.com/watch?v=abc", want: "YouTube"},
		{url: "https://youtu.be/abc", want: "YouTube"},
		{url: "https://vimeo.com/12345", want: "Vimeo"},
		{url: "https://x.com/user/status/1", want: "Twitter"},
		{url: "https://www.tiktok.com/@user/video/1", want: "TikTok"},
		{url: "https://www.somehost.example/v/1", want: "somehost.example"},
	}

	for _, tt := range tests {
		if got := SiteName(tt.url); got != tt.want {
			t.Fatalf("SiteName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "strips tracking",
			url:  "https://youtube.com/watch?v=abc&utm_source=share&si=xyz",
			want: "https://youtube.com/watch?v=abc",
		},
		{
			name: "keeps video params",
			url:  "https://youtube.com/watch?v=abc&t=120",
			want: "https://youtube.com/watch?v=abc&t=120",
		},
		{
			name: "untouched without tracking",
			url:  "https://vimeo.com/12345",
			want: "https://vimeo.com/12345",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanURL(tt.url); got != tt.want {
				t.Fatalf("CleanURL = %q, want %q", got, tt.want)
			}
		})
	}
}
