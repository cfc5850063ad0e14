package ytdlp

import (
	"strings"

	"github.com/tidwall/match"
)

// streamingSitePatterns mark hosts that front their media behind rotating
// tokens; a 403 from these usually means the link expired rather than a
// permission problem.
var streamingSitePatterns = []string{
	"*movies4us*",
	"*streaming*",
}

func isStreamingSite(url string) bool {
	lower := strings.ToLower(url)
	for _, p := range streamingSitePatterns {
		if match.Match(lower, p) {
			return true
		}
	}
	return false
}

type errorHint struct {
	needle  string
	message string
}

var errorHints = []errorHint{
	{"Video unavailable", "This video is unavailable. It may have been removed or made private."},
	{"Requested format is not available", "The requested format is not available. Try a different quality option."},
	{"Sign in to confirm your age", "This video is age-restricted and cannot be downloaded."},
	{"No video formats found", "No downloadable video found at this URL."},
	{"Unsupported URL", "This site is not supported."},
}

// TranslateError maps raw yt-dlp stderr output to a message fit for users.
// The original text is returned unchanged when nothing matches.
func TranslateError(url, raw string) string {
	if strings.Contains(raw, "HTTP Error 403") {
		if isStreamingSite(url) {
			return "This streaming site blocks downloads. The video link may have expired; reload the page and try a fresh URL."
		}
		return "Access denied by the video server (HTTP 403). The video may be region-locked or require login."
	}
	for _, h := range errorHints {
		if strings.Contains(raw, h.needle) {
			return h.message
		}
	}
	// Strip the yt-dlp "ERROR:" prefix so the raw fallback reads cleaner.
	if i := strings.Index(raw, "ERROR:"); i >= 0 {
		trimmed := strings.TrimSpace(raw[i+len("ERROR:"):])
		if trimmed != "" {
			if nl := strings.IndexByte(trimmed, '\n'); nl > 0 {
				trimmed = trimmed[:nl]
			}
			return trimmed
		}
	}
	return raw
}
