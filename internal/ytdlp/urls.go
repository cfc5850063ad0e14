package ytdlp

import (
	"net/url"
	"strings"

	"github.com/tidwall/match"
)

// knownSitePatterns cover the extractors we see most; anything else still
// goes to yt-dlp, which supports far more, but these get nicer site labels.
var knownSitePatterns = map[string]string{
	"*youtube.com*":  "YouTube",
	"*youtu.be*":     "YouTube",
	"*vimeo.com*":    "Vimeo",
	"*twitter.com*":  "Twitter",
	"*x.com*":        "Twitter",
	"*twitch.tv*":    "Twitch",
	"*tiktok.com*":   "TikTok",
	"*dailymotion*":  "Dailymotion",
	"*soundcloud*":   "SoundCloud",
	"*facebook.com*": "Facebook",
	"*instagram.com*": "Instagram",
	"*reddit.com*":   "Reddit",
}

// IsValidURL reports whether s parses as an absolute http(s) URL with a host.
func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// SiteName returns a friendly site label for a URL, falling back to the
// hostname when the site is not in the known set.
func SiteName(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for pattern, name := range knownSitePatterns {
		if match.Match(lower, pattern) {
			return name
		}
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return "Unknown"
}

// trackedParams are query parameters safe to drop: analytics and share
// tracking that some extractors choke on.
var trackedParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
	"si":           true,
	"feature":      true,
}

// CleanURL strips tracking query parameters while leaving everything the
// extractor needs (video ids, timestamps, playlist refs) intact.
func CleanURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for key := range q {
		if trackedParams[strings.ToLower(key)] {
			q.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
