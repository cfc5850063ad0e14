// Package ytdlp wraps the external yt-dlp binary: extract-info, download,
// format projection and error translation. Everything site-specific lives in
// yt-dlp itself; this package only reshapes its output.
package ytdlp

import (
	"fmt"
	"sort"
	"strings"

	"vgrab/internal/model"
)

// Pseudo-format ids accepted on top of real yt-dlp format ids.
const (
	FormatBest       = "best"
	FormatBestAudio  = "best-with-audio"
	FormatCompatible = "compatible"
)

const descriptionLimit = 200

// BuildFormatSelector turns a requested format id into a yt-dlp selector
// with fallbacks, so an unavailable rung degrades instead of failing.
func BuildFormatSelector(formatID string) string {
	switch formatID {
	case "", FormatBest:
		return "best[height<=1080]/best[height<=720]/best[height<=480]/best"
	case FormatBestAudio:
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	case FormatCompatible:
		return "best[height<=720][ext=mp4]/best[height<=720]/best[ext=mp4]/best"
	default:
		// A concrete format id gets the best audio merged in; video-only
		// ids would otherwise come out silent.
		return fmt.Sprintf("%s+bestaudio/bestaudio/best", formatID)
	}
}

// QualityNote labels a format by height when yt-dlp provides no note of its own.
func QualityNote(height int) string {
	switch {
	case height >= 1080:
		return "High Quality"
	case height >= 720:
		return "Medium Quality"
	case height >= 480:
		return "Standard Quality"
	default:
		return "Low Quality"
	}
}

// FormatFilesize renders a byte count as "X.Y MB", or "Unknown" for zero.
func FormatFilesize(bytes int64) string {
	if bytes <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// FormatDuration renders seconds as HH:MM:SS, or MM:SS under an hour.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "Unknown"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// TruncateDescription caps a description at 200 characters with a trailing
// ellipsis, matching what the web form displays.
func TruncateDescription(desc string) string {
	if desc == "" {
		return ""
	}
	runes := []rune(desc)
	if len(runes) <= descriptionLimit {
		return desc
	}
	return string(runes[:descriptionLimit]) + "..."
}

// rawFormat mirrors one entry of yt-dlp's "formats" array.
type rawFormat struct {
	FormatID   string  `json:"format_id"`
	Resolution string  `json:"resolution"`
	Height     int     `json:"height"`
	Width      int     `json:"width"`
	Ext        string  `json:"ext"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	Filesize   int64   `json:"filesize"`
	FilesizeA  int64   `json:"filesize_approx"`
	FormatNote string  `json:"format_note"`
	Protocol   string  `json:"protocol"`
	TBR        float64 `json:"tbr"`
	URL        string  `json:"url"`
}

// ProjectFormats reshapes yt-dlp's format list for the UI: audio-only
// entries are dropped, sizes and notes are filled in, and the result is
// sorted best-first and capped at maxFormats.
func ProjectFormats(raw []rawFormat, maxFormats int) []model.FormatInfo {
	formats := make([]model.FormatInfo, 0, len(raw))
	for _, f := range raw {
		// Skip audio-only formats; audio is merged in at download time.
		if f.VCodec == "none" {
			continue
		}
		if f.Filesize == 0 && f.FilesizeA == 0 && f.URL == "" {
			continue
		}

		size := f.Filesize
		if size == 0 {
			size = f.FilesizeA
		}

		note := f.FormatNote
		if note == "" && f.Height > 0 {
			note = QualityNote(f.Height)
		}

		resolution := f.Resolution
		if resolution == "" {
			if f.Width > 0 && f.Height > 0 {
				resolution = fmt.Sprintf("%dx%d", f.Width, f.Height)
			} else {
				resolution = "N/A"
			}
		}

		formats = append(formats, model.FormatInfo{
			FormatID:   f.FormatID,
			Resolution: resolution,
			Height:     f.Height,
			Width:      f.Width,
			Extension:  f.Ext,
			Filesize:   size,
			FileSize:   FormatFilesize(size),
			HasAudio:   f.ACodec != "none" && f.ACodec != "",
			FormatNote: note,
			Protocol:   f.Protocol,
			URL:        f.URL,
		})
	}

	// Best first: height descending, formats with audio winning ties.
	sort.SliceStable(formats, func(i, j int) bool {
		if formats[i].Height != formats[j].Height {
			return formats[i].Height > formats[j].Height
		}
		return formats[i].HasAudio && !formats[j].HasAudio
	})

	if maxFormats > 0 && len(formats) > maxFormats {
		formats = formats[:maxFormats]
	}
	return formats
}

// IsDirectHTTP reports whether a format can be fetched with a plain GET,
// i.e. it already carries audio and is not a manifest protocol.
func IsDirectHTTP(f *model.FormatInfo) bool {
	if !f.HasAudio || f.URL == "" {
		return false
	}
	return f.Protocol == "" || f.Protocol == "http" || f.Protocol == "https"
}

// FindFormat returns the projected format matching id, or nil.
func FindFormat(formats []model.FormatInfo, id string) *model.FormatInfo {
	for i := range formats {
		if formats[i].FormatID == id {
			return &formats[i]
		}
	}
	return nil
}

// DescribeFormat renders one format for the CLI menu.
func DescribeFormat(f *model.FormatInfo, audioInfo string) string {
	return fmt.Sprintf("%s (%dp) - %s - %s - %s",
		f.Resolution, f.Height, strings.ToUpper(f.Extension), f.FileSize, audioInfo)
}
