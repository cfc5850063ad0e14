package ytdlp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/grafov/m3u8"

	"vgrab/internal/model"
)

const hlsProbeTimeout = 5 * time.Second

// fillHlsSizes estimates filesizes for HLS formats from their playlist
// bandwidth, since yt-dlp reports none for segmented streams. Probing is
// best effort; failures leave the size at "Unknown".
func fillHlsSizes(ctx context.Context, vi *model.VideoInfo, cfg *model.Config) {
	if vi.Duration <= 0 {
		return
	}
	client := &http.Client{Timeout: hlsProbeTimeout}
	for i := range vi.Formats {
		f := &vi.Formats[i]
		if f.Filesize > 0 || f.URL == "" || !strings.Contains(f.Protocol, "m3u8") {
			continue
		}
		bw := probePlaylistBandwidth(ctx, client, f.URL, cfg)
		if bw <= 0 {
			continue
		}
		f.Filesize = int64(bw) / 8 * vi.Duration
		f.FileSize = FormatFilesize(f.Filesize)
	}
}

// probePlaylistBandwidth fetches a playlist URL and returns the highest
// declared variant bandwidth in bits per second, or 0.
func probePlaylistBandwidth(ctx context.Context, client *http.Client, url string, cfg *model.Config) uint32 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Referer", cfg.Referer)
	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0
	}

	playlist, kind, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil || kind != m3u8.MASTER {
		return 0
	}
	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return 0
	}
	var best uint32
	for _, variant := range master.Variants {
		if variant != nil && variant.Bandwidth > best {
			best = variant.Bandwidth
		}
	}
	return best
}
