package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vgrab/internal/helpers"
	"vgrab/internal/model"
	"vgrab/internal/ytdlp"
)

// writeCounter tracks bytes written and reports progress on every chunk.
type writeCounter struct {
	Total      int64
	Downloaded int64
	StartTime  int64
	OnProgress func(ytdlp.Progress)
}

func (wc *writeCounter) Write(p []byte) (int, error) {
	var speed int64
	n := len(p)
	wc.Downloaded += int64(n)
	toDivideBy := time.Now().UnixMilli() - wc.StartTime
	if toDivideBy != 0 {
		speed = wc.Downloaded / toDivideBy * 1000
	}
	if wc.OnProgress != nil {
		prog := ytdlp.Progress{
			Downloaded: wc.Downloaded,
			Total:      wc.Total,
			Speed:      float64(speed),
		}
		if wc.Total > 0 {
			prog.Percentage = float64(wc.Downloaded) / float64(wc.Total) * 100
		}
		wc.OnProgress(prog)
	}
	return n, nil
}

// DirectDownload fetches a format that already carries audio over plain
// HTTP, skipping yt-dlp and ffmpeg entirely. Callers pick this path for
// progressive formats where no merge is needed.
func DirectDownload(ctx context.Context, f *model.FormatInfo, title, outDir string, cfg *model.Config, onProgress func(ytdlp.Progress)) (string, error) {
	if !ytdlp.IsDirectHTTP(f) {
		return "", fmt.Errorf("format %s is not directly downloadable", f.FormatID)
	}
	if err := helpers.MakeDirs(outDir); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Referer", cfg.Referer)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video server returned %s", resp.Status)
	}

	name := helpers.Sanitise(title)
	if name == "" {
		name = "video"
	}
	outPath := filepath.Join(outDir, name+"."+f.Extension)

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	defer out.Close()

	total := f.Filesize
	if total == 0 {
		total = resp.ContentLength
	}
	counter := &writeCounter{
		Total:      total,
		StartTime:  time.Now().UnixMilli(),
		OnProgress: onProgress,
	}
	if _, err := io.Copy(out, io.TeeReader(resp.Body, counter)); err != nil {
		os.Remove(outPath)
		return "", err
	}
	return outPath, nil
}
