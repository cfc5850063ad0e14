package download

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"vgrab/internal/model"
)

// videoExtensions limit the downloads listing to media files; partial
// fragments and yt-dlp temp files are skipped.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".mov":  true,
	".avi":  true,
	".flv":  true,
	".m4a":  true,
	".mp3":  true,
}

// ListDownloads returns the downloaded files in dir, newest first.
func ListDownloads(dir string) ([]model.FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.FileEntry{}, nil
		}
		return nil, err
	}

	files := make([]model.FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, model.FileEntry{
			Name:     e.Name(),
			Size:     info.Size(),
			SizeStr:  humanize.Bytes(uint64(info.Size())),
			Modified: info.ModTime().Unix(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified > files[j].Modified
	})
	return files, nil
}
