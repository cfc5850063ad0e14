package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"vgrab/internal/model"
	"vgrab/internal/ytdlp"
)

func TestDirectDownload(t *testing.T) {
	body := []byte("fake video payload")
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write(body)
	}))
	defer srv.Close()

	cfg := &model.Config{UserAgent: "test-agent", Referer: "https://www.google.com/"}
	f := &model.FormatInfo{
		FormatID:  "22",
		Extension: "mp4",
		HasAudio:  true,
		URL:       srv.URL + "/video",
		Filesize:  int64(len(body)),
	}

	dir := t.TempDir()
	var lastProgress ytdlp.Progress
	path, err := DirectDownload(context.Background(), f, "My Video: Part 1?", dir, cfg, func(p ytdlp.Progress) {
		lastProgress = p
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(path) != "My Video_ Part 1_.mp4" {
		t.Fatalf("filename not sanitised: %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != string(body) {
		t.Fatalf("downloaded content wrong: %v %q", err, data)
	}
	if gotUA != "test-agent" || gotReferer != "https://www.google.com/" {
		t.Fatalf("headers not set: UA=%q Referer=%q", gotUA, gotReferer)
	}
	if lastProgress.Percentage != 100 {
		t.Fatalf("final progress = %v, want 100", lastProgress.Percentage)
	}
}

func TestDirectDownloadRejectsManifest(t *testing.T) {
	f := &model.FormatInfo{FormatID: "hls", HasAudio: true, URL: "http://x", Protocol: "m3u8_native"}
	if _, err := DirectDownload(context.Background(), f, "t", t.TempDir(), &model.Config{}, nil); err == nil {
		t.Fatal("expected error for manifest format")
	}
}

func TestDirectDownloadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	f := &model.FormatInfo{FormatID: "22", Extension: "mp4", HasAudio: true, URL: srv.URL}
	if _, err := DirectDownload(context.Background(), f, "t", t.TempDir(), &model.Config{}, nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
