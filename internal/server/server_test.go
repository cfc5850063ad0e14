package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vgrab/internal/download"
	"vgrab/internal/model"
	"vgrab/internal/ytdlp"
)

type fakeExtractor struct {
	info *model.VideoInfo
	err  error
}

func (f *fakeExtractor) ExtractInfo(ctx context.Context, rawURL string) (*model.VideoInfo, error) {
	return f.info, f.err
}

func (f *fakeExtractor) Download(ctx context.Context, req *model.DownloadRequest, onProgress func(ytdlp.Progress)) (string, error) {
	return "/downloads/video.mp4", nil
}

func testServer(t *testing.T, extractor ytdlp.Extractor) (*Server, *model.Config) {
	t.Helper()
	cfg := &model.Config{
		DownloadPath: t.TempDir(),
		StaticDir:    t.TempDir(),
		ListenAddr:   ":0",
		RateLimit:    1000,
		RateBurst:    1000,
	}
	manager := download.NewManager(extractor, cfg)
	return New(cfg, extractor, manager), cfg
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, payload
}

func TestGetInfo(t *testing.T) {
	s, _ := testServer(t, &fakeExtractor{info: &model.VideoInfo{
		Title:       "A Video",
		DurationStr: "02:00",
		Uploader:    "Someone",
		Site:        "YouTube",
		Formats: []model.FormatInfo{
			{FormatID: "22", Resolution: "1280x720", Extension: "mp4", FileSize: "10.0 MB", HasAudio: true, FormatNote: "Medium Quality"},
		},
	}})

	rec, payload := doJSON(t, s, http.MethodPost, "/get_info", `{"url":"https://youtube.com/watch?v=a"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if payload["success"] != true || payload["title"] != "A Video" || payload["duration"] != "02:00" {
		t.Fatalf("payload wrong: %v", payload)
	}
	formats, ok := payload["formats"].([]any)
	if !ok || len(formats) != 1 {
		t.Fatalf("formats missing: %v", payload["formats"])
	}
	f := formats[0].(map[string]any)
	if f["format_id"] != "22" || f["file_size"] != "10.0 MB" {
		t.Fatalf("format fields wrong: %v", f)
	}
	if _, leaked := f["URL"]; leaked {
		t.Fatal("raw stream URL must not be serialized")
	}
}

func TestGetInfoInvalidURL(t *testing.T) {
	s, _ := testServer(t, &fakeExtractor{})
	rec, payload := doJSON(t, s, http.MethodPost, "/get_info", `{"url":"nonsense"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["success"] != false || payload["error"] != model.ErrInvalidURL.Error() {
		t.Fatalf("payload wrong: %v", payload)
	}
}

func TestGetInfoExtractorError(t *testing.T) {
	s, _ := testServer(t, &fakeExtractor{err: context.DeadlineExceeded})
	rec, payload := doJSON(t, s, http.MethodPost, "/get_info", `{"url":"https://example.com/v/1"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["success"] != false {
		t.Fatalf("payload wrong: %v", payload)
	}
}

func TestDownloadConflict(t *testing.T) {
	blocker := make(chan struct{})
	defer close(blocker)
	s, _ := testServer(t, &blockingExtractor{release: blocker})

	rec, payload := doJSON(t, s, http.MethodPost, "/download", `{"url":"https://example.com/v/1","format_id":"best"}`)
	if rec.Code != http.StatusOK || payload["success"] != true {
		t.Fatalf("first download rejected: %d %v", rec.Code, payload)
	}
	if payload["job_id"] == "" {
		t.Fatal("job_id missing")
	}

	rec, payload = doJSON(t, s, http.MethodPost, "/download", `{"url":"https://example.com/v/2","format_id":"best"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second download should conflict, got %d", rec.Code)
	}
	if payload["error"] != model.ErrDownloadInProgress.Error() {
		t.Fatalf("error message wrong: %v", payload["error"])
	}
}

type blockingExtractor struct {
	release chan struct{}
}

func (b *blockingExtractor) ExtractInfo(ctx context.Context, rawURL string) (*model.VideoInfo, error) {
	return nil, nil
}

func (b *blockingExtractor) Download(ctx context.Context, req *model.DownloadRequest, onProgress func(ytdlp.Progress)) (string, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return "/downloads/video.mp4", nil
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := testServer(t, &fakeExtractor{})
	rec, payload := doJSON(t, s, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if payload["in_progress"] != false {
		t.Fatalf("idle manager should not be in progress: %v", payload)
	}
}

func TestDownloadsEndpoint(t *testing.T) {
	s, cfg := testServer(t, &fakeExtractor{})
	if err := os.WriteFile(filepath.Join(cfg.DownloadPath, "clip.mp4"), []byte("x"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	rec, payload := doJSON(t, s, http.MethodGet, "/downloads", "")
	if rec.Code != http.StatusOK || payload["success"] != true {
		t.Fatalf("listing failed: %d %v", rec.Code, payload)
	}
	files := payload["files"].([]any)
	if len(files) != 1 || files[0].(map[string]any)["name"] != "clip.mp4" {
		t.Fatalf("files wrong: %v", files)
	}
}
