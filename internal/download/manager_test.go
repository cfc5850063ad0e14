package download

import (
	"context"
	"errors"
	"testing"
	"time"

	"vgrab/internal/model"
	"vgrab/internal/ytdlp"
)

// stubExtractor blocks in Download until released, so tests can observe the
// in-progress state.
type stubExtractor struct {
	release chan struct{}
	path    string
	err     error
}

func (s *stubExtractor) ExtractInfo(ctx context.Context, rawURL string) (*model.VideoInfo, error) {
	return &model.VideoInfo{Title: "stub"}, nil
}

func (s *stubExtractor) Download(ctx context.Context, req *model.DownloadRequest, onProgress func(ytdlp.Progress)) (string, error) {
	if onProgress != nil {
		onProgress(ytdlp.Progress{Percentage: 42, Speed: 2 << 20})
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.path, s.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerSingleFlight(t *testing.T) {
	stub := &stubExtractor{release: make(chan struct{}), path: "/tmp/v.mp4"}
	m := NewManager(stub, &model.Config{DownloadPath: t.TempDir()})

	req := &model.DownloadRequest{URL: "https://example.com/v/1", OutPath: t.TempDir()}
	jobID, err := m.Start(req)
	if err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if jobID == "" {
		t.Fatal("empty job id")
	}

	if _, err := m.Start(req); !errors.Is(err, model.ErrDownloadInProgress) {
		t.Fatalf("second start should conflict, got %v", err)
	}
	if _, err := m.Run(context.Background(), req, nil); !errors.Is(err, model.ErrDownloadInProgress) {
		t.Fatalf("Run during job should conflict, got %v", err)
	}

	close(stub.release)
	waitFor(t, func() bool { return !m.Status().InProgress })

	st := m.Status()
	if st.JobID != jobID || st.Filename != "/tmp/v.mp4" || st.Progress != 100 {
		t.Fatalf("final status wrong: %+v", st)
	}
	if st.Status != "Download complete!" {
		t.Fatalf("final status line: %q", st.Status)
	}

	// A new download may start once the first finished.
	if _, err := m.Start(req); err != nil {
		t.Fatalf("start after completion failed: %v", err)
	}
}

func TestManagerRejectsInvalidURL(t *testing.T) {
	m := NewManager(&stubExtractor{}, &model.Config{})
	if _, err := m.Start(&model.DownloadRequest{URL: "nope"}); !errors.Is(err, model.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestManagerReportsFailure(t *testing.T) {
	stub := &stubExtractor{err: errors.New("boom")}
	m := NewManager(stub, &model.Config{})

	if _, err := m.Start(&model.DownloadRequest{URL: "https://example.com/v/1"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return !m.Status().InProgress })

	st := m.Status()
	if st.Error != "boom" || st.Status != "Error" {
		t.Fatalf("failure not recorded: %+v", st)
	}
}

func TestManagerProgressLine(t *testing.T) {
	stub := &stubExtractor{release: make(chan struct{}), path: "/tmp/v.mp4"}
	m := NewManager(stub, &model.Config{})

	if _, err := m.Start(&model.DownloadRequest{URL: "https://example.com/v/1"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return m.Status().Progress == 42 })

	if got := m.Status().Status; got != "Downloading: 42.0% - 2.0 MB/s" {
		t.Fatalf("status line: %q", got)
	}
	close(stub.release)
	waitFor(t, func() bool { return !m.Status().InProgress })
}
