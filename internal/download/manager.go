// Package download runs and tracks video downloads. A Manager allows one
// download at a time and exposes a snapshot of its progress, which both the
// HTTP status endpoint and the CLI status line read.
package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vgrab/internal/model"
	"vgrab/internal/runtime"
	"vgrab/internal/ui"
	"vgrab/internal/ytdlp"
)

// Manager serialises downloads: one in flight, latest result retained.
type Manager struct {
	extractor ytdlp.Extractor
	cfg       *model.Config

	mu     sync.Mutex
	busy   bool
	status model.DownloadStatus

	// OnComplete runs in the download goroutine after a successful
	// download, with the final file path. Used for archive upload and
	// notifications.
	OnComplete func(path string)
}

func NewManager(extractor ytdlp.Extractor, cfg *model.Config) *Manager {
	return &Manager{extractor: extractor, cfg: cfg}
}

// Status returns a copy of the current download state.
func (m *Manager) Status() model.DownloadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start launches a download in the background. It fails immediately with
// ErrDownloadInProgress when one is already running.
func (m *Manager) Start(req *model.DownloadRequest) (string, error) {
	if !ytdlp.IsValidURL(req.URL) {
		return "", model.ErrInvalidURL
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return "", model.ErrDownloadInProgress
	}
	jobID := uuid.NewString()
	m.busy = true
	m.status = model.DownloadStatus{
		JobID:      jobID,
		InProgress: true,
		Status:     "Starting download...",
		StartedAt:  time.Now().UTC(),
	}
	m.mu.Unlock()

	go m.run(jobID, req)
	return jobID, nil
}

// Run performs a download synchronously, for the CLI path. The same
// single-flight rule applies.
func (m *Manager) Run(ctx context.Context, req *model.DownloadRequest, onProgress func(ytdlp.Progress)) (string, error) {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return "", model.ErrDownloadInProgress
	}
	m.busy = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.busy = false
		m.mu.Unlock()
	}()
	return m.extractor.Download(ctx, req, onProgress)
}

func (m *Manager) run(jobID string, req *model.DownloadRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	path, err := m.extractor.Download(ctx, req, func(p ytdlp.Progress) {
		line := fmt.Sprintf("Downloading: %.1f%% - %.1f MB/s", p.Percentage, p.Speed/(1024*1024))
		m.mu.Lock()
		m.status.Progress = p.Percentage
		m.status.Status = line
		m.mu.Unlock()
		runtime.UpdateProgress(req.URL, int(p.Percentage),
			fmt.Sprintf("%.1f MB/s", p.Speed/(1024*1024)),
			fmt.Sprintf("%d", p.Downloaded), fmt.Sprintf("%d", p.Total),
			ui.RunErrorCount, ui.RunWarningCount)
	})

	m.mu.Lock()
	m.busy = false
	if m.status.JobID == jobID {
		m.status.InProgress = false
		if err != nil {
			m.status.Status = "Error"
			m.status.Error = err.Error()
		} else {
			m.status.Progress = 100
			m.status.Status = "Download complete!"
			m.status.Filename = path
		}
	}
	m.mu.Unlock()

	if err == nil && m.OnComplete != nil {
		m.OnComplete(path)
	}
}
