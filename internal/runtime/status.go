// Package runtime tracks the state of the current vgrab process in a small
// JSON file under the user cache dir, so `vgrab --status` and external
// watchers can see what a running instance is doing.
package runtime

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vgrab/internal/model"
	"vgrab/internal/ui"
)

var (
	statusMu        sync.Mutex
	statusPath      string
	status          model.RuntimeStatus
	statusLastWrite time.Time
	// Status writes happen a few times a second during a download. If the
	// cache dir fills up or goes read-only, one warning is enough.
	statusWarnOnce sync.Once
)

// CacheDir returns the vgrab cache directory, creating it if needed.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "vgrab")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// StatusPath returns the path of the runtime status JSON file.
func StatusPath() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "runtime-status.json"), nil
}

// InitStatus records this process as running and writes the initial status.
func InitStatus() {
	path, err := StatusPath()
	if err != nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	statusMu.Lock()
	statusPath = path
	status = model.RuntimeStatus{
		PID:       os.Getpid(),
		State:     "running",
		StartedAt: now,
		UpdatedAt: now,
	}
	statusMu.Unlock()
	WriteStatus(true)
}

// UpdateProgress refreshes the download progress fields. Error and warning
// counts come from the caller since ui tracks them.
func UpdateProgress(label string, percentage int, speed, current, total string, errorCount, warningCount int) {
	statusMu.Lock()
	if statusPath == "" {
		statusMu.Unlock()
		return
	}
	status.Label = label
	status.Percentage = percentage
	status.Speed = speed
	status.Current = current
	status.Total = total
	status.Errors = errorCount
	status.Warnings = warningCount
	status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	statusMu.Unlock()
	WriteStatus(false)
}

// FinalizeStatus sets the terminal state ("done", "failed") and writes it.
func FinalizeStatus(state string, errorCount, warningCount int) {
	statusMu.Lock()
	if statusPath == "" {
		statusMu.Unlock()
		return
	}
	status.State = state
	status.Errors = errorCount
	status.Warnings = warningCount
	status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	statusMu.Unlock()
	WriteStatus(true)
}

// WriteStatus persists the current status. Unless forced, writes are
// throttled to one per 250ms.
func WriteStatus(force bool) {
	var (
		path string
		snap model.RuntimeStatus
	)

	statusMu.Lock()
	if statusPath == "" {
		statusMu.Unlock()
		return
	}
	now := time.Now()
	if !force && now.Sub(statusLastWrite) < 250*time.Millisecond {
		statusMu.Unlock()
		return
	}
	statusLastWrite = now
	path = statusPath
	snap = status
	statusMu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	if err := WriteFileAtomic(path, data, 0644); err != nil {
		statusWarnOnce.Do(func() {
			fmt.Fprintf(os.Stderr, "warning: failed to write runtime status: %v\n", err)
		})
	}
}

// PrintStatus reads the status file and renders it for the terminal.
func PrintStatus() {
	st, err := ReadStatus()
	if err != nil {
		path, pathErr := StatusPath()
		if pathErr != nil {
			fmt.Println("No runtime status available")
			return
		}
		if os.IsNotExist(err) {
			fmt.Printf("No runtime status found at %s\n", path)
			return
		}
		fmt.Printf("Runtime status unavailable (%v)\n", err)
		return
	}
	ui.PrintHeader("vgrab Runtime Status")
	stateColor := ui.ColorGreen
	if st.State == "stale" || st.State == "failed" {
		stateColor = ui.ColorYellow
	}
	ui.PrintKeyValue("State", st.State, stateColor)
	ui.PrintKeyValue("PID", fmt.Sprintf("%d", st.PID), ui.ColorCyan)
	ui.PrintKeyValue("Updated", st.UpdatedAt, ui.ColorCyan)
	ui.PrintKeyValue("Progress", fmt.Sprintf("%s %d%%", st.Label, st.Percentage), ui.ColorYellow)
	ui.PrintKeyValue("Rate", st.Speed, ui.ColorYellow)
	ui.PrintKeyValue("Health", fmt.Sprintf("errors=%d warnings=%d", st.Errors, st.Warnings), ui.ColorYellow)
}

// ReadStatus loads the status file, downgrading "running" to "stale" when
// the recorded process is gone.
func ReadStatus() (model.RuntimeStatus, error) {
	path, err := StatusPath()
	if err != nil {
		return model.RuntimeStatus{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RuntimeStatus{}, err
	}
	var st model.RuntimeStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return model.RuntimeStatus{}, err
	}
	if st.State == "running" && st.PID > 0 && !IsProcessAlive(st.PID) {
		st.State = "stale"
		st.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		refreshed, marshalErr := json.MarshalIndent(st, "", "  ")
		if marshalErr == nil {
			_ = WriteFileAtomic(path, refreshed, 0644)
		}
	}
	return st, nil
}

// WriteFileAtomic writes via a temp file and rename so readers never see a
// half-written status.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
