// Package notify pushes download notifications to a Gotify server.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vgrab/internal/model"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

// Send posts a message to a Gotify server.
// Returns nil immediately if url or token are empty.
func Send(ctx context.Context, serverURL, token, title, message string, priority int) error {
	if serverURL == "" || token == "" {
		return nil
	}

	url := strings.TrimRight(serverURL, "/") + "/message"

	body, err := json.Marshal(map[string]any{
		"title":    title,
		"message":  message,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("gotify: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gotify: create request failed: %w", err)
	}
	req.Header.Set("X-Gotify-Token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gotify: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gotify: server returned %d", resp.StatusCode)
	}
	return nil
}

// DownloadComplete notifies that a file finished downloading. No-op when
// Gotify is not configured.
func DownloadComplete(ctx context.Context, cfg *model.Config, filename string) error {
	return Send(ctx, cfg.GotifyURL, cfg.GotifyToken,
		"Download complete", filename, 4)
}

// DownloadFailed notifies that a download failed.
func DownloadFailed(ctx context.Context, cfg *model.Config, url string, cause error) error {
	return Send(ctx, cfg.GotifyURL, cfg.GotifyToken,
		"Download failed", fmt.Sprintf("%s: %v", url, cause), 7)
}
