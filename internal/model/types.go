package model

import "time"

// Config holds the user's configuration. It is persisted as config.json and
// may be overridden by VGRAB_* environment variables and CLI flags.
type Config struct {
	DownloadPath    string `json:"downloadPath" env:"VGRAB_DOWNLOAD_PATH"`
	PreferredFormat string `json:"preferredFormat,omitempty" env:"VGRAB_PREFERRED_FORMAT"`
	MaxFormats      int    `json:"maxFormats,omitempty"`
	MergeContainer  string `json:"mergeContainer,omitempty"`
	Retries         int    `json:"retries,omitempty"`
	FragmentRetries int    `json:"fragmentRetries,omitempty"`
	SocketTimeout   int    `json:"socketTimeout,omitempty"`
	UserAgent       string `json:"userAgent,omitempty"`
	Referer         string `json:"referer,omitempty"`
	YtdlpPath       string `json:"ytdlpPath,omitempty" env:"VGRAB_YTDLP_PATH"`
	UseYtdlpEnvVar  bool   `json:"useYtdlpEnvVar,omitempty"`

	ListenAddr string  `json:"listenAddr,omitempty" env:"VGRAB_LISTEN_ADDR"`
	StaticDir  string  `json:"staticDir,omitempty"`
	RateLimit  float64 `json:"rateLimit,omitempty"`
	RateBurst  int     `json:"rateBurst,omitempty"`

	B2KeyID           string `json:"b2KeyId,omitempty" env:"VGRAB_B2_KEY_ID"`
	B2AppKey          string `json:"b2AppKey,omitempty" env:"VGRAB_B2_APP_KEY"`
	B2Bucket          string `json:"b2Bucket,omitempty" env:"VGRAB_B2_BUCKET"`
	DeleteAfterUpload bool   `json:"deleteAfterUpload,omitempty"`

	GotifyURL   string `json:"gotifyUrl,omitempty" env:"VGRAB_GOTIFY_URL"`
	GotifyToken string `json:"gotifyToken,omitempty" env:"VGRAB_GOTIFY_TOKEN"`
}

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Urls     []string `arg:"positional" help:"video URLs, or .txt files with one URL per line"`
	Serve    bool     `arg:"-s,--serve" help:"start the HTTP API server instead of downloading"`
	Listen   string   `arg:"-l,--listen" help:"listen address for --serve (overrides config)"`
	Format   string   `arg:"-f,--format" help:"format id, or 'best' (overrides preferredFormat)"`
	OutPath  string   `arg:"-o" help:"where to download to; the path is made if it doesn't exist"`
	Filename string   `arg:"-n,--filename" help:"custom output filename (single URL only)"`
	InfoOnly bool     `arg:"-i,--info" help:"print video info and available formats, don't download"`
	Status   bool     `arg:"--status" help:"print the status of a run in another terminal"`
}

// VideoInfo is the UI-facing projection of one extracted video.
type VideoInfo struct {
	Title       string       `json:"title"`
	Duration    int64        `json:"duration"`
	DurationStr string       `json:"duration_str"`
	Uploader    string       `json:"uploader"`
	UploadDate  string       `json:"upload_date,omitempty"`
	ViewCount   int64        `json:"view_count"`
	Description string       `json:"description"`
	Thumbnail   string       `json:"thumbnail"`
	WebpageURL  string       `json:"webpage_url,omitempty"`
	Extractor   string       `json:"extractor,omitempty"`
	Site        string       `json:"site,omitempty"`
	IsPlaylist  bool         `json:"is_playlist,omitempty"`
	Formats     []FormatInfo `json:"formats"`
}

// FormatInfo is the projection of one downloadable stream variant.
// URL and Protocol are kept for the direct-download fast path but never
// serialized to clients.
type FormatInfo struct {
	FormatID   string `json:"format_id"`
	Resolution string `json:"resolution"`
	Height     int    `json:"height"`
	Width      int    `json:"width"`
	Extension  string `json:"extension"`
	Filesize   int64  `json:"-"`
	FileSize   string `json:"file_size"`
	HasAudio   bool   `json:"has_audio"`
	FormatNote string `json:"format_note"`
	Protocol   string `json:"-"`
	URL        string `json:"-"`
}

// DownloadRequest describes one download job.
type DownloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format"`
	Filename string `json:"filename,omitempty"`
	OutPath  string `json:"-"`
}

// DownloadStatus is a point-in-time snapshot of the manager's current job.
type DownloadStatus struct {
	JobID      string    `json:"job_id,omitempty"`
	InProgress bool      `json:"in_progress"`
	Progress   float64   `json:"progress"`
	Status     string    `json:"status"`
	Filename   string    `json:"filename"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
}

// FileEntry is one file in the downloads directory listing.
type FileEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	SizeStr  string `json:"size_str"`
	Modified int64  `json:"modified"`
}

// RuntimeStatus mirrors DownloadStatus into a JSON file in the user cache
// dir so `vgrab --status` can report on a run from another terminal.
type RuntimeStatus struct {
	PID        int    `json:"pid"`
	State      string `json:"state"`
	StartedAt  string `json:"startedAt"`
	UpdatedAt  string `json:"updatedAt"`
	Label      string `json:"label,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
	Speed      string `json:"speed,omitempty"`
	Current    string `json:"current,omitempty"`
	Total      string `json:"total,omitempty"`
	Errors     int    `json:"errors"`
	Warnings   int    `json:"warnings"`
}
