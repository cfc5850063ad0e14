package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"vgrab/internal/helpers"
	"vgrab/internal/model"
)

// Progress is a snapshot of an in-flight download, fed to the caller's
// progress callback as yt-dlp emits progress lines.
type Progress struct {
	Percentage float64
	Speed      float64 // bytes per second
	Downloaded int64
	Total      int64
}

// Extractor is the part of the yt-dlp client the HTTP server and CLI
// consume; tests substitute their own.
type Extractor interface {
	ExtractInfo(ctx context.Context, rawURL string) (*model.VideoInfo, error)
	Download(ctx context.Context, req *model.DownloadRequest, onProgress func(Progress)) (string, error)
}

// Client shells out to the yt-dlp binary.
type Client struct {
	Binary string
	Cfg    *model.Config
}

func NewClient(binary string, cfg *model.Config) *Client {
	return &Client{Binary: binary, Cfg: cfg}
}

// commonArgs apply to both metadata extraction and downloads.
func (c *Client) commonArgs() []string {
	return []string{
		"--no-warnings",
		"--retries", strconv.Itoa(c.Cfg.Retries),
		"--fragment-retries", strconv.Itoa(c.Cfg.FragmentRetries),
		"--socket-timeout", strconv.Itoa(c.Cfg.SocketTimeout),
		"--user-agent", c.Cfg.UserAgent,
		"--referer", c.Cfg.Referer,
	}
}

// rawInfo mirrors the subset of yt-dlp's -J output we use.
type rawInfo struct {
	Title       string      `json:"title"`
	Duration    float64     `json:"duration"`
	Uploader    string      `json:"uploader"`
	Channel     string      `json:"channel"`
	UploadDate  string      `json:"upload_date"`
	ViewCount   int64       `json:"view_count"`
	Description string      `json:"description"`
	Thumbnail   string      `json:"thumbnail"`
	WebpageURL  string      `json:"webpage_url"`
	Extractor   string      `json:"extractor_key"`
	Formats     []rawFormat `json:"formats"`
}

// ExtractInfo runs yt-dlp -J and reshapes the result.
func (c *Client) ExtractInfo(ctx context.Context, rawURL string) (*model.VideoInfo, error) {
	if !IsValidURL(rawURL) {
		return nil, model.ErrInvalidURL
	}
	cleaned := CleanURL(rawURL)

	args := append([]string{"-J", "--no-playlist"}, c.commonArgs()...)
	args = append(args, cleaned)

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s", TranslateError(cleaned, stderr.String()))
	}

	out := stdout.Bytes()
	// Probe loosely before committing to the typed decode; playlists and
	// multi-video pages come back with a different shape.
	probe := gjson.GetBytes(out, "_type")
	if probe.String() == "playlist" || probe.String() == "multi_video" {
		entries := gjson.GetBytes(out, "entries.#").Int()
		return &model.VideoInfo{
			Title:      gjson.GetBytes(out, "title").String(),
			WebpageURL: cleaned,
			IsPlaylist: true,
			Site:       SiteName(cleaned),
		}, fmt.Errorf("this URL is a playlist with %d entries; paste a single video URL", entries)
	}

	var info rawInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse video info: %w", err)
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}

	vi := &model.VideoInfo{
		Title:       info.Title,
		Duration:    int64(info.Duration),
		DurationStr: FormatDuration(int64(info.Duration)),
		Uploader:    uploader,
		UploadDate:  info.UploadDate,
		ViewCount:   info.ViewCount,
		Description: TruncateDescription(info.Description),
		Thumbnail:   info.Thumbnail,
		WebpageURL:  cleaned,
		Extractor:   info.Extractor,
		Site:        SiteName(cleaned),
		Formats:     ProjectFormats(info.Formats, c.Cfg.MaxFormats),
	}
	if vi.Title == "" {
		vi.Title = "Untitled"
	}
	if len(vi.Formats) == 0 {
		return vi, model.ErrNoFormats
	}

	// HLS-only extractors report no sizes at all; estimate from the
	// master playlist so the menu is not a column of "Unknown".
	fillHlsSizes(ctx, vi, c.Cfg)

	return vi, nil
}

// sanitizeOutputName makes a client-supplied filename safe to splice into
// the yt-dlp -o template: path separators cannot escape the -P directory and
// percent signs cannot inject template fields.
func sanitizeOutputName(name string) string {
	name = strings.NewReplacer("%", "", "\\", "_").Replace(name)
	name = helpers.Sanitise(name)
	return strings.Trim(name, ". ")
}

// progressPrefix tags machine-readable progress lines on stdout.
const progressPrefix = "PROG"

// Both total fields are requested: plain HTTP downloads report total_bytes
// and leave the estimate NA, fragmented downloads the other way around.
var progressTemplate = fmt.Sprintf(
	"download:%s %%(progress.downloaded_bytes)s %%(progress.total_bytes)s %%(progress.total_bytes_estimate)s %%(progress.speed)s\n",
	progressPrefix,
)

// Download fetches a video with yt-dlp, streaming progress to onProgress,
// and returns the final file path printed by --print after_move:filepath.
func (c *Client) Download(ctx context.Context, req *model.DownloadRequest, onProgress func(Progress)) (string, error) {
	if !IsValidURL(req.URL) {
		return "", model.ErrInvalidURL
	}
	cleaned := CleanURL(req.URL)

	outTemplate := "%(title)s.%(ext)s"
	if name := sanitizeOutputName(req.Filename); name != "" {
		outTemplate = name + ".%(ext)s"
	}

	args := []string{
		"-f", BuildFormatSelector(req.FormatID),
		"-o", outTemplate,
		"-P", req.OutPath,
		"--no-playlist",
		"--quiet",
		"--newline",
		"--progress-template", progressTemplate,
		"--merge-output-format", c.Cfg.MergeContainer,
		"--postprocessor-args", "ffmpeg:-c:v copy -c:a aac -b:a 128k -movflags +faststart",
		"--print", "after_move:filepath",
	}
	args = append(args, c.commonArgs()...)
	args = append(args, cleaned)

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start yt-dlp: %w", err)
	}

	var finalPath string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if p, ok := parseProgressLine(line); ok {
			if onProgress != nil {
				onProgress(p)
			}
			continue
		}
		// With --quiet, the only non-progress stdout line is the
		// after_move filepath.
		finalPath = line
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("%s", TranslateError(cleaned, stderr.String()))
	}
	if finalPath == "" {
		return "", fmt.Errorf("download finished but yt-dlp reported no output file")
	}
	if onProgress != nil {
		onProgress(Progress{Percentage: 100})
	}
	return finalPath, nil
}

// parseProgressLine decodes one "PROG <downloaded> <total> <estimate>
// <speed>" line. yt-dlp prints NA for fields it does not know; the exact
// total wins over the estimate when both are present.
func parseProgressLine(line string) (Progress, bool) {
	if !strings.HasPrefix(line, progressPrefix+" ") {
		return Progress{}, false
	}
	fields := strings.Fields(line[len(progressPrefix)+1:])
	if len(fields) < 4 {
		return Progress{}, false
	}
	var p Progress
	p.Downloaded = parseProgressNumber(fields[0])
	p.Total = parseProgressNumber(fields[1])
	if p.Total == 0 {
		p.Total = parseProgressNumber(fields[2])
	}
	p.Speed = float64(parseProgressNumber(fields[3]))
	if p.Total > 0 {
		p.Percentage = float64(p.Downloaded) / float64(p.Total) * 100
	}
	return p, true
}

func parseProgressNumber(s string) int64 {
	if s == "NA" || s == "None" || s == "" {
		return 0
	}
	// Floats show up for byte estimates.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
