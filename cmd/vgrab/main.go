// vgrab downloads videos from hundreds of sites through yt-dlp, as a
// terminal tool or as a small web service.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"

	"vgrab/internal/archive"
	"vgrab/internal/config"
	"vgrab/internal/download"
	"vgrab/internal/helpers"
	"vgrab/internal/model"
	"vgrab/internal/notify"
	"vgrab/internal/runtime"
	"vgrab/internal/server"
	"vgrab/internal/ui"
	"vgrab/internal/ytdlp"
)

func handleErr(errText string, err error, fatal bool) {
	if err == nil {
		return
	}
	ui.PrintError(errText + "\n" + err.Error())
	if fatal {
		os.Exit(1)
	}
}

func parseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

func printEnvSummary(cfg *model.Config, binary string) {
	ui.PrintHeader("vgrab")
	if config.LoadedConfigPath != "" {
		ui.PrintKeyValue("Config", config.LoadedConfigPath, ui.ColorCyan)
	} else {
		ui.PrintKeyValue("Config", "defaults (no config.json found)", ui.ColorYellow)
	}
	ui.PrintKeyValue("yt-dlp", binary, ui.ColorCyan)
	ui.PrintKeyValue("Downloads", cfg.DownloadPath, ui.ColorCyan)
	if archive.Enabled(cfg) {
		ui.PrintKeyValue("Archive", "b2:"+cfg.B2Bucket, ui.ColorCyan)
	}
	if cfg.GotifyURL != "" {
		ui.PrintKeyValue("Notify", "gotify", ui.ColorCyan)
	}
	ui.PrintDivider()
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "help" {
		os.Args[1] = "--help"
	}
	args := parseArgs()

	if args.Status {
		runtime.PrintStatus()
		return
	}

	// First run: offer to create a config before anything else.
	if !config.AnyConfigExists() && !args.Serve {
		if err := config.PromptForConfig(); err != nil {
			handleErr("Failed to create config.", err, true)
		}
	}

	cfg, err := config.ReadConfig()
	if err != nil {
		handleErr("Failed to read config.", err, true)
	}
	if args.OutPath != "" {
		cfg.DownloadPath = args.OutPath
	}
	if args.Listen != "" {
		cfg.ListenAddr = args.Listen
	}
	if err := config.Validate(cfg); err != nil {
		handleErr("Invalid config.", err, true)
	}

	binary, err := config.ResolveYtdlpBinary(cfg)
	if err != nil {
		handleErr("yt-dlp not found. Install it or set ytdlpPath in config.json.", err, true)
	}

	extractor := ytdlp.NewClient(binary, cfg)
	manager := download.NewManager(extractor, cfg)

	if args.Serve {
		runServer(cfg, extractor, manager)
		return
	}

	if len(args.Urls) == 0 {
		ui.PrintError("No URLs given. Run with --help for usage.")
		os.Exit(1)
	}

	printEnvSummary(cfg, binary)
	runtime.InitStatus()

	urls, err := helpers.ProcessUrls(args.Urls)
	if err != nil {
		handleErr("Failed to process URL list.", err, true)
	}
	if args.Filename != "" && len(urls) > 1 {
		ui.PrintWarning("--filename is ignored when downloading multiple URLs")
		args.Filename = ""
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total := len(urls)
	for num, rawURL := range urls {
		fmt.Printf("URL %d of %d:\n", num+1, total)
		if err := processURL(ctx, cfg, extractor, manager, args, rawURL); err != nil {
			if ctx.Err() != nil {
				ui.PrintWarning("Interrupted.")
				break
			}
			ui.PrintError(err.Error())
			_ = notify.DownloadFailed(context.Background(), cfg, rawURL, err)
		}
	}

	state := "done"
	if ui.RunErrorCount > 0 {
		state = "failed"
	}
	runtime.FinalizeStatus(state, ui.RunErrorCount, ui.RunWarningCount)
}

func runServer(cfg *model.Config, extractor ytdlp.Extractor, manager *download.Manager) {
	shutdownTracing, err := server.InitTracing("vgrab")
	if err != nil {
		handleErr("Failed to initialise tracing.", err, true)
	}
	defer shutdownTracing()

	manager.OnComplete = func(path string) {
		_ = notify.DownloadComplete(context.Background(), cfg, path)
		archiveFile(context.Background(), cfg, path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Listening on " + cfg.ListenAddr)
	if err := server.New(cfg, extractor, manager).Start(ctx); err != nil {
		handleErr("Server failed.", err, true)
	}
}

// processURL runs the interactive flow for one URL: show info, pick a
// format, download.
func processURL(ctx context.Context, cfg *model.Config, extractor ytdlp.Extractor, manager *download.Manager, args *model.Args, rawURL string) error {
	if !ytdlp.IsValidURL(rawURL) {
		return fmt.Errorf("%w: %s", model.ErrInvalidURL, rawURL)
	}

	ui.PrintInfo("Fetching video info from " + ytdlp.SiteName(rawURL) + "...")
	info, err := extractor.ExtractInfo(ctx, rawURL)
	if err != nil {
		return err
	}
	printVideoInfo(info)

	if args.InfoOnly {
		return nil
	}

	formatID := args.Format
	if formatID == "" {
		formatID = cfg.PreferredFormat
	}
	if formatID == "" {
		formatID, err = promptFormat(info)
		if err != nil {
			return err
		}
	}

	req := &model.DownloadRequest{
		URL:      rawURL,
		FormatID: formatID,
		Filename: args.Filename,
		OutPath:  cfg.DownloadPath,
	}

	label := ui.TruncateWithEllipsis(info.Title, 30)
	onProgress := func(p ytdlp.Progress) {
		ui.RenderProgress(label, int(p.Percentage),
			humanize.Bytes(uint64(p.Speed)),
			humanize.Bytes(uint64(p.Downloaded)),
			humanize.Bytes(uint64(p.Total)),
			func(label string, percentage int, speed, current, total string) {
				runtime.UpdateProgress(label, percentage, speed, current, total,
					ui.RunErrorCount, ui.RunWarningCount)
			})
	}

	var path string
	// Progressive formats with audio go straight over HTTP; everything
	// else runs through yt-dlp so merging and HLS work.
	if chosen := ytdlp.FindFormat(info.Formats, formatID); chosen != nil && ytdlp.IsDirectHTTP(chosen) {
		ui.PrintDownload("Downloading directly (no remux needed)...")
		path, err = download.DirectDownload(ctx, chosen, info.Title, cfg.DownloadPath, cfg, onProgress)
	} else {
		ui.PrintDownload("Downloading with yt-dlp...")
		path, err = manager.Run(ctx, req, onProgress)
	}
	fmt.Println("")
	if err != nil {
		return err
	}

	ui.PrintSuccess("Saved " + path)
	_ = notify.DownloadComplete(context.Background(), cfg, path)
	archiveFile(ctx, cfg, path)
	return nil
}

func printVideoInfo(info *model.VideoInfo) {
	ui.PrintVideo(info.Title)
	ui.PrintKeyValue("Duration", info.DurationStr, ui.ColorCyan)
	if info.Uploader != "" {
		ui.PrintKeyValue("Uploader", info.Uploader, ui.ColorCyan)
	}
	if info.ViewCount > 0 {
		ui.PrintKeyValue("Views", humanize.Comma(info.ViewCount), ui.ColorCyan)
	}
	ui.PrintKeyValue("Site", info.Site, ui.ColorCyan)
}

// menuOffset is the number of pseudo-format entries shown before the real
// formats in the selection menu.
const menuOffset = 3

func printFormatMenu(info *model.VideoInfo) {
	ui.PrintSection("Available formats")
	table := ui.NewTable([]ui.TableColumn{
		{Header: "#", Width: 3, Align: "right"},
		{Header: "Resolution", Width: 16},
		{Header: "Ext", Width: 5},
		{Header: "Size", Width: 10, Align: "right"},
		{Header: "Audio", Width: 14},
		{Header: "Note", Width: 18},
	})
	table.AddRow("0", "Best available", "auto", "-", "-", "up to 1080p")
	table.AddRow("1", "Best video+audio", "mp4", "-", "-", "merged")
	table.AddRow("2", "Compatible", "mp4", "-", "-", "up to 720p")
	for i := range info.Formats {
		f := &info.Formats[i]
		table.AddRow(
			strconv.Itoa(i+menuOffset),
			f.Resolution,
			strings.ToUpper(f.Extension),
			f.FileSize,
			ui.AudioIndicator(f.HasAudio),
			f.FormatNote,
		)
	}
	table.Print()
}

func promptFormat(info *model.VideoInfo) (string, error) {
	printFormatMenu(info)
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("Pick a format [0-%d, Enter = 0]: ", len(info.Formats)+menuOffset-1)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return ytdlp.FormatBest, nil
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 0 || choice >= len(info.Formats)+menuOffset {
			ui.PrintWarning("Not a valid choice, try again.")
			continue
		}
		switch choice {
		case 0:
			return ytdlp.FormatBest, nil
		case 1:
			return ytdlp.FormatBestAudio, nil
		case 2:
			return ytdlp.FormatCompatible, nil
		default:
			return info.Formats[choice-menuOffset].FormatID, nil
		}
	}
}

func archiveFile(ctx context.Context, cfg *model.Config, path string) {
	if !archive.Enabled(cfg) {
		return
	}
	arc, err := archive.New(ctx, cfg)
	if err != nil {
		ui.PrintWarning("Archive setup failed: " + err.Error())
		return
	}
	ui.PrintInfo("Uploading to " + arc.String() + "...")
	if err := arc.Upload(ctx, path); err != nil {
		ui.PrintWarning("Archive upload failed: " + err.Error())
		return
	}
	ui.PrintSuccess("Archived " + path)
}
