package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"

	"vgrab/internal/model"
	"vgrab/internal/ui"
)

// LoadedConfigPath tracks which config file was loaded so WriteConfig can
// save to the same location.
var LoadedConfigPath string

// Defaults forwarded to yt-dlp. The retry counts are fixed policy, not a
// backoff scheme of our own.
const (
	DefaultDownloadPath    = "downloads"
	DefaultMaxFormats      = 15
	DefaultMergeContainer  = "mp4"
	DefaultRetries         = 5
	DefaultFragmentRetries = 5
	DefaultSocketTimeout   = 60
	DefaultListenAddr      = ":5000"
	DefaultRateLimit       = 10.0
	DefaultRateBurst       = 20
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultReferer         = "https://www.google.com/"
)

// Defaulted returns a Config populated with defaults.
func Defaulted() *model.Config {
	return &model.Config{
		DownloadPath:    DefaultDownloadPath,
		PreferredFormat: "best",
		MaxFormats:      DefaultMaxFormats,
		MergeContainer:  DefaultMergeContainer,
		Retries:         DefaultRetries,
		FragmentRetries: DefaultFragmentRetries,
		SocketTimeout:   DefaultSocketTimeout,
		UserAgent:       DefaultUserAgent,
		Referer:         DefaultReferer,
		ListenAddr:      DefaultListenAddr,
		StaticDir:       "static",
		RateLimit:       DefaultRateLimit,
		RateBurst:       DefaultRateBurst,
	}
}

// PromptForConfig runs the interactive first-time setup flow.
func PromptForConfig() error {
	scanner := bufio.NewScanner(os.Stdin)
	ui.PrintHeader("First Time Setup")
	ui.PrintInfo("No config.json found. Let's create one!")
	fmt.Println()

	// Download directory
	fmt.Printf("%s%s%s Enter download directory (default: %s): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset, DefaultDownloadPath)
	scanner.Scan()
	downloadPath := strings.TrimSpace(scanner.Text())
	if downloadPath == "" {
		downloadPath = DefaultDownloadPath
	}

	// Preferred format
	fmt.Println()
	ui.PrintSection("Preferred Format")
	formatOptions := []string{
		fmt.Sprintf("best = highest quality up to 1080p %s(recommended)%s", ui.ColorGreen, ui.ColorReset),
		"or any yt-dlp format id; you can always pick per download",
	}
	ui.PrintList(formatOptions, ui.ColorYellow)
	fmt.Printf("\n%s%s%s Enter preferred format (default: best): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	preferred := strings.TrimSpace(scanner.Text())
	if preferred == "" {
		preferred = "best"
	}

	// yt-dlp binary
	fmt.Printf("\n%s%s%s Use yt-dlp from system PATH? [Y/n] (default: Y): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	useEnvStr := strings.ToLower(strings.TrimSpace(scanner.Text()))
	useYtdlpEnvVar := useEnvStr != "n" && useEnvStr != "no"

	cfg := Defaulted()
	cfg.DownloadPath = downloadPath
	cfg.PreferredFormat = preferred
	cfg.UseYtdlpEnvVar = useYtdlpEnvVar

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile("config.json", data, 0600); err != nil {
		return err
	}

	fmt.Println()
	ui.PrintSuccess("config.json created successfully!")
	ui.PrintInfo("You can edit config.json later to change these settings.")
	fmt.Println()
	return nil
}

// AnyConfigExists reports whether a config.json is present in any of the
// search locations.
func AnyConfigExists() bool {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	paths := []string{
		"config.json",
		filepath.Join(homeDir, ".vgrab", "config.json"),
		filepath.Join(homeDir, ".config", "vgrab", "config.json"),
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// ReadConfig loads the config file, trying locations in order:
// ./config.json, ~/.vgrab/config.json, ~/.config/vgrab/config.json.
// A missing file is not an error; defaults are returned instead.
func ReadConfig() (*model.Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		"config.json",
		filepath.Join(homeDir, ".vgrab", "config.json"),
		filepath.Join(homeDir, ".config", "vgrab", "config.json"),
	}

	var data []byte
	var configPath string

	for _, path := range configPaths {
		data, err = os.ReadFile(path)
		if err == nil {
			configPath = path
			break
		}
	}

	cfg := Defaulted()
	if data != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config at %s: %w", configPath, err)
		}
		LoadedConfigPath = configPath
		warnInsecurePerms(configPath)
	}

	// Environment overrides win over the file.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	return cfg, nil
}

// warnInsecurePerms flags config files readable by other users. The config
// may carry B2 and Gotify credentials.
func warnInsecurePerms(configPath string) {
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return
	}
	mode := fileInfo.Mode()
	if mode.Perm()&0077 == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "%s WARNING: Config file has insecure permissions (%04o)\n",
		ui.ColorYellow+ui.SymbolWarning+ui.ColorReset, mode.Perm())
	fmt.Fprintf(os.Stderr, "   File: %s\n", configPath)
	if runtime.GOOS != "windows" {
		if chmodErr := os.Chmod(configPath, 0600); chmodErr != nil {
			fmt.Fprintf(os.Stderr, "   Auto-fix failed: %v\n", chmodErr)
			fmt.Fprintf(os.Stderr, "   Fix manually: chmod 600 %s\n\n", configPath)
		} else {
			fmt.Fprintf(os.Stderr, "   Auto-fix applied: chmod 600 %s\n\n", configPath)
		}
	} else {
		fmt.Fprintf(os.Stderr, "   Windows ACLs in use; skipping chmod auto-fix\n\n")
	}
}

// Validate normalizes paths and checks numeric bounds.
func Validate(cfg *model.Config) error {
	cfg.DownloadPath = strings.TrimSpace(cfg.DownloadPath)
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = DefaultDownloadPath
	}
	if cfg.PreferredFormat == "" {
		cfg.PreferredFormat = "best"
	}
	if cfg.MaxFormats <= 0 {
		cfg.MaxFormats = DefaultMaxFormats
	}
	if cfg.MergeContainer == "" {
		cfg.MergeContainer = DefaultMergeContainer
	}
	if cfg.Retries < 0 || cfg.FragmentRetries < 0 {
		return errors.New("retry counts cannot be negative")
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.FragmentRetries == 0 {
		cfg.FragmentRetries = DefaultFragmentRetries
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = DefaultSocketTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.B2Bucket != "" && (cfg.B2KeyID == "" || cfg.B2AppKey == "") {
		return errors.New("b2Bucket is set but b2KeyId/b2AppKey are missing")
	}
	return nil
}

// ResolveYtdlpBinary locates the yt-dlp binary the same way the user asked
// for it: explicit path from config, system PATH, or a local ./yt-dlp next
// to the executable.
func ResolveYtdlpBinary(cfg *model.Config) (string, error) {
	preferred := strings.TrimSpace(cfg.YtdlpPath)

	// Respect explicit non-default binary names/paths from config.
	if preferred != "" && preferred != "./yt-dlp" && preferred != "yt-dlp" {
		if resolved, err := exec.LookPath(preferred); err == nil {
			return resolved, nil
		}
		if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
			return preferred, nil
		}
		return "", fmt.Errorf("configured yt-dlp binary not found: %s", preferred)
	}

	if cfg.UseYtdlpEnvVar || preferred == "yt-dlp" {
		if resolved, err := exec.LookPath("yt-dlp"); err == nil {
			return resolved, nil
		}
		return "", errors.New("yt-dlp not found in PATH (install yt-dlp or set ytdlpPath to an absolute/local binary path)")
	}

	candidates := []string{"./yt-dlp"}
	if exePath, err := os.Executable(); err == nil {
		exeLocal := filepath.Join(filepath.Dir(exePath), "yt-dlp")
		if exeLocal != "./yt-dlp" {
			candidates = append(candidates, exeLocal)
		}
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	// Fallback: system yt-dlp if available.
	if resolved, err := exec.LookPath("yt-dlp"); err == nil {
		return resolved, nil
	}

	return "", errors.New("yt-dlp binary not found (checked ./yt-dlp and PATH)")
}

// WriteConfig persists the config to the file it was loaded from, falling
// back to ./config.json.
func WriteConfig(cfg *model.Config) error {
	configData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	targetPath := LoadedConfigPath
	if targetPath == "" {
		targetPath = "config.json"
	}

	dir := filepath.Dir(targetPath)
	if dir != "." {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, mkErr)
		}
	}

	if err := os.WriteFile(targetPath, configData, 0600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", targetPath, err)
	}
	return nil
}
