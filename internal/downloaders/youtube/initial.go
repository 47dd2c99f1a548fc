package youtube

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

type Config struct {
	YtdlpPath  string
	FFmpegPath string
	Retries    int
	HTTPConfig utils.HTTPClientConfig
	// BinDir receives a downloaded yt-dlp when none is installed.
	BinDir string
}

// Engine drives yt-dlp for probing and fetching media.
type Engine struct {
	ytdlpPath  string
	ffmpegPath string
	retries    int
	httpConfig utils.HTTPClientConfig

	mu    sync.Mutex
	cache map[string]*utils.MediaInfo
}

func NewEngine(cfg Config) (*Engine, error) {
	ytdlpPath, err := EnsureYtdlp(cfg.YtdlpPath, cfg.BinDir, cfg.HTTPConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: error ensuring yt-dlp: %v", utils.ErrFatal, err)
	}
	ffmpegPath, err := EnsureFFmpeg(cfg.FFmpegPath)
	if err != nil {
		// Not fatal: only muxing and audio jobs need it, and those fail
		// individually with a hint.
		log.Warn().Str("op", "youtube/initial").Err(err).Msg("ffmpeg not found")
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = utils.DefaultRetries
	}
	log.Debug().Str("op", "youtube/initial").Msgf("Using yt-dlp at %s, ffmpeg at %q", ytdlpPath, ffmpegPath)
	return &Engine{
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		retries:    retries,
		httpConfig: cfg.HTTPConfig,
		cache:      make(map[string]*utils.MediaInfo),
	}, nil
}

func (e *Engine) FFmpegPath() string {
	return e.ffmpegPath
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func besideExecutable(name string) (string, bool) {
	execPath, err := os.Executable()
	if err != nil {
		return "", false
	}
	candidate := filepath.Join(filepath.Dir(execPath), executableName(name))
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true
	}
	return "", false
}

// EnsureYtdlp resolves yt-dlp from the configured path, $PATH, next to the
// ytpull binary, a previous download in binDir, and finally downloads the
// latest release into binDir.
func EnsureYtdlp(configured, binDir string, httpCfg utils.HTTPClientConfig) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured yt-dlp %s: %v", configured, err)
		}
		return configured, nil
	}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		return path, nil
	}
	if path, ok := besideExecutable("yt-dlp"); ok {
		return path, nil
	}
	if binDir == "" {
		binDir = utils.ScratchPrefix + "bin"
	}
	cached := filepath.Join(binDir, executableName("yt-dlp"))
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	log.Info().Str("op", "youtube/initial").Msgf("yt-dlp not found, downloading into %s", binDir)
	return downloadYtdlp(binDir, httpCfg)
}

var commonFFmpegDirs = map[string][]string{
	"windows": {`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`, `C:\Program Files (x86)\ffmpeg\bin`, `D:\ffmpeg\bin`},
	"default": {"/usr/bin", "/usr/local/bin", "/opt/homebrew/bin", "/home/linuxbrew/.linuxbrew/bin"},
}

// EnsureFFmpeg resolves ffmpeg from the configured path, $PATH, next to the
// ytpull binary, then the usual install locations.
func EnsureFFmpeg(configured string) (string, error) {
	if configured != "" {
		if info, err := os.Stat(configured); err == nil {
			if info.IsDir() {
				configured = filepath.Join(configured, executableName("ffmpeg"))
			}
			return configured, nil
		}
		return "", fmt.Errorf("configured ffmpeg %s does not exist", configured)
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path, nil
	}
	if path, ok := besideExecutable("ffmpeg"); ok {
		return path, nil
	}
	dirs := commonFFmpegDirs["default"]
	if runtime.GOOS == "windows" {
		home, _ := os.UserHomeDir()
		dirs = append(commonFFmpegDirs["windows"], filepath.Join(home, "ffmpeg", "bin"))
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, executableName("ffmpeg"))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("ffmpeg not found in PATH, please install manually")
}
