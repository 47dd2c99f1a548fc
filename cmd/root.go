package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tanq16/ytpull/internal/config"
	"github.com/tanq16/ytpull/internal/input"
	"github.com/tanq16/ytpull/internal/scheduler"
	"github.com/tanq16/ytpull/internal/utils"
)

var (
	outputDir   string
	workers     int
	quality     string
	audioOnly   bool
	interactive bool
	listFormats bool
	debug       bool
	configFile  string
	ytdlpPath   string
	ffmpegPath  string
	proxyURL    string
	retries     int
	headers     []string
	s3Bucket    string
	s3Prefix    string
	s3Profile   string

	cfg config.Config
)

var YtpullVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "ytpull [URL...]",
	Short: "ytpull downloads YouTube videos, playlists, channels and audio",
	Long: `ytpull downloads YouTube videos, playlists, channels and audio through yt-dlp and ffmpeg.

Run without arguments for an interactive session, or pass one or more URLs
(comma or space separated) to download them with the configured defaults.`,
	Version: YtpullVersion,
	Args:    cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if listFormats {
			os.Exit(runFormats(cmd.Context(), args))
		}
		if len(args) == 0 {
			os.Exit(runSession(cmd.Context()))
		}
		settings := runSettings{
			Policy:  scheduler.PolicyAuto,
			Audio:   cfg.Audio,
			Quality: cfg.Quality,
			Workers: cfg.Workers,
			Output:  cfg.Output,
		}
		if interactive {
			settings.Policy = scheduler.PolicyInteractiveEach
			settings.Chooser = newTerminal()
		}
		parsed := input.Parse(strings.Join(args, " "))
		os.Exit(runTargets(cmd.Context(), parsed, settings))
	},
}

// loadConfig merges flags the user set over ytpull.yaml and YTPULL_* values.
func loadConfig(cmd *cobra.Command) error {
	values := make(map[string]any)
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			values[key] = value
		}
	}
	set("output", "output", outputDir)
	set("workers", "workers", workers)
	set("quality", "quality", quality)
	set("audio", "audio", audioOnly)
	set("debug", "debug", debug)
	set("retries", "retries", retries)
	set("proxy", "proxy", proxyURL)
	set("header", "headers", headers)
	set("ytdlp", "tools.ytdlp", ytdlpPath)
	set("ffmpeg", "tools.ffmpeg", ffmpegPath)
	set("s3-bucket", "s3.bucket", s3Bucket)
	set("s3-prefix", "s3.prefix", s3Prefix)
	set("s3-profile", "s3.profile", s3Profile)

	loaded, err := config.Load(config.Overrides{ConfigFile: configFile, Values: values})
	if err != nil {
		return err
	}
	cfg = loaded
	utils.InitLogger(cfg.Debug)
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", utils.DefaultOutputRoot, "Output directory for downloads")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", utils.DefaultWorkers, fmt.Sprintf("Number of concurrent downloads (%d-%d)", utils.MinWorkers, utils.MaxWorkers))
	rootCmd.PersistentFlags().StringVarP(&quality, "quality", "q", "best", "Maximum resolution (best, 2160, 1440, 1080, 720, 480, 360)")
	rootCmd.PersistentFlags().BoolVarP(&audioOnly, "audio", "a", false, "Download audio only and convert to MP3")
	rootCmd.PersistentFlags().IntVarP(&retries, "retries", "r", utils.DefaultRetries, "Attempts per URL before giving up")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS/SOCKS proxy URL passed to yt-dlp")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Cookie: a=b'); can be specified multiple times")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./ytpull.yaml or ~/.config/ytpull/ytpull.yaml)")

	// flags without shorthand
	rootCmd.PersistentFlags().StringVar(&ytdlpPath, "ytdlp", "", "Path to the yt-dlp binary")
	rootCmd.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", "", "Path to the ffmpeg binary or its directory")
	rootCmd.PersistentFlags().StringVar(&s3Bucket, "s3-bucket", "", "Upload finished files to this S3 bucket")
	rootCmd.PersistentFlags().StringVar(&s3Prefix, "s3-prefix", "ytpull", "Key prefix for uploaded files")
	rootCmd.PersistentFlags().StringVar(&s3Profile, "s3-profile", "", "AWS profile used for uploads")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Pick the format for each URL from a menu")
	rootCmd.Flags().BoolVar(&listFormats, "list-formats", false, "Only list available formats for a URL")

	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
}
