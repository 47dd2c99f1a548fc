package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/downloaders/youtube"
	"github.com/tanq16/ytpull/internal/formats"
	"github.com/tanq16/ytpull/internal/input"
	"github.com/tanq16/ytpull/internal/output"
	"github.com/tanq16/ytpull/internal/prompt"
	"github.com/tanq16/ytpull/internal/runner"
	"github.com/tanq16/ytpull/internal/scheduler"
	"github.com/tanq16/ytpull/internal/uploaders/s3"
	"github.com/tanq16/ytpull/internal/utils"
)

type runSettings struct {
	Policy  scheduler.Policy
	Audio   bool
	Quality string
	Workers int
	Output  string
	Chooser prompt.Chooser
	Fixed   map[string]utils.Selection
}

var terminal *prompt.Terminal

// newTerminal shares one stdin reader across every prompt in the process.
func newTerminal() *prompt.Terminal {
	if terminal == nil {
		terminal = prompt.NewTerminal()
	}
	return terminal
}

func httpConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		ProxyURL:  cfg.Proxy,
		UserAgent: utils.ToolUserAgent,
		Headers:   utils.ParseHeaderArgs(cfg.Headers),
	}
}

func newEngine() (*youtube.Engine, error) {
	return youtube.NewEngine(youtube.Config{
		YtdlpPath:  cfg.Tools.Ytdlp,
		FFmpegPath: cfg.Tools.FFmpeg,
		Retries:    cfg.Retries,
		HTTPConfig: httpConfig(),
		BinDir:     utils.ScratchPrefix + "bin",
	})
}

// redirectLogs sends log output to f and returns a func that points the
// logger back at stderr before closing f.
func redirectLogs(f *os.File) func() {
	utils.SetLogOutput(f)
	return func() {
		utils.SetLogOutput(os.Stderr)
		f.Close()
	}
}

// runTargets downloads every parsed target and prints the summary. The
// return value is the process exit code.
func runTargets(ctx context.Context, parsed input.ParseResult, s runSettings) int {
	for _, rej := range parsed.Rejected {
		output.PrintWarning(fmt.Sprintf("Skipping %q: %s", rej.Token, rej.Reason))
	}
	if parsed.Duplicates > 0 {
		output.PrintInfo(fmt.Sprintf("Ignored %d duplicate URL(s)", parsed.Duplicates))
	}
	if len(parsed.Targets) == 0 {
		output.PrintError("No valid YouTube URLs provided")
		return 1
	}
	output.PrintInfo(fmt.Sprintf("Found %s", parsed.Summary()))

	if s.Output == "" {
		s.Output = utils.DefaultOutputRoot
	}
	if err := os.MkdirAll(s.Output, 0755); err != nil {
		output.PrintError(fmt.Sprintf("Error creating output directory: %v", err))
		return 1
	}
	engine, err := newEngine()
	if err != nil {
		output.PrintError(err.Error())
		return 1
	}

	ffmpeg := youtube.NewFFmpeg(engine.FFmpegPath())
	if ffmpeg.Path != "" {
		if err := ffmpeg.Check(ctx); err != nil {
			output.PrintWarning(fmt.Sprintf("ffmpeg at %s is not usable: %v", ffmpeg.Path, err))
		}
	}
	r := runner.New(engine, ffmpeg)
	r.MaxAttempts = cfg.Retries
	r.BaseDelay = cfg.Backoff
	if cfg.S3.Bucket != "" {
		archiver, err := s3.New(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Profile)
		if err != nil {
			output.PrintError(fmt.Sprintf("Error setting up S3 upload: %v", err))
			return 1
		}
		r.Archiver = archiver
	}

	live := output.IsTerminal()
	if live && !cfg.Debug {
		logPath := filepath.Join(s.Output, utils.LogFile)
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			restore := redirectLogs(f)
			defer restore()
		}
	}
	log.Debug().Str("op", "cmd/download").Msgf("Starting %d targets with policy %s", len(parsed.Targets), s.Policy)

	sched := scheduler.New(r, formats.NewResolver(engine))
	results := sched.Run(ctx, parsed.Targets, scheduler.Options{
		Workers:    s.Workers,
		Policy:     s.Policy,
		Audio:      s.Audio,
		Quality:    s.Quality,
		OutputRoot: s.Output,
		Chooser:    s.Chooser,
		Fixed:      s.Fixed,
		Display:    output.NewManager(os.Stdout, live),
	})
	output.PrintSummary(os.Stdout, results, parsed.Rejected, s.Output)
	if results.Failed() > 0 {
		return 1
	}
	return 0
}
