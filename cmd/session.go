package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tanq16/ytpull/internal/input"
	"github.com/tanq16/ytpull/internal/output"
	"github.com/tanq16/ytpull/internal/prompt"
	"github.com/tanq16/ytpull/internal/scheduler"
	"github.com/tanq16/ytpull/internal/utils"
)

var sessionModes = []string{
	"MP4 video (best available quality)",
	"MP3 audio (192 kbps)",
	"Choose resolution interactively",
}

// runSession is the no-argument mode: ask for URLs, destination, mode and
// worker count, then download.
func runSession(ctx context.Context) int {
	term := newTerminal()
	output.PrintHeader("ytpull - YouTube downloader")
	fmt.Println(output.FDebug("Videos, playlists, channels and audio. Type 'm' for multi-line URL entry."))
	fmt.Println()

	raw, err := term.Ask("Enter YouTube URL(s): ", "")
	if err != nil {
		return sessionAbort(err)
	}
	if strings.EqualFold(raw, "m") {
		fmt.Println(output.FInfo("Enter one URL per line, empty line to finish"))
		lines, err := term.AskLines("URL")
		if err != nil {
			return sessionAbort(err)
		}
		raw = strings.Join(lines, "\n")
	}
	parsed := input.Parse(raw)
	if len(parsed.Targets) == 0 {
		for _, rej := range parsed.Rejected {
			output.PrintWarning(fmt.Sprintf("Skipping %q: %s", rej.Token, rej.Reason))
		}
		output.PrintError("No valid YouTube URLs provided")
		return 1
	}
	output.PrintSuccess(fmt.Sprintf("Found %s", parsed.Summary()))

	dir, err := term.Ask(fmt.Sprintf("Output directory (default: %s): ", cfg.Output), cfg.Output)
	if err != nil {
		return sessionAbort(err)
	}
	mode, err := term.Choose("Download Mode", sessionModes, 0)
	if err != nil {
		return sessionAbort(err)
	}
	numWorkers := 1
	if len(parsed.Targets) > 1 {
		question := fmt.Sprintf("Concurrent downloads (%d-%d, default %d): ", utils.MinWorkers, utils.MaxWorkers, cfg.Workers)
		numWorkers, err = term.AskInt(question, cfg.Workers, utils.MinWorkers, utils.MaxWorkers)
		if err != nil {
			return sessionAbort(err)
		}
	}

	settings := runSettings{
		Policy:  scheduler.PolicyAuto,
		Quality: cfg.Quality,
		Workers: numWorkers,
		Output:  dir,
	}
	switch mode {
	case 1:
		settings.Audio = true
	case 2:
		settings.Policy = scheduler.PolicyInteractiveOnce
		settings.Chooser = term
	}
	return runTargets(ctx, parsed, settings)
}

func sessionAbort(err error) int {
	if errors.Is(err, prompt.ErrNoInput) {
		fmt.Println()
		output.PrintWarning("No input, exiting")
		return 1
	}
	output.PrintError(err.Error())
	return 1
}
