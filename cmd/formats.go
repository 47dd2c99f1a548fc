package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/ytpull/internal/formats"
	"github.com/tanq16/ytpull/internal/input"
	"github.com/tanq16/ytpull/internal/output"
	"github.com/tanq16/ytpull/internal/utils"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "formats [URL]",
		Short:   "List available formats for a URL without downloading",
		Aliases: []string{"list-formats", "lf"},
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runFormats(cmd.Context(), args))
		},
	}
}

func runFormats(ctx context.Context, args []string) int {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		answer, err := newTerminal().Ask("Enter YouTube URL: ", "")
		if err != nil {
			return sessionAbort(err)
		}
		raw = answer
	}
	parsed := input.Parse(raw)
	if len(parsed.Targets) == 0 {
		output.PrintError("No valid YouTube URL provided")
		return 1
	}
	target := parsed.Targets[0]

	engine, err := newEngine()
	if err != nil {
		output.PrintError(err.Error())
		return 1
	}
	info, err := engine.Probe(ctx, target.URL)
	if err != nil {
		output.PrintError(fmt.Sprintf("Error fetching formats: %v", err))
		return 1
	}

	fmt.Println()
	if target.Kind != utils.KindVideo || info.IsCollection() {
		output.PrintHeader(fmt.Sprintf("%s: %s", target.Kind, info.Title))
		fmt.Println(output.FInfo(fmt.Sprintf("  %d entries", info.EntryCount)))
		fmt.Println(output.FDebug("  Formats are chosen per entry; available presets:"))
		for i, preset := range formats.Presets {
			fmt.Printf("  %s %s\n", output.FInfo(fmt.Sprintf("%d.", i+1)), preset.Label)
		}
		return 0
	}

	options := formats.Options(info.Streams)
	if len(options) == 0 {
		output.PrintError(utils.ErrNoFormats.Error())
		return 1
	}
	output.PrintHeader(fmt.Sprintf("Available Video Resolutions: %s", info.Title))
	for _, line := range formats.RenderMenu(options) {
		fmt.Println("  " + line)
	}
	if best, ok := formats.BestAudio(info.Streams); ok {
		fmt.Println(output.FDebug(fmt.Sprintf("  Best audio: %s (%s, %s)", best.FormatID, best.Ext, best.ACodec)))
	}
	return 0
}
