package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/tanq16/ytpull/internal/formats"
	"github.com/tanq16/ytpull/internal/input"
	"github.com/tanq16/ytpull/internal/output"
	"github.com/tanq16/ytpull/internal/scheduler"
	"github.com/tanq16/ytpull/internal/utils"
)

type BatchEntry struct {
	URL     string `yaml:"url"`
	Audio   *bool  `yaml:"audio,omitempty"`
	Quality string `yaml:"quality,omitempty"`
}

type BatchFile struct {
	Output    string       `yaml:"output,omitempty"`
	Workers   int          `yaml:"workers,omitempty"`
	Downloads []BatchEntry `yaml:"downloads"`
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download every URL listed in a YAML file",
		Long: `Download every URL listed in a YAML file, e.g.

  output: media
  workers: 4
  downloads:
    - url: https://youtube.com/watch?v=dQw4w9WgXcQ
    - url: https://youtube.com/playlist?list=PL123
      quality: 720
    - url: https://youtu.be/abc
      audio: true`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Error reading YAML file: %v", err))
				os.Exit(1)
			}
			var batchFile BatchFile
			if err := yaml.Unmarshal(data, &batchFile); err != nil {
				output.PrintError(fmt.Sprintf("Error parsing YAML file: %v", err))
				os.Exit(1)
			}
			settings := runSettings{
				Policy:  scheduler.PolicyAuto,
				Audio:   cfg.Audio,
				Quality: cfg.Quality,
				Workers: cfg.Workers,
				Output:  cfg.Output,
			}
			if batchFile.Output != "" && !cmd.Flags().Changed("output") {
				settings.Output = batchFile.Output
			}
			if batchFile.Workers > 0 && !cmd.Flags().Changed("workers") {
				settings.Workers = utils.ClampWorkers(batchFile.Workers)
			}
			parsed, fixed := buildBatch(batchFile, cfg.Audio, cfg.Quality)
			settings.Fixed = fixed
			os.Exit(runTargets(cmd.Context(), parsed, settings))
		},
	}
	return cmd
}

// buildBatch parses every entry as one input so IDs and order span the whole
// file, and pins a selection for entries that override audio or quality.
func buildBatch(batchFile BatchFile, audio bool, quality string) (input.ParseResult, map[string]utils.Selection) {
	var urls []string
	seen := make(map[string]bool)
	overrides := make(map[string]utils.Selection)
	for _, entry := range batchFile.Downloads {
		url := strings.TrimSpace(entry.URL)
		if url == "" {
			output.PrintWarning("Empty url found in batch file, skipping...")
			continue
		}
		urls = append(urls, url)
		normalized, kind, _, err := input.Classify(url)
		if err != nil {
			continue
		}
		key := input.Identity(normalized, kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		if entry.Audio == nil && entry.Quality == "" {
			continue
		}
		entryAudio, entryQuality := audio, quality
		if entry.Audio != nil {
			entryAudio = *entry.Audio
		}
		if entry.Quality != "" {
			entryQuality = entry.Quality
		}
		sel, err := formats.Auto(entryAudio, entryQuality)
		if err != nil {
			output.PrintWarning(fmt.Sprintf("Ignoring quality for %s: %v", url, err))
			continue
		}
		overrides[key] = sel
	}

	parsed := input.Parse(strings.Join(urls, "\n"))
	fixed := make(map[string]utils.Selection)
	for _, target := range parsed.Targets {
		if sel, ok := overrides[input.Identity(target.URL, target.Kind)]; ok {
			fixed[target.ID] = sel
		}
	}
	return parsed, fixed
}
