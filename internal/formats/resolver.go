// Package formats turns the engine's raw stream list into a numbered quality
// menu and maps the user's choice to an engine format selector.
package formats

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/prompt"
	"github.com/tanq16/ytpull/internal/utils"
)

type Prober interface {
	Probe(ctx context.Context, url string) (*utils.MediaInfo, error)
}

type Resolver struct {
	Prober Prober
}

func NewResolver(p Prober) *Resolver {
	return &Resolver{Prober: p}
}

// List returns the numbered video menu for a single target. An engine that
// reports no video streams yields ErrNoFormats.
func (r *Resolver) List(ctx context.Context, target utils.Target) ([]utils.FormatOption, *utils.MediaInfo, error) {
	info, err := r.Prober.Probe(ctx, target.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("listing formats for %s: %w", target.URL, err)
	}
	options := Options(info.Streams)
	if len(options) == 0 {
		return nil, info, fmt.Errorf("%s: %w", target.URL, utils.ErrNoFormats)
	}
	log.Debug().Str("op", "formats/list").Msgf("%d menu entries from %d streams for %s", len(options), len(info.Streams), target.URL)
	return options, info, nil
}

// Resolve asks the chooser for one target. Single videos get their real stream
// menu; playlists and channels get the preset menu because entries differ.
func (r *Resolver) Resolve(ctx context.Context, target utils.Target, chooser prompt.Chooser) (utils.Selection, error) {
	if target.Kind != utils.KindVideo {
		return ChoosePreset(chooser, fmt.Sprintf("Choose Resolution Preference for %s", titleCase(string(target.Kind))))
	}
	options, info, err := r.List(ctx, target)
	if err != nil {
		return utils.Selection{}, err
	}
	labels := make([]string, 0, len(options)+1)
	for _, opt := range options {
		labels = append(labels, Describe(opt))
	}
	labels = append(labels, AudioOnlyLabel)
	title := "Available Video Resolutions"
	if info.Title != "" {
		title = fmt.Sprintf("Available Video Resolutions: %s", info.Title)
	}
	idx, err := chooser.Choose(title, labels, 0)
	if err != nil {
		return utils.Selection{}, err
	}
	if idx >= len(options) {
		sel := AudioSelection()
		if best, ok := BestAudio(info.Streams); ok {
			sel.Selector = best.FormatID + "/" + AudioSelector
		}
		return sel, nil
	}
	chosen := options[idx]
	return HeightSelection(chosen.Height, Describe(chosen)), nil
}

// ChoosePreset shows the fixed preset menu, defaulting to 1080p.
func ChoosePreset(chooser prompt.Chooser, title string) (utils.Selection, error) {
	labels := make([]string, len(Presets))
	for i, p := range Presets {
		labels[i] = p.Label
	}
	idx, err := chooser.Choose(title, labels, DefaultPresetAt)
	if err != nil {
		return utils.Selection{}, err
	}
	return Presets[idx].Selection(), nil
}

// Auto is the non-interactive policy: best combined video+audio (optionally
// height-capped) or the best audio stream.
func Auto(audio bool, quality string) (utils.Selection, error) {
	if audio {
		return AudioSelection(), nil
	}
	height, err := ParseQuality(quality)
	if err != nil {
		return utils.Selection{}, err
	}
	return HeightSelection(height, ""), nil
}

// ParseQuality accepts "best", "1080", "1080p", "4k" and friends.
func ParseQuality(quality string) (int, error) {
	q := strings.ToLower(strings.TrimSpace(quality))
	q = strings.TrimSuffix(q, "p")
	switch q {
	case "", "best", "max":
		return 0, nil
	case "4k":
		return 2160, nil
	case "2k":
		return 1440, nil
	}
	var height int
	if _, err := fmt.Sscanf(q, "%d", &height); err != nil || height <= 0 || fmt.Sprint(height) != q {
		return 0, fmt.Errorf("%w: unknown quality %q", utils.ErrInvalidInput, quality)
	}
	return height, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
