package formats

import (
	"fmt"
	"sort"

	"github.com/tanq16/ytpull/internal/utils"
)

const (
	AudioSelector   = "bestaudio/best"
	BestSelector    = "bestvideo*+bestaudio/best"
	AudioOnlyLabel  = "Audio Only (MP3)"
	BestAvailLabel  = "Best Available (No Limit)"
	DefaultPresetAt = 2 // 1080p
)

type Preset struct {
	Label  string
	Height int
	Audio  bool
}

// Presets are offered for playlists, channels and multi-URL runs where the
// per-entry stream list is unknown up front.
var Presets = []Preset{
	{Label: "4K (2160p) - Ultra HD Quality", Height: 2160},
	{Label: "1440p (2K) - High Quality", Height: 1440},
	{Label: "1080p (Full HD) - Standard HD (Recommended)", Height: 1080},
	{Label: "720p (HD) - Basic HD", Height: 720},
	{Label: "480p - Standard Quality", Height: 480},
	{Label: "360p - Lower Quality", Height: 360},
	{Label: BestAvailLabel},
	{Label: AudioOnlyLabel, Audio: true},
}

func (p Preset) Selection() utils.Selection {
	if p.Audio {
		return AudioSelection()
	}
	return HeightSelection(p.Height, p.Label)
}

func ResolutionLabel(height int) string {
	switch {
	case height >= 2160:
		return "4K (2160p)"
	case height >= 1440:
		return "1440p (2K)"
	case height >= 1080:
		return "1080p (Full HD)"
	case height >= 720:
		return "720p (HD)"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	case height >= 240:
		return "240p"
	default:
		return fmt.Sprintf("%dp", height)
	}
}

// HeightSelection caps the video height; zero means no cap.
func HeightSelection(height int, label string) utils.Selection {
	if height <= 0 {
		if label == "" {
			label = BestAvailLabel
		}
		return utils.Selection{Selector: BestSelector, Label: label}
	}
	if label == "" {
		label = ResolutionLabel(height)
	}
	return utils.Selection{
		Selector: fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]/best", height, height),
		Label:    label,
	}
}

func AudioSelection() utils.Selection {
	return utils.Selection{Selector: AudioSelector, AudioOnly: true, Label: AudioOnlyLabel}
}

// Options filters the engine's streams down to a numbered video menu: audio-only
// and storyboard streams are dropped, one entry is kept per resolution label
// (largest estimated size wins, then higher frame rate), and the result is
// sorted by height then frame rate, both descending.
func Options(streams []utils.StreamDescriptor) []utils.FormatOption {
	byLabel := make(map[string]utils.FormatOption)
	for _, s := range streams {
		if !s.HasVideo() || s.IsStoryboard() {
			continue
		}
		opt := utils.FormatOption{
			Label:    ResolutionLabel(s.Height),
			FormatID: s.FormatID,
			Height:   s.Height,
			Width:    s.Width,
			FPS:      s.FPS,
			Size:     s.Size,
			VCodec:   s.VCodec,
			Ext:      s.Ext,
		}
		existing, ok := byLabel[opt.Label]
		if !ok || preferred(opt, existing) {
			byLabel[opt.Label] = opt
		}
	}
	options := make([]utils.FormatOption, 0, len(byLabel))
	for _, opt := range byLabel {
		options = append(options, opt)
	}
	sort.Slice(options, func(i, j int) bool {
		if options[i].Height != options[j].Height {
			return options[i].Height > options[j].Height
		}
		if options[i].FPS != options[j].FPS {
			return options[i].FPS > options[j].FPS
		}
		return options[i].FormatID < options[j].FormatID
	})
	for i := range options {
		options[i].Number = i + 1
	}
	return options
}

func preferred(a, b utils.FormatOption) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.FPS != b.FPS {
		return a.FPS > b.FPS
	}
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return a.FormatID < b.FormatID
}

// BestAudio picks the highest-bitrate audio-only stream.
func BestAudio(streams []utils.StreamDescriptor) (utils.StreamDescriptor, bool) {
	var best utils.StreamDescriptor
	found := false
	for _, s := range streams {
		if !s.IsAudioOnly() {
			continue
		}
		if !found || bitrate(s) > bitrate(best) || (bitrate(s) == bitrate(best) && s.Size > best.Size) {
			best = s
			found = true
		}
	}
	return best, found
}

func bitrate(s utils.StreamDescriptor) float64 {
	if s.ABR > 0 {
		return s.ABR
	}
	return s.TBR
}

// Describe renders one menu line, e.g. "1080p (Full HD) (1920x1080) @ 60fps (~52.3MB)".
func Describe(opt utils.FormatOption) string {
	line := opt.Label
	if opt.Width > 0 {
		line += fmt.Sprintf(" (%dx%d)", opt.Width, opt.Height)
	}
	if opt.FPS > 0 {
		line += fmt.Sprintf(" @ %gfps", opt.FPS)
	}
	if opt.Size > 0 {
		line += fmt.Sprintf(" (~%.1fMB)", float64(opt.Size)/(1024*1024))
	}
	return line
}

func RenderMenu(options []utils.FormatOption) []string {
	lines := make([]string, 0, len(options))
	for _, opt := range options {
		lines = append(lines, fmt.Sprintf("%d. %s", opt.Number, Describe(opt)))
	}
	return lines
}
