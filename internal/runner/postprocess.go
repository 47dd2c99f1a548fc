package runner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

// yt-dlp leaves "name.f137.mp4" / "name.f251.webm" behind when it could not
// merge a split selection itself.
var splitPart = regexp.MustCompile(`^(.+)\.f(\d+(?:-[0-9A-Za-z]+)?)\.([0-9A-Za-z]+)$`)

var audioExts = []string{"m4a", "mp3", "opus", "ogg", "aac", "wav", "flac"}

func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// toAudio converts every fetched file to mp3 and removes the intermediate.
func (r *Runner) toAudio(ctx context.Context, job utils.Job, files []string) ([]string, error) {
	var out []string
	for _, file := range files {
		if strings.EqualFold(filepath.Ext(file), "."+utils.AudioCodec) {
			out = append(out, file)
			continue
		}
		proc, err := r.processor()
		if err != nil {
			return out, err
		}
		target := swapExt(file, utils.AudioCodec)
		r.stream(job, "Converting %s to %s", filepath.Base(file), utils.AudioCodec)
		if err := proc.Transcode(ctx, file, target, utils.AudioBitrate); err != nil {
			return out, err
		}
		if err := os.Remove(file); err != nil {
			log.Warn().Str("op", "runner/audio").Err(err).Msgf("Could not remove intermediate %s", file)
		}
		out = append(out, target)
	}
	return out, nil
}

type splitGroup struct {
	base  string
	parts []string
}

// toVideo joins split leftovers and remuxes anything that is not mp4.
func (r *Runner) toVideo(ctx context.Context, job utils.Job, info *utils.MediaInfo, files []string) ([]string, error) {
	var out []string
	var groups []*splitGroup
	byBase := make(map[string]*splitGroup)
	for _, file := range files {
		m := splitPart.FindStringSubmatch(file)
		if m == nil {
			out = append(out, file)
			continue
		}
		g, ok := byBase[m[1]]
		if !ok {
			g = &splitGroup{base: m[1]}
			byBase[m[1]] = g
			groups = append(groups, g)
		}
		g.parts = append(g.parts, file)
	}

	for _, g := range groups {
		if len(g.parts) != 2 {
			out = append(out, g.parts...)
			continue
		}
		proc, err := r.processor()
		if err != nil {
			return out, err
		}
		video, audio := orderParts(g.parts, info)
		target := g.base + "." + utils.VideoContainer
		r.stream(job, "Merging %s", filepath.Base(target))
		if err := proc.Mux(ctx, video, audio, target); err != nil {
			return out, err
		}
		for _, part := range g.parts {
			if err := os.Remove(part); err != nil {
				log.Warn().Str("op", "runner/video").Err(err).Msgf("Could not remove part %s", part)
			}
		}
		out = append(out, target)
	}

	for i, file := range out {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
		if ext == utils.VideoContainer || slices.Contains(audioExts, ext) {
			continue
		}
		proc, err := r.processor()
		if err != nil {
			return out, err
		}
		target := swapExt(file, utils.VideoContainer)
		r.stream(job, "Remuxing %s", filepath.Base(file))
		if err := proc.Remux(ctx, file, target); err != nil {
			return out, err
		}
		if err := os.Remove(file); err != nil {
			log.Warn().Str("op", "runner/video").Err(err).Msgf("Could not remove intermediate %s", file)
		}
		out[i] = target
	}
	return out, nil
}

// orderParts returns (video, audio). Format IDs from the probe decide when
// known, otherwise the extension does.
func orderParts(parts []string, info *utils.MediaInfo) (string, string) {
	a, b := parts[0], parts[1]
	if isAudioPart(a, info) && !isAudioPart(b, info) {
		return b, a
	}
	return a, b
}

func isAudioPart(path string, info *utils.MediaInfo) bool {
	m := splitPart.FindStringSubmatch(path)
	if m == nil {
		return false
	}
	if info != nil {
		for _, s := range info.Streams {
			if s.FormatID == m[2] {
				return s.IsAudioOnly()
			}
		}
	}
	return slices.Contains(audioExts, strings.ToLower(m[3]))
}
