package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

type formatJSON struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	FormatNote     string   `json:"format_note"`
	Width          *float64 `json:"width"`
	Height         *float64 `json:"height"`
	FPS            *float64 `json:"fps"`
	Filesize       *float64 `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
	ABR            *float64 `json:"abr"`
	TBR            *float64 `json:"tbr"`
}

type infoJSON struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Type          string            `json:"_type"`
	Uploader      string            `json:"uploader"`
	Channel       string            `json:"channel"`
	PlaylistCount *float64          `json:"playlist_count"`
	Entries       []json.RawMessage `json:"entries"`
	Formats       []formatJSON      `json:"formats"`
}

func num(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// decodeInfo turns yt-dlp's single-JSON dump into a MediaInfo. Null entries
// (unavailable playlist items) don't count towards EntryCount.
func decodeInfo(data []byte) (*utils.MediaInfo, error) {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error decoding yt-dlp output: %v", err)
	}
	info := &utils.MediaInfo{
		ID:       raw.ID,
		Title:    raw.Title,
		Type:     raw.Type,
		Uploader: raw.Uploader,
	}
	if info.Type == "" {
		info.Type = "video"
	}
	if info.Uploader == "" {
		info.Uploader = raw.Channel
	}
	if info.IsCollection() {
		entries := 0
		for _, entry := range raw.Entries {
			if trimmed := strings.TrimSpace(string(entry)); trimmed != "" && trimmed != "null" {
				entries++
			}
		}
		info.EntryCount = entries
		if count := int(num(raw.PlaylistCount)); count > entries {
			info.EntryCount = count
		}
	}
	for _, f := range raw.Formats {
		size := num(f.Filesize)
		if size == 0 {
			size = num(f.FilesizeApprox)
		}
		info.Streams = append(info.Streams, utils.StreamDescriptor{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			FormatNote: f.FormatNote,
			Width:      int(num(f.Width)),
			Height:     int(num(f.Height)),
			FPS:        num(f.FPS),
			Size:       int64(size),
			ABR:        num(f.ABR),
			TBR:        num(f.TBR),
		})
	}
	return info, nil
}

var unavailableMarkers = []string{
	"private video",
	"video unavailable",
	"this video is not available",
	"this video has been removed",
	"members-only",
	"sign in to confirm your age",
	"not available in your country",
	"requested format is not available",
	"no video formats found",
}

var emptyListMarkers = []string{
	"the playlist does not exist",
	"this playlist is private",
	"this channel does not exist",
	"has no videos",
}

// classify maps a yt-dlp failure onto the error taxonomy. Anything that
// does not look permanent is treated as transient.
func classify(err error, stderr string) error {
	text := strings.ToLower(err.Error() + "\n" + stderr)
	for _, marker := range emptyListMarkers {
		if strings.Contains(text, marker) {
			return fmt.Errorf("%w: %s", utils.ErrEmptyList, lastLine(stderr, err))
		}
	}
	for _, marker := range unavailableMarkers {
		if strings.Contains(text, marker) {
			return fmt.Errorf("%w: %s", utils.ErrNoFormats, lastLine(stderr, err))
		}
	}
	if strings.Contains(text, "ffmpeg") && (strings.Contains(text, "postprocessing") || strings.Contains(text, "not found")) {
		return fmt.Errorf("%w: %s; %s", utils.ErrProcessing, lastLine(stderr, err), utils.ProcessingHint)
	}
	return fmt.Errorf("%w: %s", utils.ErrTransient, lastLine(stderr, err))
}

// lastLine picks the most useful line of yt-dlp's stderr, preferring the
// final ERROR: line.
func lastLine(stderr string, err error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return err.Error()
}

func (e *Engine) command() *ytdlp.Command {
	cmd := ytdlp.New().SetExecutable(e.ytdlpPath).NoWarnings()
	if proxy := e.httpConfig.ProxyString(); proxy != "" {
		cmd.Proxy(proxy)
	}
	for key, value := range e.httpConfig.Headers {
		cmd.AddHeaders(key + ":" + value)
	}
	return cmd
}

// Probe asks yt-dlp for metadata without downloading. Collections are
// flattened and only their first item is resolved. Results are cached per
// URL for the lifetime of the engine.
func (e *Engine) Probe(ctx context.Context, url string) (*utils.MediaInfo, error) {
	e.mu.Lock()
	if info, ok := e.cache[url]; ok {
		e.mu.Unlock()
		return info, nil
	}
	e.mu.Unlock()

	cmd := e.command().DumpSingleJSON().SkipDownload().FlatPlaylist().PlaylistItems("1")
	log.Debug().Str("op", "youtube/probe").Msgf("Probing %s", url)
	res, err := cmd.Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		log.Debug().Str("op", "youtube/probe").Err(err).Msgf("Probe failed for %s", url)
		return nil, classify(err, stderr)
	}
	info, err := decodeInfo([]byte(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrTransient, err)
	}
	log.Debug().Str("op", "youtube/probe").Msgf("Probed %s: type=%s streams=%d entries=%d", url, info.Type, len(info.Streams), info.EntryCount)
	e.mu.Lock()
	e.cache[url] = info
	e.mu.Unlock()
	return info, nil
}
