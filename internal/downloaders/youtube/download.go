package youtube

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

// Fetch downloads everything the request names and returns the final paths
// of the files yt-dlp produced, read back from the request's scratch file.
func (e *Engine) Fetch(ctx context.Context, req utils.FetchRequest) (utils.FetchResult, error) {
	cmd := e.fetchCommand(req)
	if req.StreamFunc != nil {
		cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			req.StreamFunc(progressLine(&update))
		})
	}
	log.Debug().Str("op", "youtube/download").Msgf("Fetching %s with format %q into %s", req.URL, req.Selector, req.OutputTemplate)

	res, err := cmd.Run(ctx, req.URL)
	files := readScratch(req.ScratchFile)
	if err != nil {
		if ctx.Err() != nil {
			return utils.FetchResult{Files: files}, ctx.Err()
		}
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		log.Error().Str("op", "youtube/download").Err(err).Msgf("yt-dlp failed for %s", req.URL)
		return utils.FetchResult{Files: files, Skipped: countErrors(stderr)}, classify(err, stderr)
	}
	log.Info().Str("op", "youtube/download").Msgf("yt-dlp download completed for %s (%d files)", req.URL, len(files))
	return utils.FetchResult{Files: files}, nil
}

func (e *Engine) fetchCommand(req utils.FetchRequest) *ytdlp.Command {
	retries := strconv.Itoa(e.retries)
	cmd := e.command().
		Format(req.Selector).
		Output(req.OutputTemplate).
		Newline().
		Retries(retries).
		FragmentRetries(retries)
	if req.ScratchFile != "" {
		cmd.PrintToFile("after_move:filepath", req.ScratchFile)
	}
	if e.ffmpegPath != "" {
		cmd.FFmpegLocation(e.ffmpegPath)
	}
	if req.Collection {
		cmd.YesPlaylist().IgnoreErrors()
	} else {
		cmd.NoPlaylist()
	}
	if !req.AudioOnly {
		// Merged output is always mp4 with AAC audio so it plays everywhere.
		cmd.MergeOutputFormat(utils.VideoContainer).
			PostProcessorArgs("Merger+ffmpeg_o:-c:v copy -c:a aac -b:a " + utils.AudioBitrate)
	}
	return cmd
}

func progressLine(update *ytdlp.ProgressUpdate) string {
	title := ""
	if update.Info != nil && update.Info.Title != nil {
		title = *update.Info.Title
	}
	if update.TotalBytes <= 0 {
		return strings.TrimSpace(fmt.Sprintf("%s %s downloaded", title, utils.FormatBytes(uint64(max(update.DownloadedBytes, 0)))))
	}
	percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	line := fmt.Sprintf("%5.1f%% of %s", percent, utils.FormatBytes(uint64(update.TotalBytes)))
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			line += " at " + utils.FormatSpeed(int64(update.DownloadedBytes), elapsed)
		}
	}
	if eta := update.ETA(); eta > 0 {
		line += " ETA " + eta.Round(time.Second).String()
	}
	if title != "" {
		line = title + ": " + line
	}
	return line
}

// countErrors counts the ERROR lines yt-dlp printed, one per failed entry
// when a collection runs with --ignore-errors.
func countErrors(stderr string) int {
	n := 0
	for _, line := range strings.Split(stderr, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "ERROR:") {
			n++
		}
	}
	return n
}

// readScratch returns the distinct non-empty lines of the scratch file and
// removes it.
func readScratch(path string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	os.Remove(path)
	seen := make(map[string]bool)
	var files []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		files = append(files, line)
	}
	return files
}
