package youtube

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

// FFmpeg is the media processor used after a fetch: muxing split streams,
// remuxing into mp4 and transcoding audio to mp3.
type FFmpeg struct {
	Path string
}

func NewFFmpeg(path string) *FFmpeg {
	return &FFmpeg{Path: path}
}

func muxArgs(video, audio, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", utils.AudioBitrate,
		"-movflags", "+faststart",
		"-y", out,
	}
}

func remuxArgs(in, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", in,
		"-map", "0:v?", "-map", "0:a?",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", utils.AudioBitrate,
		"-movflags", "+faststart",
		"-y", out,
	}
}

func transcodeArgs(in, out, bitrate string) []string {
	if bitrate == "" {
		bitrate = utils.AudioBitrate
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", in,
		"-vn",
		"-c:a", "libmp3lame", "-b:a", bitrate,
		"-y", out,
	}
}

func (f *FFmpeg) run(ctx context.Context, op string, args []string) error {
	if f == nil || f.Path == "" {
		return fmt.Errorf("%w: ffmpeg not available; %s", utils.ErrProcessing, utils.ProcessingHint)
	}
	cmd := exec.CommandContext(ctx, f.Path, args...)
	log.Debug().Str("op", "youtube/ffmpeg").Msgf("Executing ffmpeg %s: %s", op, cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: ffmpeg %s: %v: %s", utils.ErrProcessing, op, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Mux combines a video-only and an audio-only file into one mp4.
func (f *FFmpeg) Mux(ctx context.Context, video, audio, out string) error {
	return f.run(ctx, "mux", muxArgs(video, audio, out))
}

// Remux rewrites a single file into the mp4 container with AAC audio.
func (f *FFmpeg) Remux(ctx context.Context, in, out string) error {
	return f.run(ctx, "remux", remuxArgs(in, out))
}

func (f *FFmpeg) Transcode(ctx context.Context, in, out, bitrate string) error {
	return f.run(ctx, "transcode", transcodeArgs(in, out, bitrate))
}

// Check confirms the binary runs at all.
func (f *FFmpeg) Check(ctx context.Context) error {
	return f.run(ctx, "check", []string{"-hide_banner", "-version"})
}
