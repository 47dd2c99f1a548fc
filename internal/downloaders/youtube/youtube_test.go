package youtube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tanq16/ytpull/internal/utils"
)

const videoDump = `{
  "id": "dQw4w9WgXcQ",
  "title": "Some Video",
  "_type": "video",
  "channel": "Some Channel",
  "formats": [
    {"format_id": "sb0", "ext": "mhtml", "vcodec": "none", "acodec": "none", "format_note": "storyboard", "width": 160, "height": 90},
    {"format_id": "251", "ext": "webm", "vcodec": "none", "acodec": "opus", "abr": 135.1, "filesize": 3500000},
    {"format_id": "137", "ext": "mp4", "vcodec": "avc1.640028", "acodec": "none", "width": 1920, "height": 1080, "fps": 30, "filesize": null, "filesize_approx": 41000000},
    {"format_id": "18", "ext": "mp4", "vcodec": "avc1.42001E", "acodec": "mp4a.40.2", "width": 640, "height": 360, "fps": 29.97, "tbr": 500.5}
  ]
}`

func TestDecodeInfoVideo(t *testing.T) {
	info, err := decodeInfo([]byte(videoDump))
	if err != nil {
		t.Fatalf("decodeInfo: %v", err)
	}
	if info.ID != "dQw4w9WgXcQ" || info.Type != "video" || info.IsCollection() {
		t.Errorf("unexpected header %+v", info)
	}
	if info.Uploader != "Some Channel" {
		t.Errorf("uploader should fall back to channel, got %q", info.Uploader)
	}
	if len(info.Streams) != 4 {
		t.Fatalf("expected 4 streams, got %d", len(info.Streams))
	}
	hd := info.Streams[2]
	if hd.Height != 1080 || hd.Width != 1920 || hd.FPS != 30 || hd.Size != 41000000 {
		t.Errorf("approx filesize not used or dims wrong: %+v", hd)
	}
	if !info.Streams[0].IsStoryboard() || !info.Streams[1].IsAudioOnly() {
		t.Errorf("stream classification wrong: %+v", info.Streams[:2])
	}
	if info.Streams[3].FPS != 29.97 || info.Streams[3].TBR != 500.5 {
		t.Errorf("float fields lost: %+v", info.Streams[3])
	}
}

func TestDecodeInfoPlaylist(t *testing.T) {
	dump := `{"id": "PL1", "title": "List", "_type": "playlist", "playlist_count": 42, "entries": [{"id": "a"}]}`
	info, err := decodeInfo([]byte(dump))
	if err != nil {
		t.Fatalf("decodeInfo: %v", err)
	}
	if !info.IsCollection() || info.EntryCount != 42 {
		t.Errorf("expected collection with 42 entries, got %+v", info)
	}

	empty := `{"id": "PL2", "_type": "playlist", "entries": [null]}`
	info, err = decodeInfo([]byte(empty))
	if err != nil {
		t.Fatalf("decodeInfo: %v", err)
	}
	if info.EntryCount != 0 {
		t.Errorf("null entries must not count, got %d", info.EntryCount)
	}
}

func TestDecodeInfoDefaultsAndErrors(t *testing.T) {
	info, err := decodeInfo([]byte(`{"id": "x"}`))
	if err != nil {
		t.Fatalf("decodeInfo: %v", err)
	}
	if info.Type != "video" {
		t.Errorf("missing _type should mean video, got %q", info.Type)
	}
	if _, err := decodeInfo([]byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestClassify(t *testing.T) {
	base := errors.New("exit status 1")
	tests := []struct {
		stderr string
		want   error
	}{
		{"ERROR: [youtube] abc: Private video. Sign in if you've been granted access", utils.ErrNoFormats},
		{"ERROR: [youtube] abc: Video unavailable", utils.ErrNoFormats},
		{"ERROR: [youtube:tab] PLx: The playlist does not exist.", utils.ErrEmptyList},
		{"ERROR: Postprocessing: ffprobe and ffmpeg not found", utils.ErrProcessing},
		{"ERROR: unable to download video data: HTTP Error 403: Forbidden", utils.ErrTransient},
		{"", utils.ErrTransient},
	}
	for _, tt := range tests {
		got := classify(base, tt.stderr)
		if !errors.Is(got, tt.want) {
			t.Errorf("classify(%q) = %v, want %v", tt.stderr, got, tt.want)
		}
	}
	if utils.IsRetryable(classify(base, "ERROR: Video unavailable")) {
		t.Error("unavailable video must not be retryable")
	}
	if !utils.IsRetryable(classify(base, "ERROR: Read timed out")) {
		t.Error("timeouts must be retryable")
	}
}

func TestLastLine(t *testing.T) {
	stderr := "[youtube] abc: Downloading webpage\nERROR: [youtube] abc: Video unavailable\nsome trailer"
	if got := lastLine(stderr, errors.New("x")); got != "[youtube] abc: Video unavailable" {
		t.Errorf("got %q", got)
	}
	if got := lastLine("", errors.New("exit status 1")); got != "exit status 1" {
		t.Errorf("empty stderr should fall back to error, got %q", got)
	}
}

func TestCountErrors(t *testing.T) {
	stderr := "[youtube] a: Downloading webpage\nERROR: [youtube] b: Private video\n  ERROR: [youtube] c: Video unavailable\nWARNING: slow\n"
	if got := countErrors(stderr); got != 2 {
		t.Errorf("countErrors = %d, want 2", got)
	}
	if got := countErrors(""); got != 0 {
		t.Errorf("empty stderr should count 0, got %d", got)
	}
}

func TestReadScratch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, utils.ScratchPrefix+"run-1.paths")
	content := "/out/a.mp4\n\n/out/b.mp4\n/out/a.mp4\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	files := readScratch(path)
	if !slices.Equal(files, []string{"/out/a.mp4", "/out/b.mp4"}) {
		t.Errorf("unexpected files %v", files)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("scratch file should be removed")
	}
	if readScratch(filepath.Join(dir, "missing")) != nil {
		t.Error("missing scratch file should yield nil")
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := muxArgs("v.f137.mp4", "v.f251.webm", "v.mp4")
	if !slices.Contains(args, "aac") || !slices.Contains(args, utils.AudioBitrate) || args[len(args)-1] != "v.mp4" {
		t.Errorf("unexpected mux args %v", args)
	}
	args = transcodeArgs("a.webm", "a.mp3", "")
	if !slices.Contains(args, "libmp3lame") || !slices.Contains(args, "-vn") || !slices.Contains(args, utils.AudioBitrate) {
		t.Errorf("unexpected transcode args %v", args)
	}
	args = remuxArgs("a.webm", "a.mp4")
	if args[len(args)-1] != "a.mp4" || !slices.Contains(args, "copy") {
		t.Errorf("unexpected remux args %v", args)
	}
}

func TestFFmpegMissing(t *testing.T) {
	f := NewFFmpeg("")
	err := f.Transcode(context.Background(), "in.webm", "out.mp3", "")
	if !errors.Is(err, utils.ErrProcessing) {
		t.Errorf("expected processing error, got %v", err)
	}
	if utils.IsRetryable(err) {
		t.Error("processing errors must not be retried")
	}
}

func TestYtdlpReleaseAsset(t *testing.T) {
	if name, err := ytdlpReleaseAsset("linux", "amd64"); err != nil || name != "yt-dlp_linux" {
		t.Errorf("linux/amd64: %q %v", name, err)
	}
	if name, err := ytdlpReleaseAsset("darwin", "arm64"); err != nil || name != "yt-dlp_macos" {
		t.Errorf("darwin/arm64: %q %v", name, err)
	}
	if _, err := ytdlpReleaseAsset("plan9", "386"); err == nil {
		t.Error("expected unsupported platform error")
	}
}

func TestEnsureConfiguredPaths(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "yt-dlp")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if got, err := EnsureYtdlp(bin, "", utils.HTTPClientConfig{}); err != nil || got != bin {
		t.Errorf("EnsureYtdlp = %q, %v", got, err)
	}
	if _, err := EnsureYtdlp(filepath.Join(dir, "nope"), "", utils.HTTPClientConfig{}); err == nil {
		t.Error("missing configured yt-dlp should fail")
	}
	if _, err := EnsureFFmpeg(filepath.Join(dir, "nope")); err == nil {
		t.Error("missing configured ffmpeg should fail")
	}
	got, err := EnsureFFmpeg(dir)
	if err != nil || got != filepath.Join(dir, executableName("ffmpeg")) {
		t.Errorf("directory should resolve to the binary inside, got %q %v", got, err)
	}
}
