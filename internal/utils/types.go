package utils

import (
	"strings"
	"time"
)

type Kind string

const (
	KindVideo    Kind = "video"
	KindPlaylist Kind = "playlist"
	KindChannel  Kind = "channel"
)

// Target is one user-supplied URL after parsing. It is never modified once
// the parser hands it out.
type Target struct {
	ID        string
	Index     int
	URL       string
	Kind      Kind
	VideoHint string
}

type FormatOption struct {
	Number   int
	Label    string
	FormatID string
	Height   int
	Width    int
	FPS      float64
	Size     int64
	VCodec   string
	Ext      string
}

// Selection is what gets handed to the engine: a yt-dlp format selector, or
// audio-only mode which always transcodes to mp3.
type Selection struct {
	Selector  string
	AudioOnly bool
	Label     string
}

type Job struct {
	Target     Target
	Selection  Selection
	OutputRoot string
	Worker     int
	StreamFunc func(line string)
}

type JobResult struct {
	TargetID string
	Index    int
	URL      string
	Kind     Kind
	Success  bool
	Err      error
	Message  string
	Files    []string
	Attempts int
	Skipped  int
	Duration time.Duration
}

func (r JobResult) Reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Message
}

// StreamDescriptor is one entry of the engine's format list.
type StreamDescriptor struct {
	FormatID   string
	Ext        string
	VCodec     string
	ACodec     string
	FormatNote string
	Width      int
	Height     int
	FPS        float64
	Size       int64
	ABR        float64
	TBR        float64
}

func (s StreamDescriptor) HasVideo() bool {
	return s.VCodec != "" && s.VCodec != "none" && s.Height > 0
}

func (s StreamDescriptor) IsAudioOnly() bool {
	return (s.VCodec == "none" || s.VCodec == "") && s.ACodec != "" && s.ACodec != "none"
}

func (s StreamDescriptor) IsStoryboard() bool {
	return s.Ext == "mhtml" || strings.HasPrefix(s.FormatID, "sb") || s.FormatNote == "storyboard"
}

type MediaInfo struct {
	ID         string
	Title      string
	Type       string
	Uploader   string
	EntryCount int
	Streams    []StreamDescriptor
}

func (m MediaInfo) IsCollection() bool {
	return m.Type == "playlist" || m.Type == "multi_video"
}

type FetchRequest struct {
	URL            string
	Selector       string
	OutputTemplate string
	AudioOnly      bool
	Collection     bool
	// ScratchFile collects the final paths of everything the engine wrote.
	ScratchFile string
	StreamFunc  func(line string)
}

type FetchResult struct {
	Files []string
	// Skipped counts collection entries the engine reported as failed.
	Skipped int
}
