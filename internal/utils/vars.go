package utils

import "time"

const (
	DefaultOutputRoot = "downloads"
	DefaultWorkers    = 3
	MinWorkers        = 1
	MaxWorkers        = 5
	DefaultRetries    = 3
	DefaultBackoff    = 2 * time.Second
	AudioBitrate      = "192k"
	AudioCodec        = "mp3"
	VideoContainer    = "mp4"
	LogFile           = ".ytpull.log"
	ScratchPrefix     = ".ytpull-"
	ToolUserAgent     = "ytpull/dev"
)
