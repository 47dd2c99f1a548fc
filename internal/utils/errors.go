package utils

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoFormats    = errors.New("no downloadable formats (video may be private, removed or region-blocked)")
	ErrEmptyList    = errors.New("appears to be empty or private")
	ErrTransient    = errors.New("transient download error")
	ErrProcessing   = errors.New("media processing failed")
	ErrFatal        = errors.New("fatal error")
)

const ProcessingHint = "verify that ffmpeg is installed and on PATH (or pass --ffmpeg)"

// IsRetryable reports whether another attempt at the same job could succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProcessing) || errors.Is(err, ErrNoFormats) ||
		errors.Is(err, ErrEmptyList) || errors.Is(err, ErrFatal) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	return true
}
