package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

type Engine interface {
	Probe(ctx context.Context, url string) (*utils.MediaInfo, error)
	Fetch(ctx context.Context, req utils.FetchRequest) (utils.FetchResult, error)
}

type Processor interface {
	Mux(ctx context.Context, video, audio, out string) error
	Remux(ctx context.Context, in, out string) error
	Transcode(ctx context.Context, in, out, bitrate string) error
}

// Archiver receives every finished file, e.g. to copy it off-box.
type Archiver interface {
	Archive(ctx context.Context, root, path string) error
}

// Runner executes one job end to end: probe, fetch, post-process.
type Runner struct {
	Engine      Engine
	Processor   Processor
	Archiver    Archiver
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

func New(engine Engine, processor Processor) *Runner {
	return &Runner{
		Engine:      engine,
		Processor:   processor,
		MaxAttempts: utils.DefaultRetries,
		BaseDelay:   utils.DefaultBackoff,
		Sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OutputTemplate is the yt-dlp output template for a target kind.
func OutputTemplate(root string, kind utils.Kind) string {
	switch kind {
	case utils.KindPlaylist:
		return filepath.Join(root, "%(playlist_title)s", "%(playlist_index)s-%(title)s.%(ext)s")
	case utils.KindChannel:
		return filepath.Join(root, "%(uploader)s", "%(upload_date)s-%(title)s.%(ext)s")
	default:
		return filepath.Join(root, "%(title)s.%(ext)s")
	}
}

func ScratchFile(root, jobID string) string {
	return filepath.Join(root, utils.ScratchPrefix+jobID+".paths")
}

func (r *Runner) stream(job utils.Job, format string, args ...any) {
	if job.StreamFunc != nil {
		job.StreamFunc(fmt.Sprintf(format, args...))
	}
}

// Run never returns an error: every outcome, including cancellation, is
// reported in the JobResult.
func (r *Runner) Run(ctx context.Context, job utils.Job) utils.JobResult {
	start := time.Now()
	result := utils.JobResult{
		TargetID: job.Target.ID,
		Index:    job.Target.Index,
		URL:      job.Target.URL,
		Kind:     job.Target.Kind,
	}

	if err := os.MkdirAll(job.OutputRoot, 0755); err != nil {
		result.Err = fmt.Errorf("%w: error creating output directory: %v", utils.ErrFatal, err)
		result.Duration = time.Since(start)
		return result
	}

	maxAttempts := max(r.MaxAttempts, 1)
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	var files []string
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt
		files, result.Skipped, err = r.attempt(ctx, job)
		if err == nil || !utils.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt == maxAttempts {
			break
		}
		delay := time.Duration(attempt) * r.BaseDelay
		log.Debug().Str("op", "runner/run").Err(err).Msgf("Attempt %d/%d failed for %s, retrying in %s", attempt, maxAttempts, job.Target.ID, delay)
		r.stream(job, "Attempt %d failed (%v), retrying in %s", attempt, err, delay)
		if serr := sleep(ctx, delay); serr != nil {
			err = serr
			break
		}
	}
	result.Files = files
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		log.Error().Str("op", "runner/run").Err(err).Msgf("Job %s failed after %d attempt(s)", job.Target.ID, result.Attempts)
		return result
	}

	if r.Archiver != nil {
		for _, file := range files {
			if aerr := r.Archiver.Archive(ctx, job.OutputRoot, file); aerr != nil {
				log.Warn().Str("op", "runner/run").Err(aerr).Msgf("Archiving %s failed", file)
				result.Message = fmt.Sprintf("archive upload failed: %v", aerr)
			}
		}
	}
	result.Success = true
	if result.Message == "" {
		result.Message = fmt.Sprintf("%d file(s) saved", len(files))
		if result.Skipped > 0 {
			result.Message += fmt.Sprintf(", %d entr(y/ies) skipped", result.Skipped)
		}
	}
	log.Info().Str("op", "runner/run").Msgf("Job %s completed with %d file(s)", job.Target.ID, len(files))
	return result
}

// attempt runs one probe/fetch/process cycle. The int is the number of
// collection entries skipped because the engine could not fetch them.
func (r *Runner) attempt(ctx context.Context, job utils.Job) ([]string, int, error) {
	info, err := r.Engine.Probe(ctx, job.Target.URL)
	if err != nil {
		return nil, 0, err
	}
	if err := checkProbe(job.Target, info); err != nil {
		return nil, 0, err
	}

	r.stream(job, "Fetching %s", describe(job, info))
	fetched, err := r.Engine.Fetch(ctx, utils.FetchRequest{
		URL:            job.Target.URL,
		Selector:       job.Selection.Selector,
		OutputTemplate: OutputTemplate(job.OutputRoot, job.Target.Kind),
		AudioOnly:      job.Selection.AudioOnly,
		Collection:     job.Target.Kind != utils.KindVideo,
		ScratchFile:    ScratchFile(job.OutputRoot, job.Target.ID),
		StreamFunc:     job.StreamFunc,
	})
	skipped := 0
	if err != nil {
		// A collection keeps whatever entries made it to disk; only an
		// empty result fails the job.
		if job.Target.Kind == utils.KindVideo || len(fetched.Files) == 0 || ctx.Err() != nil {
			return fetched.Files, 0, err
		}
		skipped = max(fetched.Skipped, 1)
		log.Warn().Str("op", "runner/attempt").Err(err).Msgf("%d entr(y/ies) of %s failed, keeping %d file(s)", skipped, job.Target.ID, len(fetched.Files))
		r.stream(job, "Skipped %d entr(y/ies): %v", skipped, err)
	}
	var files []string
	if job.Selection.AudioOnly {
		files, err = r.toAudio(ctx, job, fetched.Files)
	} else {
		files, err = r.toVideo(ctx, job, info, fetched.Files)
	}
	return files, skipped, err
}

func checkProbe(target utils.Target, info *utils.MediaInfo) error {
	if info == nil {
		return fmt.Errorf("%w: engine returned no metadata", utils.ErrTransient)
	}
	if target.Kind != utils.KindVideo || info.IsCollection() {
		if info.EntryCount == 0 {
			return fmt.Errorf("%s %w", titleKind(target.Kind), utils.ErrEmptyList)
		}
		return nil
	}
	for _, s := range info.Streams {
		if !s.IsStoryboard() && (s.HasVideo() || s.IsAudioOnly()) {
			return nil
		}
	}
	return utils.ErrNoFormats
}

func titleKind(kind utils.Kind) string {
	switch kind {
	case utils.KindChannel:
		return "Channel"
	case utils.KindPlaylist:
		return "Playlist"
	default:
		return "Collection"
	}
}

func describe(job utils.Job, info *utils.MediaInfo) string {
	label := job.Selection.Label
	if label == "" {
		label = job.Selection.Selector
	}
	switch {
	case info.IsCollection() || job.Target.Kind != utils.KindVideo:
		return fmt.Sprintf("%q (%d entries) as %s", info.Title, info.EntryCount, label)
	default:
		return fmt.Sprintf("%q as %s", info.Title, label)
	}
}

var errNoProcessor = errors.New("no media processor configured")

func (r *Runner) processor() (Processor, error) {
	if r.Processor == nil {
		return nil, fmt.Errorf("%w: %v; %s", utils.ErrProcessing, errNoProcessor, utils.ProcessingHint)
	}
	return r.Processor, nil
}
