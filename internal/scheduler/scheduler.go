package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/formats"
	"github.com/tanq16/ytpull/internal/output"
	"github.com/tanq16/ytpull/internal/prompt"
	"github.com/tanq16/ytpull/internal/utils"
)

type Policy string

const (
	// PolicyAuto picks best video+audio (or best audio) without asking.
	PolicyAuto Policy = "auto"
	// PolicyInteractiveOnce asks one question that applies to every target.
	PolicyInteractiveOnce Policy = "interactive-once"
	// PolicyInteractiveEach asks per target, before any download starts.
	PolicyInteractiveEach Policy = "interactive-each"
)

type JobRunner interface {
	Run(ctx context.Context, job utils.Job) utils.JobResult
}

type SelectionResolver interface {
	Resolve(ctx context.Context, target utils.Target, chooser prompt.Chooser) (utils.Selection, error)
}

type Options struct {
	Workers    int
	Policy     Policy
	Audio      bool
	Quality    string
	OutputRoot string
	Chooser    prompt.Chooser
	// Fixed pins a selection for specific target IDs, bypassing the policy.
	Fixed map[string]utils.Selection
	// Display is optional; without one progress is discarded.
	Display *output.Manager
}

type Scheduler struct {
	Runner   JobRunner
	Resolver SelectionResolver
}

func New(runner JobRunner, resolver SelectionResolver) *Scheduler {
	return &Scheduler{Runner: runner, Resolver: resolver}
}

// Run resolves a selection for every target, then drains them through a
// fixed pool of workers. Every target ends up with exactly one JobResult.
func (s *Scheduler) Run(ctx context.Context, targets []utils.Target, opts Options) *output.Results {
	results := output.NewResults()
	if len(targets) == 0 {
		return results
	}
	display := opts.Display
	if display == nil {
		display = output.NewManager(io.Discard, false)
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = utils.DefaultOutputRoot
	}

	// Prompts share the terminal, so they all happen before the display starts.
	jobs := s.resolveAll(ctx, targets, opts, results)
	if len(jobs) == 0 {
		return results
	}

	numWorkers := min(utils.ClampWorkers(opts.Workers), len(jobs))
	log.Debug().Str("op", "scheduler/run").Msgf("Dispatching %d jobs to %d workers", len(jobs), numWorkers)
	for _, job := range jobs {
		display.Register(job.Target.ID, job.Target.URL, job.Target.Index)
	}
	display.StartDisplay()
	defer display.StopDisplay()

	jobCh := make(chan utils.Job, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var wg sync.WaitGroup
	for i := range numWorkers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.processJobs(ctx, workerID, jobCh, display, results)
		}(i + 1)
	}
	wg.Wait()
	return results
}

func (s *Scheduler) processJobs(ctx context.Context, workerID int, jobCh <-chan utils.Job, display *output.Manager, results *output.Results) {
	for job := range jobCh {
		job.Worker = workerID
		id := job.Target.ID
		job.StreamFunc = func(line string) {
			display.AddStreamLine(id, line)
		}
		label := job.Selection.Label
		if label == "" {
			label = "best available"
		}
		display.SetMessage(id, fmt.Sprintf("Downloading %s %s (%s)", job.Target.Kind, job.Target.URL, label))

		res := s.runJob(ctx, job)
		results.Add(res)
		if res.Success {
			display.Complete(id, fmt.Sprintf("Completed %s (%s)", job.Target.URL, res.Message))
		} else {
			display.ReportError(id, fmt.Errorf("%s: %s", job.Target.URL, res.Reason()))
		}
	}
}

// runJob shields the pool from a panicking job.
func (s *Scheduler) runJob(ctx context.Context, job utils.Job) (res utils.JobResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("op", "scheduler/runJob").Msgf("Job %s panicked: %v", job.Target.ID, r)
			res = failed(job.Target, fmt.Errorf("internal error: %v", r))
		}
	}()
	res = s.Runner.Run(ctx, job)
	res.TargetID = job.Target.ID
	res.Index = job.Target.Index
	res.URL = job.Target.URL
	res.Kind = job.Target.Kind
	return res
}

func failed(target utils.Target, err error) utils.JobResult {
	return utils.JobResult{
		TargetID: target.ID,
		Index:    target.Index,
		URL:      target.URL,
		Kind:     target.Kind,
		Err:      err,
	}
}

func (s *Scheduler) resolveAll(ctx context.Context, targets []utils.Target, opts Options, results *output.Results) []utils.Job {
	var jobs []utils.Job
	add := func(target utils.Target, sel utils.Selection) {
		jobs = append(jobs, utils.Job{Target: target, Selection: sel, OutputRoot: opts.OutputRoot})
	}
	reject := func(target utils.Target, err error) {
		log.Warn().Str("op", "scheduler/resolve").Err(err).Msgf("Not scheduling %s", target.URL)
		results.Add(failed(target, err))
	}

	var pending []utils.Target
	for _, target := range targets {
		if sel, ok := opts.Fixed[target.ID]; ok {
			add(target, sel)
			continue
		}
		pending = append(pending, target)
	}
	targets = pending
	if len(targets) == 0 {
		return jobs
	}

	policy := opts.Policy
	if (policy == PolicyInteractiveOnce || policy == PolicyInteractiveEach) && (opts.Chooser == nil || s.Resolver == nil) {
		policy = PolicyAuto
	}
	if opts.Audio {
		// Audio mode needs no resolution question.
		policy = PolicyAuto
	}

	switch {
	case policy == PolicyInteractiveEach || (policy == PolicyInteractiveOnce && len(targets) == 1):
		for _, target := range targets {
			sel, err := s.Resolver.Resolve(ctx, target, opts.Chooser)
			if err != nil {
				reject(target, err)
				continue
			}
			add(target, sel)
		}
	case policy == PolicyInteractiveOnce:
		sel, err := formats.ChoosePreset(opts.Chooser, "Choose General Resolution Preference")
		for _, target := range targets {
			if err != nil {
				reject(target, err)
				continue
			}
			add(target, sel)
		}
	default:
		sel, err := formats.Auto(opts.Audio, opts.Quality)
		for _, target := range targets {
			if err != nil {
				reject(target, err)
				continue
			}
			add(target, sel)
		}
	}
	return jobs
}
