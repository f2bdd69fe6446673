// Package runner drives each admitted job through its configured sequence
// of action instances: sequential within a job, concurrent across jobs,
// re-checking the scheduler's active table before every step so a
// cancellation is honored even if it arrives before the job's first action
// has started.
package runner

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/logger"
	"github.com/SmolSoftBoi/compressarr/internal/model"
)

// ActiveChecker reports whether a source path is still in the scheduler's
// active table. The runner consults this before every action step so that
// an UNREGISTER_JOB published while a step is running is still honored.
type ActiveChecker interface {
	IsActive(sourcePath string) bool
}

// Runner owns the configured, ordered list of action instances and runs
// each job it is handed on a fresh goroutine, so jobs run concurrently
// with one another while remaining sequential within themselves.
type Runner struct {
	mu      sync.Mutex
	actions []namedAction
	active  ActiveChecker
	bus     *bus.Bus

	owning map[string]int // job id -> index of the action instance currently handling it
	wg     sync.WaitGroup // outstanding job goroutines, for a bounded shutdown wait
}

type namedAction struct {
	name     string
	instance model.ActionInstance
}

// New builds an empty Runner bound to b. SetActive must be called before
// any job can run (the scheduler and runner otherwise construct each other
// circularly); AddAction appends to the configured pipeline in
// configuration order.
func New(b *bus.Bus) *Runner {
	return &Runner{bus: b, owning: make(map[string]int)}
}

// SetActive wires the scheduler's active-table membership check.
func (r *Runner) SetActive(active ActiveChecker) { r.active = active }

// AddAction appends an action instance to the end of the pipeline, in
// configuration order (section 3: "Instances are created once at startup,
// in configuration order").
func (r *Runner) AddAction(name string, instance model.ActionInstance) {
	r.actions = append(r.actions, namedAction{name: name, instance: instance})
}

// Run executes cfg's action pipeline on its own goroutine. The scheduler
// calls it for each job it admits, right after publishing REGISTER_JOB;
// the runner does not subscribe to REGISTER_JOB itself.
func (r *Runner) Run(cfg model.JobConfig) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(cfg)
	}()
}

// Wait blocks until every outstanding job goroutine has returned, or until
// timeout elapses, whichever comes first. It reports whether every job
// settled within the window, so callers can distinguish a clean shutdown
// from one that hit the grace window with work still in flight.
func (r *Runner) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (r *Runner) run(cfg model.JobConfig) {
	log := logger.Runner().With().Str("path", cfg.SourcePath).Logger()
	job := model.NewJob(cfg)

	for i, step := range r.actions {
		if !r.active.IsActive(job.ID) {
			r.kill(job.ID)
			log.Debug().Msg("job cancelled before next action step, killed owning action")
			return
		}

		r.mu.Lock()
		r.owning[job.ID] = i
		r.mu.Unlock()

		next, err := step.instance.Start(job)
		if err != nil {
			if errors.Is(err, apperr.Killed) {
				log.Debug().Str("action", step.name).Msg("action reported killed, cancellation path")
				return
			}
			log.Error().Err(err).Str("action", step.name).Msg("action failed, job abandoned")
			return
		}
		job = next
	}

	r.mu.Lock()
	delete(r.owning, job.ID)
	r.mu.Unlock()

	if !r.active.IsActive(job.ID) {
		return
	}

	if job.CurrentSource != job.OriginalSource {
		if err := os.Rename(job.CurrentSource, job.OriginalSource); err != nil {
			log.Error().Err(err).Msg("failed to move final artifact into place")
			return
		}
	}

	os.RemoveAll(job.TempPrefix)

	r.bus.Publish(bus.PublishJob, bus.JobPathPayload{SourcePath: job.OriginalSource})
}

// kill narrows cancellation to the single action instance that currently
// owns jobID, rather than broadcasting kill to every configured instance.
func (r *Runner) kill(jobID string) {
	r.mu.Lock()
	owner, hasOwner := r.owning[jobID]
	delete(r.owning, jobID)
	r.mu.Unlock()

	if hasOwner {
		if err := r.actions[owner].instance.Kill(jobID); err != nil {
			logger.Runner().Warn().Err(err).Str("action", r.actions[owner].name).Msg("kill returned error")
		}
	}
}
