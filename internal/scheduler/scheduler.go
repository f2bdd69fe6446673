// Package scheduler implements the orchestrator's pending/active job
// tables, admission control, and the advance loop that promotes queued
// work up to the configured concurrency cap.
package scheduler

import (
	"sync"

	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/logger"
	"github.com/SmolSoftBoi/compressarr/internal/model"
)

// Runner is the collaborator that actually drives an admitted job through
// its action pipeline. The scheduler only tracks admission; internal/runner
// implements this interface.
type Runner interface {
	Run(cfg model.JobConfig)
}

// Scheduler owns the pending and active job tables (section 3) and the
// subscriptions that mutate them. All table mutations happen under mu,
// inside a bus handler or in Shutdown.
type Scheduler struct {
	mu        sync.Mutex
	pending   []string // insertion-ordered source paths awaiting admission
	pendingCfg map[string]model.JobConfig
	active    map[string]model.JobConfig

	instances int
	jobRoot   string
	bus       *bus.Bus
	runner    Runner

	shuttingDown bool
}

// New builds a Scheduler bound to b with the given concurrency cap, and
// subscribes it to REGISTER_MEDIA, UPDATE_MEDIA, UNREGISTER_MEDIA, and
// PUBLISH_JOB. jobRoot is the temp-root new JobConfigs are built under; it
// is fixed for the scheduler's lifetime.
func New(b *bus.Bus, instances int, jobRoot string, runner Runner) *Scheduler {
	if instances < 1 {
		instances = 1
	}
	s := &Scheduler{
		pendingCfg: make(map[string]model.JobConfig),
		active:     make(map[string]model.JobConfig),
		instances:  instances,
		jobRoot:    jobRoot,
		bus:        b,
		runner:     runner,
	}
	b.Subscribe(bus.RegisterMedia, s.onRegisterMedia)
	b.Subscribe(bus.UpdateMedia, s.onUpdateMedia)
	b.Subscribe(bus.UnregisterMedia, s.onUnregisterMedia)
	b.Subscribe(bus.PublishJob, s.onPublishJob)
	return s
}

func (s *Scheduler) onRegisterMedia(data any) error {
	payload := data.(bus.MediaPayload)
	s.enqueue(payload.Ref)
	s.advance()
	return nil
}

func (s *Scheduler) onUpdateMedia(data any) error {
	payload := data.(bus.MediaPayload)
	src := payload.Ref.SourcePath()

	s.enqueue(payload.Ref)

	s.mu.Lock()
	_, wasActive := s.active[src]
	delete(s.active, src)
	s.mu.Unlock()

	if wasActive {
		s.bus.Publish(bus.UnregisterJob, bus.JobPathPayload{SourcePath: src})
	}
	s.advance()
	return nil
}

func (s *Scheduler) onUnregisterMedia(data any) error {
	payload := data.(bus.MediaPayload)
	src := payload.Ref.SourcePath()

	s.mu.Lock()
	s.removePending(src)
	delete(s.active, src)
	s.mu.Unlock()

	s.bus.Publish(bus.UnregisterJob, bus.JobPathPayload{SourcePath: src})
	s.advance()
	return nil
}

func (s *Scheduler) onPublishJob(data any) error {
	payload := data.(bus.JobPathPayload)

	s.mu.Lock()
	s.removePending(payload.SourcePath)
	delete(s.active, payload.SourcePath)
	s.mu.Unlock()

	s.advance()
	return nil
}

// enqueue inserts or overwrites the pending entry for ref's source path
// (REGISTER_MEDIA and the pending half of UPDATE_MEDIA share this logic;
// section 4.4).
func (s *Scheduler) enqueue(ref model.MediaRef) {
	src := ref.SourcePath()
	cfg := model.NewJobConfig(ref, s.jobRoot)

	s.mu.Lock()
	if _, exists := s.pendingCfg[src]; !exists {
		s.pending = append(s.pending, src)
	}
	s.pendingCfg[src] = cfg
	s.mu.Unlock()
}

// removePending drops src from the pending table; callers must hold mu.
func (s *Scheduler) removePending(src string) {
	if _, ok := s.pendingCfg[src]; !ok {
		return
	}
	delete(s.pendingCfg, src)
	for i, p := range s.pending {
		if p == src {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
}

// advance promotes pending jobs into the active table up to the
// concurrency cap, FIFO, re-entrant-safe: it is invoked after every state
// change and loops rather than recurses. Each admission is decided under
// mu; the lock is released before REGISTER_JOB is published and the runner
// is started.
func (s *Scheduler) advance() {
	log := logger.Scheduler()

	for {
		s.mu.Lock()
		if s.shuttingDown || len(s.pending) == 0 || len(s.active) >= s.instances {
			s.mu.Unlock()
			return
		}

		src := s.pending[0]
		s.pending = s.pending[1:]
		cfg := s.pendingCfg[src]
		delete(s.pendingCfg, src)
		s.active[src] = cfg
		s.mu.Unlock()

		log.Debug().Str("path", src).Msg("admitting job")
		s.bus.Publish(bus.RegisterJob, bus.RegisterJobPayload{SourcePath: src, Config: cfg})
		s.runner.Run(cfg)
	}
}

// IsActive reports whether sourcePath is currently in the active table,
// satisfying runner.ActiveChecker.
func (s *Scheduler) IsActive(sourcePath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[sourcePath]
	return ok
}

// Shutdown clears the active table, publishes UNREGISTER_JOB for every
// entry it held, and stops admitting pending work; it does not itself
// wait for runner tasks to settle — callers bound that wait with their
// own grace-window timer. Clearing active before publishing matters:
// the runner's only cancellation check is IsActive, so leaving an entry
// in the table would let that job run to completion through shutdown.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.shuttingDown = true
	actives := make([]string, 0, len(s.active))
	for src := range s.active {
		actives = append(actives, src)
	}
	for _, src := range actives {
		delete(s.active, src)
	}
	s.mu.Unlock()

	for _, src := range actives {
		s.bus.Publish(bus.UnregisterJob, bus.JobPathPayload{SourcePath: src})
	}
}

