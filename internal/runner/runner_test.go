package runner

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SmolSoftBoi/compressarr/internal/apperr"
	"github.com/SmolSoftBoi/compressarr/internal/bus"
	"github.com/SmolSoftBoi/compressarr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActive struct {
	mu     sync.Mutex
	active map[string]bool
}

func newFakeActive(ids ...string) *fakeActive {
	a := &fakeActive{active: make(map[string]bool)}
	for _, id := range ids {
		a.active[id] = true
	}
	return a
}

func (a *fakeActive) IsActive(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active[id]
}

func (a *fakeActive) deactivate(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.active, id)
}

type recordingAction struct {
	mu      sync.Mutex
	started []string
	killed  []string
	startFn func(job *model.Job) (*model.Job, error)
}

func (a *recordingAction) Start(job *model.Job) (*model.Job, error) {
	a.mu.Lock()
	a.started = append(a.started, job.ID)
	a.mu.Unlock()
	if a.startFn != nil {
		return a.startFn(job)
	}
	return job, nil
}

func (a *recordingAction) Kill(jobID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.killed = append(a.killed, jobID)
	return nil
}

func (a *recordingAction) snapshotKilled() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.killed))
	copy(out, a.killed)
	return out
}

func newJobConfig(t *testing.T, source string) model.JobConfig {
	t.Helper()
	return model.NewJobConfig(model.MediaRef{LibraryRoot: filepath.Dir(source), RelPath: filepath.Base(source)}, t.TempDir())
}

func TestRunExecutesActionsSequentiallyAndPublishesOnSuccess(t *testing.T) {
	b := bus.New()
	published := make(chan bus.JobPathPayload, 1)
	b.Subscribe(bus.PublishJob, func(data any) error {
		published <- data.(bus.JobPathPayload)
		return nil
	})

	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	active := newFakeActive(source)
	r := New(b)
	r.SetActive(active)
	action := &recordingAction{}
	r.AddAction("encode", action)

	r.Run(newJobConfig(t, source))

	select {
	case payload := <-published:
		assert.Equal(t, source, payload.SourcePath)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for PUBLISH_JOB")
	}
	assert.Equal(t, []string{source}, action.started)
}

func TestRunAbandonsJobOnActionError(t *testing.T) {
	b := bus.New()
	published := make(chan bus.JobPathPayload, 1)
	b.Subscribe(bus.PublishJob, func(data any) error {
		published <- data.(bus.JobPathPayload)
		return nil
	})

	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	active := newFakeActive(source)
	r := New(b)
	r.SetActive(active)
	action := &recordingAction{startFn: func(job *model.Job) (*model.Job, error) {
		return nil, errors.New("encoder crashed")
	}}
	r.AddAction("encode", action)

	r.Run(newJobConfig(t, source))

	select {
	case <-published:
		t.Fatal("did not expect PUBLISH_JOB after an action error")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRunKillsOwningActionWhenCancelledBetweenSteps(t *testing.T) {
	b := bus.New()
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	active := newFakeActive(source)
	r := New(b)
	r.SetActive(active)

	first := &recordingAction{startFn: func(job *model.Job) (*model.Job, error) {
		active.deactivate(source)
		return job, nil
	}}
	second := &recordingAction{}
	r.AddAction("first", first)
	r.AddAction("second", second)

	r.Run(newJobConfig(t, source))

	require.Eventually(t, func() bool {
		return len(second.snapshotKilled()) == 0 && len(first.snapshotKilled()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, second.started)
}

func TestKillOnlyAffectsOwningInstanceNotOthers(t *testing.T) {
	b := bus.New()
	r := New(b)
	other := &recordingAction{}
	owner := &recordingAction{}
	r.AddAction("owner", owner)
	r.AddAction("other", other)

	r.owning["job-1"] = 0
	r.kill("job-1")

	assert.Equal(t, []string{"job-1"}, owner.snapshotKilled())
	assert.Empty(t, other.snapshotKilled())
}

func TestWaitReturnsTrueOnceAllJobsSettle(t *testing.T) {
	b := bus.New()
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	active := newFakeActive(source)
	r := New(b)
	r.SetActive(active)
	r.AddAction("encode", &recordingAction{})

	r.Run(newJobConfig(t, source))

	assert.True(t, r.Wait(2*time.Second))
}

func TestWaitReturnsFalseWhenGraceWindowElapsesFirst(t *testing.T) {
	b := bus.New()
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	active := newFakeActive(source)
	r := New(b)
	r.SetActive(active)
	block := make(chan struct{})
	r.AddAction("stuck", &recordingAction{startFn: func(job *model.Job) (*model.Job, error) {
		<-block
		return job, nil
	}})
	defer close(block)

	r.Run(newJobConfig(t, source))

	assert.False(t, r.Wait(50*time.Millisecond))
}

func TestKillSentinelStopsPipelineWithoutPublishing(t *testing.T) {
	b := bus.New()
	published := make(chan bus.JobPathPayload, 1)
	b.Subscribe(bus.PublishJob, func(data any) error {
		published <- data.(bus.JobPathPayload)
		return nil
	})

	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("data"), 0o644))

	active := newFakeActive(source)
	r := New(b)
	r.SetActive(active)
	action := &recordingAction{startFn: func(job *model.Job) (*model.Job, error) {
		return nil, apperr.Killed
	}}
	r.AddAction("encode", action)

	r.Run(newJobConfig(t, source))

	select {
	case <-published:
		t.Fatal("did not expect PUBLISH_JOB after a killed action")
	case <-time.After(300 * time.Millisecond):
	}
}
