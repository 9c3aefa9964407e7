package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExecutor struct {
	mu       sync.Mutex
	calls    []*Job
	failures map[JobType]int
	done     chan *Job
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failures: map[JobType]int{}, done: make(chan *Job, 32)}
}

func (f *fakeExecutor) Execute(_ context.Context, job *Job) error {
	f.mu.Lock()
	f.calls = append(f.calls, job)
	fail := f.failures[job.Type] > 0
	if fail {
		f.failures[job.Type]--
	}
	f.mu.Unlock()
	f.done <- job
	if fail {
		return errors.New("boom")
	}
	return nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	started   int
	completed map[uuid.UUID]bool
}

func (r *fakeRecorder) RecordJobStart(context.Context, uuid.UUID, JobType) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return uuid.New(), nil
}

func (r *fakeRecorder) RecordJobComplete(_ context.Context, runID uuid.UUID, success bool, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[runID] = success
	return nil
}

func waitJob(t *testing.T, ch <-chan *Job) *Job {
	t.Helper()
	select {
	case job := <-ch:
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
		return nil
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(uuid.New(), JobTypeMarkOverdue, time.Now(), 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("db down")
	assert.True(t, job.ShouldRetry())
	job.ScheduleRetry(time.Second)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("db down")
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s := NewScheduler(SchedulerConfig{}, newFakeExecutor(), zap.NewNop())
	err := s.SubmitJob(NewJob(uuid.New(), JobTypeMarkOverdue, time.Now(), 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	err = s.SubmitJob(NewJob(uuid.New(), JobType("NOPE"), time.Now(), 0))
	assert.ErrorIs(t, err, ErrInvalidJobType)
}

func TestScheduler_RunsTenantJobs(t *testing.T) {
	exec := newFakeExecutor()
	recorder := &fakeRecorder{completed: map[uuid.UUID]bool{}}
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 1}, exec, zap.NewNop(), WithRecorder(recorder))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	tenantID := uuid.New()
	asOf := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)
	require.NoError(t, s.ScheduleTenant(tenantID, asOf))

	first := waitJob(t, exec.done)
	second := waitJob(t, exec.done)
	assert.Equal(t, JobTypeMarkOverdue, first.Type)
	assert.Equal(t, JobTypeRefreshSnapshots, second.Type)
	assert.Equal(t, tenantID, second.TenantID)
	assert.Equal(t, asOf, second.AsOf)

	require.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return len(recorder.completed) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, recorder.started)
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	exec := newFakeExecutor()
	exec.failures[JobTypeRefreshSnapshots] = 1
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 1, RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}, exec, nil)
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), JobTypeRefreshSnapshots, time.Now(), 2)))

	waitJob(t, exec.done)
	retried := waitJob(t, exec.done)
	assert.Equal(t, 1, retried.RetryCount)

	select {
	case <-exec.done:
		t.Fatal("succeeded job must not run again")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_QueueFull(t *testing.T) {
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 1, QueueSize: 1}, newFakeExecutor(), nil)
	s.isRunning = true
	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), JobTypeMarkOverdue, time.Now(), 0)))
	assert.ErrorIs(t, s.SubmitJob(NewJob(uuid.New(), JobTypeMarkOverdue, time.Now(), 0)), ErrJobQueueFull)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), newFakeExecutor(), nil)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
}
