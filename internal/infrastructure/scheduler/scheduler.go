// Package scheduler runs the periodic per-tenant maintenance jobs: the
// overdue status refresh and the report snapshot refresh.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType names a maintenance job
type JobType string

const (
	// JobTypeMarkOverdue refreshes the stored status of open installments
	JobTypeMarkOverdue JobType = "MARK_OVERDUE"
	// JobTypeRefreshSnapshots recomputes dashboard and receivables snapshots
	JobTypeRefreshSnapshots JobType = "REFRESH_SNAPSHOTS"
)

// AllJobTypes returns the jobs run for every tenant, in execution order
func AllJobTypes() []JobType {
	return []JobType{JobTypeMarkOverdue, JobTypeRefreshSnapshots}
}

func (t JobType) IsValid() bool {
	return t == JobTypeMarkOverdue || t == JobTypeRefreshSnapshots
}

// Job is one unit of work for one tenant
type Job struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Type        JobType
	AsOf        time.Time
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	// RunID links the job to its history record, when one was written
	RunID uuid.UUID
}

// NewJob creates a new job instance
func NewJob(tenantID uuid.UUID, jobType JobType, asOf time.Time, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Type:       jobType,
		AsOf:       asOf,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor runs jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobRecorder keeps a history of job runs. Recording failures never fail the job.
type JobRecorder interface {
	RecordJobStart(ctx context.Context, tenantID uuid.UUID, jobType JobType) (uuid.UUID, error)
	RecordJobComplete(ctx context.Context, runID uuid.UUID, success bool, errMsg string) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 3,
		QueueSize:         100,
		JobTimeout:        5 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
	}
}

// Scheduler is a bounded worker pool for maintenance jobs
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	recorder JobRecorder
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRecorder persists a row per job run
func WithRecorder(recorder JobRecorder) Option {
	return func(s *Scheduler) {
		s.recorder = recorder
	}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger, opts ...Option) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels the workers and waits for them to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether workers are accepting jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob queues a job without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	if !job.Type.IsValid() {
		return ErrInvalidJobType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleTenant queues every job type for one tenant
func (s *Scheduler) ScheduleTenant(tenantID uuid.UUID, asOf time.Time) error {
	for _, jobType := range AllJobTypes() {
		if err := s.SubmitJob(NewJob(tenantID, jobType, asOf, s.config.RetryAttempts)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	if job.NextRetryAt != nil {
		wait := time.Until(*job.NextRetryAt)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}

	job.Start()
	s.recordStart(ctx, job)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.executor.Execute(jobCtx, job)
	cancel()

	if err == nil {
		job.Complete()
		s.recordComplete(ctx, job)
		s.logger.Info("Job completed",
			zap.Int("worker_id", workerID),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Duration("duration", job.CompletedAt.Sub(*job.StartedAt)),
		)
		return
	}

	job.Fail(err.Error())
	s.recordComplete(ctx, job)
	s.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)

	if job.ShouldRetry() && ctx.Err() == nil {
		job.ScheduleRetry(s.config.RetryDelay)
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Failed to re-queue job for retry", zap.String("job_id", job.ID.String()))
		}
	}
}

func (s *Scheduler) recordStart(ctx context.Context, job *Job) {
	if s.recorder == nil {
		return
	}
	runID, err := s.recorder.RecordJobStart(ctx, job.TenantID, job.Type)
	if err != nil {
		s.logger.Warn("Failed to record job start", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	job.RunID = runID
}

func (s *Scheduler) recordComplete(ctx context.Context, job *Job) {
	if s.recorder == nil || job.RunID == uuid.Nil {
		return
	}
	if err := s.recorder.RecordJobComplete(ctx, job.RunID, job.Status == JobStatusSuccess, job.Error); err != nil {
		s.logger.Warn("Failed to record job completion", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
