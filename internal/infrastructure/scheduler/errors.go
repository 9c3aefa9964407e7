package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning rejects submissions before Start or after Stop
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	// ErrJobQueueFull means the maintenance queue is saturated; the next tick retries
	ErrJobQueueFull = errors.New("job queue is full")
	// ErrInvalidJobType is returned for job types no executor handles
	ErrInvalidJobType = errors.New("invalid job type")
)
