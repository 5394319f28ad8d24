package scheduler

import "context"

// Job is a unit of work run by the worker pool. Every job belongs to one user.
type Job interface {
	// Execute runs the job. It must give up when ctx is cancelled.
	Execute(ctx context.Context) error

	// UserID pins the job to a worker and labels logs and spans
	UserID() string

	// Kind labels metrics, e.g. "recurring" or "digest"
	Kind() string

	Description() string
}

// JobProvider lists the jobs of one scheduled run
type JobProvider func(ctx context.Context) ([]Job, error)
