// Package async runs batch document jobs on a fixed pool of workers.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alisoncf/gscan/constants"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting to be processed.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
}

func NewJob(path string) Job {
	return Job{ID: uuid.New(), Path: path, SubmittedAt: time.Now().UTC()}
}

// JobResult is reported once per job when its handler returns.
type JobResult struct {
	Job      Job
	Status   constants.JobStatus
	Err      error
	Duration time.Duration
}

// Handler processes a single job under a per-job deadline.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
