package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage defines the minimal interface for enqueueing background jobs.
// The args parameter contains the job payload and opts can be used to
// customize insertion behavior. Implementations return false when the job was
// skipped as a duplicate of one already queued.
//
// The PostgreSQL backend inserts River jobs (transactionally when inside a
// transaction); the memory backend hands the args to an in-process
// dispatcher once the surrounding transaction commits.
type JobStorage interface {
	// AddJob enqueues a new job with the given arguments. It should be atomic
	// with respect to any surrounding transaction when supported by the backend.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
