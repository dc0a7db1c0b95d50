package application

import (
	"lending/pkg/domain"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs contains the arguments for an underwriting job submitted to River.
// The application ID is the unique key so an application is underwritten by
// at most one job.
type JobArgs struct {
	// ApplicationID is the application to underwrite.
	ApplicationID domain.ApplicationID `json:"applicationId" river:"unique"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// NewJobArgs returns the job arguments for underwriting id.
func NewJobArgs(id domain.ApplicationID, maxAttempts int) JobArgs {
	return JobArgs{ApplicationID: id, maxAttempts: maxAttempts}
}

// Kind returns the River job kind used to register and dispatch the underwriting worker.
func (args JobArgs) Kind() string { return "UnderwriteApplicationJob" }

// InsertOpts returns the River options that control how the job is enqueued.
// Uniqueness spans every state, so a completed application is never
// underwritten twice.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStateCancelled,
				rivertype.JobStateCompleted,
				rivertype.JobStateDiscarded,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
