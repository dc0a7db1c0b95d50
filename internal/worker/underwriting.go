package worker

import (
	"context"
	"errors"
	"fmt"
	"lending/internal/application"
	"lending/pkg/logger"
	"lending/pkg/serrors"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UnderwritingWorker is a River worker that hands underwriting jobs to the
// application service. Jobs for unknown applications are cancelled; other
// failures are retried by River up to the job's MaxAttempts.
type UnderwritingWorker struct {
	river.WorkerDefaults[application.JobArgs]

	svc application.Service
	// limiter paces job starts. Optional.
	limiter *rate.Limiter
}

// NewUnderwritingWorker constructs an UnderwritingWorker.
func NewUnderwritingWorker(svc application.Service, limiter *rate.Limiter) *UnderwritingWorker {
	return &UnderwritingWorker{svc: svc, limiter: limiter}
}

// Work processes a single underwriting job.
func (w *UnderwritingWorker) Work(ctx context.Context, job *river.Job[application.JobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.Int("attempt", job.Attempt),
		zap.Stringer("applicationID", job.Args.ApplicationID))

	return process(ctx, w.svc, w.limiter, job.Args)
}

func process(ctx context.Context, svc application.Service, limiter *rate.Limiter, args application.JobArgs) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("could not wait for rate limit: %w", err)
		}
	}

	if err := svc.Process(ctx, args.ApplicationID); err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			logger.Warn(ctx, "Application vanished, cancelling job", zap.Error(err))

			return river.JobCancel(err) //nolint: wrapcheck
		}

		logger.Error(ctx, "error in processing application", zap.Error(err))

		return fmt.Errorf("could not process application: %w", err)
	}

	return nil
}
