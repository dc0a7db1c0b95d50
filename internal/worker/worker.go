// Package worker runs underwriting jobs in the background: on River for the
// PostgreSQL backend and on an in-process pool for the memory backend.
package worker

import (
	"context"
	"fmt"
	"lending/internal/application"
	"lending/internal/config"
	"lending/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"golang.org/x/time/rate"
)

// DefaultWorkers is the job concurrency used when Options.Workers is not set.
const DefaultWorkers = 16

// Options configure job concurrency and pacing.
type Options struct {
	// Workers is the maximum number of jobs running at once.
	Workers int
	// RatePerSecond limits how many jobs may start per second. Zero disables the limit.
	RatePerSecond float64
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Workers:       cfg.Pipeline.Workers,
		RatePerSecond: cfg.Pipeline.RatePerSecond,
	}
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return DefaultWorkers
	}

	return o.Workers
}

func (o Options) limiter() *rate.Limiter {
	if o.RatePerSecond <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(o.RatePerSecond), max(1, int(o.RatePerSecond)))
}

// Start registers the underwriting worker on a River client bound to dbPool
// and starts processing jobs.
func Start(ctx context.Context,
	dbPool *pgxpool.Pool,
	svc application.Service,
	options Options) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewUnderwritingWorker(svc, options.limiter()))

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: options.workers()},
		},
		Workers: workers,
		Logger:  logger.Slog(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
