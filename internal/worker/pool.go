package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"lending/internal/application"
	"lending/pkg/logger"
	"lending/pkg/serrors"
	"lending/pkg/storage/memory"
	"sync"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultMaxAttempts is the number of tries per job when its insert options
// do not set one.
const DefaultMaxAttempts = 3

// ErrPoolClosed is returned by Dispatch after Shutdown was called.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool runs underwriting jobs in the current process with bounded
// concurrency. A job is dropped when an identical one is already queued or
// running.
type Pool struct {
	svc     application.Service
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	backoff time.Duration

	ctx    context.Context //nolint: containedctx
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	inFlight map[string]struct{}
}

var _ memory.Dispatcher = (*Pool)(nil)

// NewPool creates a pool that hands jobs to svc. ctx is the base context of
// all jobs; cancelling it aborts them.
func NewPool(ctx context.Context, svc application.Service, options Options) *Pool {
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		svc:      svc,
		sem:      semaphore.NewWeighted(int64(options.workers())),
		limiter:  options.limiter(),
		backoff:  100 * time.Millisecond,
		ctx:      ctx,
		cancel:   cancel,
		inFlight: make(map[string]struct{}),
	}
}

// Dispatch implements memory.Dispatcher. It never blocks on the job itself.
func (p *Pool) Dispatch(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	job, ok := args.(application.JobArgs)
	if !ok {
		return false, serrors.With(serrors.ErrBadRequest, "unsupported job kind %q", args.Kind())
	}

	key, err := uniqueKey(args)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrPoolClosed
	}
	if _, dup := p.inFlight[key]; dup {
		return false, nil
	}
	p.inFlight[key] = struct{}{}

	attempts := maxAttempts(job, opts)
	jobCtx := logger.WithLogger(p.ctx, logger.Get(ctx).With(zap.Stringer("applicationID", job.ApplicationID)))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(key)

		p.run(jobCtx, job, attempts)
	}()

	return true, nil
}

func (p *Pool) run(ctx context.Context, job application.JobArgs, attempts int) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		logger.Warn(ctx, "Job dropped before start", zap.Error(err))

		return
	}
	defer p.sem.Release(1)

	for attempt := 1; ; attempt++ {
		err := process(ctx, p.svc, p.limiter, job)
		if err == nil {
			return
		}
		if errors.Is(err, serrors.ErrNotFound) || attempt >= attempts || ctx.Err() != nil {
			logger.Error(ctx, "Job failed", zap.Int("attempt", attempt), zap.Error(err))

			return
		}

		wait := time.Duration(attempt*attempt) * p.backoff
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (p *Pool) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.inFlight, key)
}

// Shutdown stops accepting jobs and waits for queued and running ones to
// finish. When ctx expires first, running jobs are cancelled and ctx's error
// is returned once they returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()

		return nil
	case <-ctx.Done():
		p.cancel()
		<-done

		return fmt.Errorf("worker pool did not drain: %w", ctx.Err())
	}
}

// Wait blocks until every dispatched job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func uniqueKey(args river.JobArgs) (string, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("could not encode job args: %w", err)
	}

	return args.Kind() + ":" + string(b), nil
}

func maxAttempts(job application.JobArgs, opts *river.InsertOpts) int {
	if opts != nil && opts.MaxAttempts > 0 {
		return opts.MaxAttempts
	}
	if n := job.InsertOpts().MaxAttempts; n > 0 {
		return n
	}

	return DefaultMaxAttempts
}
