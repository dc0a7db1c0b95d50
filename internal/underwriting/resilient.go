package underwriting

import (
	"context"
	"errors"
	"fmt"
	"lending/internal/config"
	"lending/pkg/domain"
	"lending/pkg/logger"
	"lending/pkg/serrors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ResilienceOptions configures retries and the circuit breaker of a ResilientEngine.
type ResilienceOptions struct {
	// MaxAttempts is the number of tries per run, including the first.
	MaxAttempts int
	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration
	// Multiplier grows the backoff after every retry.
	Multiplier float64

	// BreakerEnabled turns the circuit breaker on.
	BreakerEnabled bool
	// BreakerMinRequests is the number of requests in the window before the breaker may trip.
	BreakerMinRequests uint32
	// BreakerFailureRatio trips the breaker once reached.
	BreakerFailureRatio float64
	// BreakerOpenTimeout is how long the breaker stays open before probing.
	BreakerOpenTimeout time.Duration
	// BreakerHalfOpenMaxCalls is the number of probes allowed while half-open.
	BreakerHalfOpenMaxCalls uint32
}

// NewResilienceOptions constructs a ResilienceOptions value from the provided application config.
func NewResilienceOptions(cfg *config.Config) ResilienceOptions {
	return ResilienceOptions{
		MaxAttempts:         cfg.Underwriting.MaxAttempts,
		InitialBackoff:      cfg.Underwriting.InitialBackoff,
		MaxBackoff:          cfg.Underwriting.MaxBackoff,
		BreakerEnabled:      cfg.Underwriting.BreakerEnabled,
		BreakerFailureRatio: cfg.Underwriting.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.Underwriting.BreakerOpenTimeout,
	}
}

func (o ResilienceOptions) normalize() ResilienceOptions {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.Multiplier < 1 {
		o.Multiplier = 2
	}
	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = o.InitialBackoff
	}
	if o.BreakerMinRequests == 0 {
		o.BreakerMinRequests = 5
	}
	if o.BreakerFailureRatio <= 0 || o.BreakerFailureRatio > 1 {
		o.BreakerFailureRatio = 0.5
	}
	if o.BreakerOpenTimeout <= 0 {
		o.BreakerOpenTimeout = 30 * time.Second
	}
	if o.BreakerHalfOpenMaxCalls == 0 {
		o.BreakerHalfOpenMaxCalls = 1
	}

	return o
}

// ResilientEngine retries transient faults of the wrapped engine with
// exponential backoff and stops calling it while it keeps failing.
type ResilientEngine struct {
	next    Engine
	opts    ResilienceOptions
	breaker *gobreaker.CircuitBreaker[domain.UnderwritingResult]
}

var _ Engine = (*ResilientEngine)(nil)

// NewResilientEngine wraps next.
func NewResilientEngine(next Engine, opts ResilienceOptions) *ResilientEngine {
	opts = opts.normalize()
	e := &ResilientEngine{next: next, opts: opts}

	if opts.BreakerEnabled {
		e.breaker = gobreaker.NewCircuitBreaker[domain.UnderwritingResult](gobreaker.Settings{
			Name:        "underwriting",
			MaxRequests: opts.BreakerHalfOpenMaxCalls,
			Timeout:     opts.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < opts.BreakerMinRequests {
					return false
				}

				return float64(counts.TotalFailures)/float64(counts.Requests) >= opts.BreakerFailureRatio
			},
			// cancelled runs say nothing about the engine's health
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn(context.Background(), "Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return e
}

// IsTransient reports whether err is worth retrying. Engines signal
// transient faults with the unavailable, timeout and rate-limited kinds.
func IsTransient(err error) bool {
	return errors.Is(err, serrors.ErrUnavailable) ||
		errors.Is(err, serrors.ErrTimeout) ||
		errors.Is(err, serrors.ErrRateLimited)
}

// IsCircuitOpen reports whether err was returned because the breaker refused the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Underwrite implements Engine.
func (e *ResilientEngine) Underwrite(ctx context.Context,
	info domain.PersonalInfo,
	docs []domain.Document,
	loan domain.LoanDetails) (domain.UnderwritingResult, error) {
	run := func() (domain.UnderwritingResult, error) {
		return e.withRetry(ctx, info, docs, loan)
	}
	if e.breaker == nil {
		return run()
	}

	res, err := e.breaker.Execute(run)
	if IsCircuitOpen(err) {
		return res, serrors.Wrap(serrors.ErrUnavailable, err, "underwriting engine unavailable")
	}

	return res, err
}

func (e *ResilientEngine) withRetry(ctx context.Context,
	info domain.PersonalInfo,
	docs []domain.Document,
	loan domain.LoanDetails) (domain.UnderwritingResult, error) {
	backoff := e.opts.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.UnderwritingResult{}, err
		}

		res, err := e.next.Underwrite(ctx, info, docs, loan)
		if err == nil {
			return res, nil
		}
		if !IsTransient(err) || attempt >= e.opts.MaxAttempts {
			return domain.UnderwritingResult{}, err
		}

		wait := min(backoff, e.opts.MaxBackoff)
		logger.Warn(ctx, "Retrying underwriting",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.opts.MaxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err))

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()

				return domain.UnderwritingResult{}, fmt.Errorf("gave up retrying: %w: %w", ctx.Err(), err)
			case <-timer.C:
			}
		}

		backoff = min(time.Duration(float64(backoff)*e.opts.Multiplier), e.opts.MaxBackoff)
	}
}
