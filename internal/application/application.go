// Package application implements the loan application state machine:
// submission, background underwriting and the terminal decision.
package application

import (
	"context"
	"errors"
	"fmt"
	"lending/internal/config"
	"lending/internal/ledger"
	"lending/internal/underwriting"
	"lending/pkg/domain"
	"lending/pkg/logger"
	"lending/pkg/metrics"
	"lending/pkg/serrors"
	"lending/pkg/storage"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultUnderwritingTimeout bounds an underwriting run when Options leave it unset.
const DefaultUnderwritingTimeout = 30 * time.Second

// errDecided aborts a transition when another run already decided the application.
var errDecided = errors.New("application already decided")

// Options configure how underwriting jobs are enqueued and run.
type Options struct {
	// UnderwritingTimeout bounds one engine run. Exceeding it errors the application.
	UnderwritingTimeout time.Duration
	// MaxAttempts is the maximum number of deliveries of an underwriting job.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		UnderwritingTimeout: cfg.Pipeline.UnderwritingTimeout,
		MaxAttempts:         cfg.Pipeline.MaxAttempts,
	}
}

// service is the concrete implementation of the Service interface.
type service struct {
	options Options
	storage storage.Storage
	engine  underwriting.Engine
	metrics *metrics.Pipeline
	now     func() time.Time
}

// New creates a Service backed by storage that underwrites with engine.
func New(storage storage.Storage, engine underwriting.Engine, pipeline *metrics.Pipeline, options Options) Service {
	if options.UnderwritingTimeout <= 0 {
		options.UnderwritingTimeout = DefaultUnderwritingTimeout
	}
	if pipeline == nil {
		pipeline = metrics.Noop()
	}

	return &service{
		options: options,
		storage: storage,
		engine:  engine,
		metrics: pipeline,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit implements Service. Every document must exist and belong to
// userID; otherwise nothing is stored.
func (s *service) Submit(ctx context.Context,
	userID domain.UserID,
	info domain.PersonalInfo,
	documentIDs []domain.DocumentID,
	loan domain.LoanDetails) (*domain.Application, error) {
	ctx, span := otel.Tracer("application").Start(ctx, "Submit")
	defer span.End()

	if err := Validate(info, loan); err != nil {
		return nil, err
	}

	documentIDs = dedupe(documentIDs)
	if err := s.resolveDocuments(ctx, userID, documentIDs); err != nil {
		return nil, err
	}

	now := s.now()
	var app *domain.Application
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		res, err := tx.StoreApplication(ctx, domain.Application{
			ID:           domain.ApplicationID(uuid.New()),
			UserID:       userID,
			PersonalInfo: info,
			LoanDetails:  loan,
			DocumentIDs:  documentIDs,
			State:        domain.ApplicationStateSubmitted,
			SubmittedAt:  now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("could not store application: %w", err)
		}
		app = res

		added, err := tx.AddJob(ctx, NewJobArgs(app.ID, s.options.MaxAttempts), nil)
		if err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}
		if !added {
			// IDs are fresh, so this only happens if the queue already knows the application.
			logger.Warn(ctx, "Underwriting job already queued", zap.Stringer("applicationID", app.ID))
		}

		return nil
	}); err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("could not submit application: %w", err)
	}

	span.SetAttributes(attribute.String("application.id", app.ID.String()))
	s.metrics.ApplicationSubmitted(ctx)
	logger.Info(ctx, "Application submitted",
		zap.Stringer("applicationID", app.ID),
		zap.Stringer("userID", userID),
		zap.Int("documents", len(documentIDs)))

	return app, nil
}

func (s *service) resolveDocuments(ctx context.Context, userID domain.UserID, ids []domain.DocumentID) error {
	if len(ids) == 0 {
		return nil
	}

	docs, err := s.storage.DocumentsByIDs(ctx, ids...)
	if err != nil {
		return fmt.Errorf("could not get documents: %w", err)
	}

	owned := make(map[domain.DocumentID]bool, len(docs))
	for _, d := range docs {
		if d.UserID == userID {
			owned[d.ID] = true
		}
	}
	for _, id := range ids {
		if !owned[id] {
			return serrors.With(serrors.ErrUnknownDocument, "document %s not found", id)
		}
	}

	return nil
}

func dedupe(ids []domain.DocumentID) []domain.DocumentID {
	out := make([]domain.DocumentID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}

// Process implements Service. Engine faults and timeouts move the
// application to ERRORED and are not returned. Cancellation of ctx itself
// is returned without a transition so the job can be delivered again.
func (s *service) Process(ctx context.Context, applicationID domain.ApplicationID) error {
	ctx = logger.WithFields(ctx, zap.Stringer("applicationID", applicationID))
	ctx, span := otel.Tracer("application").Start(ctx, "Process",
		trace.WithAttributes(attribute.String("application.id", applicationID.String())))
	defer span.End()

	app, err := s.storage.UpdateApplication(ctx, applicationID, func(app *domain.Application) error {
		if app.State.IsTerminal() {
			return errDecided
		}
		if app.State == domain.ApplicationStateSubmitted {
			app.State = domain.ApplicationStateProcessing
			app.UpdatedAt = s.now()
		}

		return nil
	})
	if errors.Is(err, errDecided) {
		logger.Debug(ctx, "Application already decided, skipping")

		return nil
	}
	if err != nil {
		return fmt.Errorf("could not mark application as processing: %w", err)
	}
	if app == nil {
		return serrors.With(serrors.ErrNotFound, "application %s not found", applicationID)
	}

	docs, err := s.storage.DocumentsByIDs(ctx, app.DocumentIDs...)
	if err != nil {
		return fmt.Errorf("could not get documents: %w", err)
	}

	done := s.metrics.UnderwritingStarted(ctx)
	result, err := s.underwrite(ctx, app, docs)
	if err != nil {
		if ctx.Err() != nil {
			done("cancelled")

			return fmt.Errorf("underwriting interrupted: %w", err)
		}
		done("errored")
		span.SetStatus(codes.Error, err.Error())

		return s.fail(ctx, app, err)
	}
	done("decided")

	return s.decide(ctx, app, result)
}

func (s *service) underwrite(ctx context.Context,
	app *domain.Application,
	docs []domain.Document) (domain.UnderwritingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.options.UnderwritingTimeout)
	defer cancel()

	result, err := s.engine.Underwrite(ctx, app.PersonalInfo, docs, app.LoanDetails)
	if err != nil {
		return result, err
	}
	if err := ledger.Validate(result.Score); err != nil {
		return result, fmt.Errorf("engine returned invalid result: %w", err)
	}
	if err := underwriting.CheckResult(result); err != nil {
		return result, fmt.Errorf("engine returned inconsistent result: %w", err)
	}

	return result, nil
}

// decide moves the application to its terminal state and appends its
// credit score in one transaction.
func (s *service) decide(ctx context.Context, app *domain.Application, result domain.UnderwritingResult) error {
	state := domain.ApplicationStateRejected
	if result.Approved {
		state = domain.ApplicationStateApproved
	}

	err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		now := s.now()
		updated, err := tx.UpdateApplication(ctx, app.ID, func(a *domain.Application) error {
			if !a.State.CanTransitionTo(state) {
				return errDecided
			}
			a.State = state
			a.Result = &result
			a.ApprovedAmount, a.InterestRate = nil, nil
			if result.Approved {
				amount := a.LoanDetails.Amount
				a.ApprovedAmount = &amount
				a.InterestRate = result.InterestRate
			}
			a.UpdatedAt = later(now, a.SubmittedAt)

			return nil
		})
		if err != nil {
			return err
		}
		if updated == nil {
			return serrors.With(serrors.ErrNotFound, "application %s not found", app.ID)
		}

		return ledger.New(tx).Append(ctx, updated.UserID, updated.ID, result.Score, updated.UpdatedAt)
	})
	if errors.Is(err, errDecided) {
		logger.Debug(ctx, "Application decided concurrently, dropping result")

		return nil
	}
	if err != nil {
		return fmt.Errorf("could not record decision: %w", err)
	}

	s.metrics.ApplicationDecided(ctx, string(state))
	logger.Info(ctx, "Application decided",
		zap.String("state", string(state)),
		zap.Int("score", result.Score),
		zap.String("risk", string(result.RiskCategory)))

	return nil
}

// fail moves the application to ERRORED with a reason derived from cause.
func (s *service) fail(ctx context.Context, app *domain.Application, cause error) error {
	reason := "underwriting failed: " + cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = fmt.Sprintf("underwriting timed out after %s", s.options.UnderwritingTimeout)
	}
	failure := serrors.Wrap(serrors.ErrProcessingFailure, cause, "%s", reason)
	logger.Error(ctx, "Underwriting failed", zap.Error(failure))

	_, err := s.storage.UpdateApplication(ctx, app.ID, func(a *domain.Application) error {
		if !a.State.CanTransitionTo(domain.ApplicationStateErrored) {
			return errDecided
		}
		a.State = domain.ApplicationStateErrored
		a.Result, a.ApprovedAmount, a.InterestRate = nil, nil, nil
		a.FailureReason = reason
		a.UpdatedAt = later(s.now(), a.SubmittedAt)

		return nil
	})
	if errors.Is(err, errDecided) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not mark application as errored: %w", err)
	}

	s.metrics.ApplicationDecided(ctx, string(domain.ApplicationStateErrored))

	return nil
}

func later(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}

	return a
}
