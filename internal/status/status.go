// Package status answers read-only queries about loan applications.
package status

import (
	"context"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"lending/pkg/storage"
	"time"
)

// Summary is the list view of an application.
type Summary struct {
	ID           domain.ApplicationID    `json:"id"`
	State        domain.ApplicationState `json:"status"`
	Amount       float64                 `json:"amount"`
	TenureMonths int                     `json:"tenure"`
	Score        *int                    `json:"score,omitempty"`
	SubmittedAt  time.Time               `json:"submittedAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// Summarize returns the list view of app.
func Summarize(app domain.Application) Summary {
	s := Summary{
		ID:           app.ID,
		State:        app.State,
		Amount:       app.LoanDetails.Amount,
		TenureMonths: app.LoanDetails.TenureMonths,
		SubmittedAt:  app.SubmittedAt,
		UpdatedAt:    app.UpdatedAt,
	}
	if app.Result != nil {
		score := app.Result.Score
		s.Score = &score
	}

	return s
}

//go:generate mockgen -package mockstatus -source=status.go -destination=mock/mockstatus.go *
type Service interface {
	// Status returns a snapshot of the application or a not-found error.
	Status(ctx context.Context, applicationID domain.ApplicationID) (*domain.Application, error)
	// UserApplications returns the user's applications, most recent submission first.
	UserApplications(ctx context.Context, userID domain.UserID) ([]Summary, error)
}

type service struct {
	storage storage.ApplicationStorage
}

// New creates a Service reading from storage.
func New(storage storage.ApplicationStorage) Service {
	return &service{storage: storage}
}

func (s *service) Status(ctx context.Context, applicationID domain.ApplicationID) (*domain.Application, error) {
	app, err := s.storage.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("could not get application: %w", err)
	}
	if app == nil {
		return nil, serrors.With(serrors.ErrNotFound, "application not found")
	}

	return app, nil
}

func (s *service) UserApplications(ctx context.Context, userID domain.UserID) ([]Summary, error) {
	apps, err := s.storage.UserApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not get user applications: %w", err)
	}

	out := make([]Summary, 0, len(apps))
	for _, app := range apps {
		out = append(out, Summarize(app))
	}

	return out, nil
}
