package application

import (
	"context"
	"lending/pkg/domain"
)

//go:generate mockgen -package mockapplication -source=interface.go -destination=mock/mockapplication.go *
type Service interface {
	// Submit validates and stores a new application and queues its
	// underwriting. It never waits for the underwriting engine.
	Submit(ctx context.Context,
		userID domain.UserID,
		info domain.PersonalInfo,
		documentIDs []domain.DocumentID,
		loan domain.LoanDetails) (*domain.Application, error)
	// Process underwrites a submitted application and records the decision.
	// Processing an application that is already decided is a no-op.
	Process(ctx context.Context, applicationID domain.ApplicationID) error
}
