package storage

import (
	"context"
	"lending/pkg/domain"
)

// ApplicationMutation mutates a copy of an application inside an update. The
// copy is only published when the mutation returns nil; returning an error
// aborts the update and leaves the stored record untouched.
type ApplicationMutation func(app *domain.Application) error

// ApplicationStorage persists loan applications. Implementations must make
// every update atomic with respect to concurrent readers of the same record:
// a reader observes either the full previous version or the full new one.
type ApplicationStorage interface {
	// StoreApplication inserts an application and returns it as stored. The ID
	// must be set by the caller; ErrDuplicateID is returned if it already exists.
	StoreApplication(ctx context.Context, app domain.Application) (*domain.Application, error)
	// ApplicationByID fetches an application by ID. Returns nil when not found.
	ApplicationByID(ctx context.Context, ID domain.ApplicationID) (*domain.Application, error)
	// UpdateApplication serializes with other writers of the same record, runs
	// mutate on a copy of the current version and stores the result. Returns
	// nil when the application does not exist. Errors from mutate are returned
	// unchanged.
	UpdateApplication(ctx context.Context, ID domain.ApplicationID, mutate ApplicationMutation) (*domain.Application, error)
	// UserApplications returns all applications of a user ordered by
	// submission time, most recent first.
	UserApplications(ctx context.Context, userID domain.UserID) ([]domain.Application, error)
}
