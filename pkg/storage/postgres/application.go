package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

const (
	applicationsTable = "applications"
)

func (p *PgSQL) StoreApplication(ctx context.Context, app domain.Application) (*domain.Application, error) {
	var row PgApplication
	if err := row.FromDomain(app); err != nil {
		return nil, err
	}

	var result PgApplication
	if _, err := p.Builder.Insert(applicationsTable).
		Rows(row).
		Returning(&PgApplication{}).
		Executor().ScanStructContext(ctx, &result); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("could not store application %s: %w", app.ID, storage.ErrDuplicateID)
		}

		return nil, fmt.Errorf("could not store application into pg: %w", err)
	}

	return result.ToDomain()
}

// ApplicationByID returns an application by its ID or nil when it does not exist.
func (p *PgSQL) ApplicationByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	var row PgApplication
	found, err := p.Builder.From(applicationsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch application by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// UpdateApplication locks the row with SELECT ... FOR UPDATE, applies mutate
// and writes the result back. Outside a transaction a short one is opened.
func (p *PgSQL) UpdateApplication(ctx context.Context,
	id domain.ApplicationID,
	mutate storage.ApplicationMutation) (*domain.Application, error) {
	if _, ok := p.DB.(*sql.Tx); !ok {
		var out *domain.Application
		err := p.WithTx(ctx, func(s storage.AllStorage) error {
			var err error
			out, err = s.UpdateApplication(ctx, id, mutate)

			return err //nolint: wrapcheck
		})

		return out, err
	}

	var row PgApplication
	found, err := p.Builder.From(applicationsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		ForUpdate(exp.Wait).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not lock application: %w", err)
	}
	if !found {
		return nil, nil
	}

	current, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := mutate(&next); err != nil {
		return nil, err
	}
	next.ID, next.UserID = current.ID, current.UserID

	var updated PgApplication
	if err := updated.FromDomain(next); err != nil {
		return nil, err
	}
	if _, err := p.Builder.Update(applicationsTable).
		Set(updated).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ExecContext(ctx); err != nil {
		return nil, fmt.Errorf("could not update application in pg: %w", err)
	}

	return &next, nil
}

// UserApplications returns the applications of a user ordered by
// submitted_at DESC, id DESC.
func (p *PgSQL) UserApplications(ctx context.Context, userID domain.UserID) ([]domain.Application, error) {
	var rows []PgApplication
	if err := p.Builder.From(applicationsTable).
		Where(goqu.I("user_id").Eq(uuid.UUID(userID))).
		Order(goqu.I("submitted_at").Desc(), goqu.I("id").Desc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch user applications from pg: %w", err)
	}

	return pgApplicationsToDomain(rows)
}
