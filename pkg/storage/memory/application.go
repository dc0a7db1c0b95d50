package memory

import (
	"context"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/storage"
	"slices"
)

// StoreApplication inserts app and indexes it by user.
func (m *Memory) StoreApplication(ctx context.Context, app domain.Application) (*domain.Application, error) {
	_, res, err := m.storeApplication(ctx, app)

	return res, err
}

func (m *Memory) storeApplication(ctx context.Context, app domain.Application) (func(), *domain.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if !m.applications.insert(app.ID, app.Clone()) {
		return nil, nil, fmt.Errorf("could not store application %s: %w", app.ID, storage.ErrDuplicateID)
	}
	m.userApplications.upsert(app.UserID, func(ids []domain.ApplicationID, _ bool) []domain.ApplicationID {
		return append(ids, app.ID)
	})

	undo := func() {
		m.userApplications.upsert(app.UserID, func(ids []domain.ApplicationID, _ bool) []domain.ApplicationID {
			return slices.DeleteFunc(ids, func(id domain.ApplicationID) bool { return id == app.ID })
		})
		m.applications.remove(app.ID)
	}
	out := app.Clone()

	return undo, &out, nil
}

// ApplicationByID returns a snapshot of the application or nil when it does not exist.
func (m *Memory) ApplicationByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	app, ok := m.applications.get(id)
	if !ok {
		return nil, nil
	}
	out := app.Clone()

	return &out, nil
}

// UpdateApplication runs mutate on a copy of the application under the write
// lock of its shard and publishes the copy in one step. ID and UserID cannot
// be changed by mutate.
func (m *Memory) UpdateApplication(ctx context.Context,
	id domain.ApplicationID,
	mutate storage.ApplicationMutation) (*domain.Application, error) {
	_, res, err := m.updateApplication(ctx, id, mutate)

	return res, err
}

func (m *Memory) updateApplication(ctx context.Context,
	id domain.ApplicationID,
	mutate storage.ApplicationMutation) (func(), *domain.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var prev domain.Application
	updated, found, err := m.applications.update(id, func(cur domain.Application) (domain.Application, error) {
		next := cur.Clone()
		if err := mutate(&next); err != nil {
			return cur, err
		}
		next.ID, next.UserID = cur.ID, cur.UserID
		prev = cur

		return next, nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, nil
	}

	undo := func() {
		_, _, _ = m.applications.update(id, func(domain.Application) (domain.Application, error) {
			return prev, nil
		})
	}
	out := updated.Clone()

	return undo, &out, nil
}

// UserApplications returns snapshots of the user's applications, most recent
// submission first. Applications submitted at the same instant keep reverse
// insertion order.
func (m *Memory) UserApplications(ctx context.Context, userID domain.UserID) ([]domain.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []domain.ApplicationID
	m.userApplications.view(userID, func(v []domain.ApplicationID, _ bool) {
		ids = slices.Clone(v)
	})

	out := make([]domain.Application, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if app, ok := m.applications.get(ids[i]); ok {
			out = append(out, app.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Application) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})

	return out, nil
}

func (t *tx) StoreApplication(ctx context.Context, app domain.Application) (*domain.Application, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	undo, res, err := t.m.storeApplication(ctx, app)
	if err != nil {
		return nil, err
	}
	if err := t.record(undo); err != nil {
		return nil, err
	}

	return res, nil
}

func (t *tx) ApplicationByID(ctx context.Context, id domain.ApplicationID) (*domain.Application, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	return t.m.ApplicationByID(ctx, id)
}

func (t *tx) UpdateApplication(ctx context.Context,
	id domain.ApplicationID,
	mutate storage.ApplicationMutation) (*domain.Application, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	undo, res, err := t.m.updateApplication(ctx, id, mutate)
	if err != nil || res == nil {
		return res, err
	}
	if err := t.record(undo); err != nil {
		return nil, err
	}

	return res, nil
}

func (t *tx) UserApplications(ctx context.Context, userID domain.UserID) ([]domain.Application, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	return t.m.UserApplications(ctx, userID)
}
