package memory

import (
	"context"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/storage"
	"maps"
)

func cloneDocument(d domain.Document) domain.Document {
	out := d
	if d.Extracted.Fields != nil {
		out.Extracted.Fields = maps.Clone(d.Extracted.Fields)
	}

	return out
}

// StoreDocument inserts doc. ErrDuplicateID is returned when the ID is taken.
func (m *Memory) StoreDocument(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	_, res, err := m.storeDocument(ctx, doc)

	return res, err
}

func (m *Memory) storeDocument(ctx context.Context, doc domain.Document) (func(), *domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if !m.documents.insert(doc.ID, cloneDocument(doc)) {
		return nil, nil, fmt.Errorf("could not store document %s: %w", doc.ID, storage.ErrDuplicateID)
	}
	out := cloneDocument(doc)

	return func() { m.documents.remove(doc.ID) }, &out, nil
}

// DocumentByID returns the document or nil when it does not exist.
func (m *Memory) DocumentByID(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, ok := m.documents.get(id)
	if !ok {
		return nil, nil
	}
	out := cloneDocument(doc)

	return &out, nil
}

// DocumentsByIDs returns the subset of ids that exist, in the order given.
// Repeated IDs are returned once.
func (m *Memory) DocumentsByIDs(ctx context.Context, ids ...domain.DocumentID) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[domain.DocumentID]struct{}, len(ids))
	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if doc, ok := m.documents.get(id); ok {
			out = append(out, cloneDocument(doc))
		}
	}

	return out, nil
}

func (t *tx) StoreDocument(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	undo, res, err := t.m.storeDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := t.record(undo); err != nil {
		return nil, err
	}

	return res, nil
}

func (t *tx) DocumentByID(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	return t.m.DocumentByID(ctx, id)
}

func (t *tx) DocumentsByIDs(ctx context.Context, ids ...domain.DocumentID) ([]domain.Document, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	return t.m.DocumentsByIDs(ctx, ids...)
}
