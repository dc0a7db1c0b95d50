package postgres

import (
	"context"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	documentsTable = "documents"
)

func (p *PgSQL) StoreDocument(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	var row PgDocument
	if err := row.FromDomain(doc); err != nil {
		return nil, err
	}

	var result PgDocument
	if _, err := p.Builder.Insert(documentsTable).
		Rows(row).
		Returning(&PgDocument{}).
		Executor().ScanStructContext(ctx, &result); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("could not store document %s: %w", doc.ID, storage.ErrDuplicateID)
		}

		return nil, fmt.Errorf("could not store document into pg: %w", err)
	}

	return result.ToDomain()
}

// DocumentByID returns a document by its ID or nil when it does not exist.
func (p *PgSQL) DocumentByID(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	var row PgDocument
	found, err := p.Builder.From(documentsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch document by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

func (p *PgSQL) DocumentsByIDs(ctx context.Context, ids ...domain.DocumentID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	in := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		in[i] = uuid.UUID(id)
	}

	var rows []PgDocument
	if err := p.Builder.From(documentsTable).
		Where(goqu.I("id").In(in)).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch documents by ids: %w", err)
	}

	return pgDocumentsToDomain(rows)
}
