package storage

import (
	"context"
	"lending/pkg/domain"
)

// DocumentStorage persists extracted documents. Documents are immutable so
// there is no update operation.
type DocumentStorage interface {
	// StoreDocument inserts a document and returns it as stored. The ID must be
	// set by the caller; ErrDuplicateID is returned if it already exists.
	StoreDocument(ctx context.Context, doc domain.Document) (*domain.Document, error)
	// DocumentByID fetches a document by ID. Returns nil when not found.
	DocumentByID(ctx context.Context, ID domain.DocumentID) (*domain.Document, error)
	// DocumentsByIDs fetches all documents whose ID is in ids. Unknown IDs are
	// simply absent from the result; order is not guaranteed.
	DocumentsByIDs(ctx context.Context, ids ...domain.DocumentID) ([]domain.Document, error)
}
