// Package storage defines the storage interfaces the loan pipeline relies on.
// It abstracts persistence of documents, applications and the credit score
// ledger, plus job enqueueing and transaction management, so that the
// process-held backend (memory) and PostgreSQL can be swapped freely.
package storage

import "context"

// AllStorage is a composite interface that includes all domain-specific storage
// capabilities required by the application.
type AllStorage interface {
	DocumentStorage
	ApplicationStorage
	LedgerStorage
	JobStorage
}

// TxStorage describes a storage handle that operates within a transaction. It
// exposes the same domain-specific capabilities as AllStorage, and additionally
// allows committing or rolling back the ongoing transaction. Implementations
// should become unusable after Commit or Rollback is called.
type TxStorage interface {
	AllStorage

	// Commit finalizes the transaction, persisting all changes.
	Commit() error
	// Rollback aborts the transaction, discarding all uncommitted changes.
	Rollback() error
}

// Storage describes a non-transactional storage handle with the ability to
// start transactions.
type Storage interface {
	AllStorage

	// Close releases any resources held by the storage implementation. After
	// Close, the instance should not be used.
	Close() error

	// Begin starts a new transaction and returns a TxStorage that can be used to
	// perform further operations within that transaction.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx begins a transaction, invokes the callback with it, and commits on
	// success or rolls back if the callback returns an error.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}
