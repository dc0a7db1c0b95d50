package storage

import "errors"

// Common errors returned by storage implementations.
var (
	// ErrAlreadyInTx is returned when an operation requiring a non-transactional
	// context is attempted while already inside a transaction.
	ErrAlreadyInTx = errors.New("already in tx")
	// ErrNotInTx is returned when a transaction-specific operation is attempted
	// while not currently inside a transaction.
	ErrNotInTx = errors.New("not in tx")
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("tx already committed or rolled back")
	// ErrDuplicateID is returned when a record with the same ID already exists.
	ErrDuplicateID = errors.New("duplicate id")
)
