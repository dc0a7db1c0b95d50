package domain

import "github.com/google/uuid"

// UserID uniquely identifies a user within the system. Users are owned by the
// identity service; this module only ever references them by ID.
type UserID uuid.UUID

// String returns the canonical UUID representation.
func (u UserID) String() string { return uuid.UUID(u).String() }

// MarshalText encodes the ID as a canonical UUID string.
func (u UserID) MarshalText() ([]byte, error) { return uuid.UUID(u).MarshalText() }

// UnmarshalText decodes a UUID string.
func (u *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(u).UnmarshalText(b)
}

// IsZero reports whether the ID is unset.
func (u UserID) IsZero() bool { return uuid.UUID(u) == uuid.Nil }
