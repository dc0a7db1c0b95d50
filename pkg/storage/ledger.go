package storage

import (
	"context"
	"lending/pkg/domain"
)

// LedgerStorage persists the append-only credit score ledger.
type LedgerStorage interface {
	// AppendCreditScore appends a record to the user's ledger. Appends for the
	// same user are serialized in arrival order.
	AppendCreditScore(ctx context.Context, record domain.CreditScoreRecord) error
	// CreditScoreHistory returns up to limit records for the user ordered by
	// timestamp, most recent first. A zero limit returns every record.
	CreditScoreHistory(ctx context.Context, userID domain.UserID, limit uint) ([]domain.CreditScoreRecord, error)
}
