package memory

import (
	"context"
	"lending/pkg/domain"
	"slices"
)

// AppendCreditScore appends record to the user's ledger. The ledger is kept
// ordered by timestamp; records with equal timestamps keep arrival order.
func (m *Memory) AppendCreditScore(ctx context.Context, record domain.CreditScoreRecord) error {
	_, err := m.appendCreditScore(ctx, record)

	return err
}

func (m *Memory) appendCreditScore(ctx context.Context, record domain.CreditScoreRecord) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.ledger.upsert(record.UserID, func(records []domain.CreditScoreRecord, _ bool) []domain.CreditScoreRecord {
		i := len(records)
		for i > 0 && records[i-1].Timestamp.After(record.Timestamp) {
			i--
		}

		return slices.Insert(records, i, record)
	})

	undo := func() {
		m.ledger.upsert(record.UserID, func(records []domain.CreditScoreRecord, _ bool) []domain.CreditScoreRecord {
			for i := len(records) - 1; i >= 0; i-- {
				if records[i].ApplicationID == record.ApplicationID && records[i].Timestamp.Equal(record.Timestamp) {
					return slices.Delete(records, i, i+1)
				}
			}

			return records
		})
	}

	return undo, nil
}

// CreditScoreHistory returns up to limit records, most recent first. A zero
// limit returns the whole ledger.
func (m *Memory) CreditScoreHistory(ctx context.Context,
	userID domain.UserID,
	limit uint) ([]domain.CreditScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.CreditScoreRecord
	m.ledger.view(userID, func(records []domain.CreditScoreRecord, _ bool) {
		n := uint(len(records))
		if limit > 0 && limit < n {
			n = limit
		}

		out = make([]domain.CreditScoreRecord, 0, n)
		for i := len(records) - 1; i >= 0 && uint(len(out)) < n; i-- {
			out = append(out, records[i])
		}
	})

	return out, nil
}

func (t *tx) AppendCreditScore(ctx context.Context, record domain.CreditScoreRecord) error {
	if err := t.active(); err != nil {
		return err
	}

	undo, err := t.m.appendCreditScore(ctx, record)
	if err != nil {
		return err
	}

	return t.record(undo)
}

func (t *tx) CreditScoreHistory(ctx context.Context,
	userID domain.UserID,
	limit uint) ([]domain.CreditScoreRecord, error) {
	if err := t.active(); err != nil {
		return nil, err
	}

	return t.m.CreditScoreHistory(ctx, userID, limit)
}
