// Package ledger records the credit score produced by every completed
// underwriting run and answers score history queries.
package ledger

import (
	"context"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"lending/pkg/storage"
	"time"
)

// SummaryHistory is the number of history entries returned by Summary.
const SummaryHistory = 10

// Summary is the current credit score of a user and their recent history.
type Summary struct {
	// CurrentScore is the most recent score, 0 when the user has none.
	CurrentScore int `json:"currentScore"`
	// History is most recent first.
	History []domain.CreditScoreRecord `json:"history"`
}

//go:generate mockgen -package mockledger -source=ledger.go -destination=mock/mockledger.go *
type Ledger interface {
	Append(ctx context.Context,
		userID domain.UserID,
		applicationID domain.ApplicationID,
		score int,
		timestamp time.Time) error
	// History returns up to limit records, most recent first. A zero limit returns all.
	History(ctx context.Context, userID domain.UserID, limit uint) ([]domain.CreditScoreRecord, error)
	Latest(ctx context.Context, userID domain.UserID) (int, error)
	Summary(ctx context.Context, userID domain.UserID) (*Summary, error)
}

type ledger struct {
	storage storage.LedgerStorage
}

// New creates a Ledger over storage.
func New(storage storage.LedgerStorage) Ledger {
	return &ledger{storage: storage}
}

// Validate checks that score is within the credit score bounds.
func Validate(score int) error {
	if score < domain.MinCreditScore || score > domain.MaxCreditScore {
		return serrors.With(serrors.ErrValidation,
			"score %d outside [%d, %d]", score, domain.MinCreditScore, domain.MaxCreditScore)
	}

	return nil
}

// Append implements Ledger.
func (l *ledger) Append(ctx context.Context,
	userID domain.UserID,
	applicationID domain.ApplicationID,
	score int,
	timestamp time.Time) error {
	if err := Validate(score); err != nil {
		return err
	}

	if err := l.storage.AppendCreditScore(ctx, domain.CreditScoreRecord{
		UserID:        userID,
		ApplicationID: applicationID,
		Score:         score,
		Timestamp:     timestamp,
	}); err != nil {
		return fmt.Errorf("could not append credit score: %w", err)
	}

	return nil
}

// History implements Ledger.
func (l *ledger) History(ctx context.Context, userID domain.UserID, limit uint) ([]domain.CreditScoreRecord, error) {
	records, err := l.storage.CreditScoreHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("could not get credit score history: %w", err)
	}

	return records, nil
}

// Latest implements Ledger.
func (l *ledger) Latest(ctx context.Context, userID domain.UserID) (int, error) {
	records, err := l.History(ctx, userID, 1)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	return records[0].Score, nil
}

// Summary implements Ledger.
func (l *ledger) Summary(ctx context.Context, userID domain.UserID) (*Summary, error) {
	records, err := l.History(ctx, userID, SummaryHistory)
	if err != nil {
		return nil, err
	}

	summary := &Summary{History: records}
	if summary.History == nil {
		summary.History = []domain.CreditScoreRecord{}
	}
	if len(records) > 0 {
		summary.CurrentScore = records[0].Score
	}

	return summary, nil
}
