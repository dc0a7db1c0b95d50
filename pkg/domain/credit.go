package domain

import "time"

const (
	// MinCreditScore is the lowest possible score.
	MinCreditScore = 0
	// MaxCreditScore is the highest possible score.
	MaxCreditScore = 100
)

// CreditScoreRecord is one append-only ledger entry produced by a completed
// underwriting run.
type CreditScoreRecord struct {
	// UserID is the user the score belongs to.
	UserID UserID `json:"userId"`
	// ApplicationID is the application whose underwriting produced the score.
	ApplicationID ApplicationID `json:"applicationId"`
	// Score is in [MinCreditScore, MaxCreditScore].
	Score int `json:"score"`
	// Timestamp is when the underwriting run completed.
	Timestamp time.Time `json:"timestamp"`
}
