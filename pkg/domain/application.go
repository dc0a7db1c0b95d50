package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationID uniquely identifies a loan application.
type ApplicationID uuid.UUID

// String returns the canonical UUID representation.
func (a ApplicationID) String() string { return uuid.UUID(a).String() }

// MarshalText encodes the ID as a canonical UUID string.
func (a ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(a).MarshalText() }

// UnmarshalText decodes a UUID string.
func (a *ApplicationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(a).UnmarshalText(b)
}

// ApplicationState represents the lifecycle state of a loan application.
//
//	SUBMITTED -> PROCESSING -> APPROVED | REJECTED | ERRORED
type ApplicationState string

const (
	// ApplicationStateSubmitted is the initial state; underwriting is queued but not started.
	ApplicationStateSubmitted ApplicationState = "SUBMITTED"
	// ApplicationStateProcessing indicates underwriting is in flight.
	ApplicationStateProcessing ApplicationState = "PROCESSING"
	// ApplicationStateApproved is terminal: the loan was approved and priced.
	ApplicationStateApproved ApplicationState = "APPROVED"
	// ApplicationStateRejected is terminal: the loan was declined.
	ApplicationStateRejected ApplicationState = "REJECTED"
	// ApplicationStateErrored is terminal: underwriting failed; see FailureReason.
	ApplicationStateErrored ApplicationState = "ERRORED"
)

// IsTerminal reports whether no further transition may happen from s.
func (s ApplicationState) IsTerminal() bool {
	switch s {
	case ApplicationStateApproved, ApplicationStateRejected, ApplicationStateErrored:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
func (s ApplicationState) CanTransitionTo(next ApplicationState) bool {
	switch s {
	case ApplicationStateSubmitted:
		return next == ApplicationStateProcessing || next.IsTerminal()
	case ApplicationStateProcessing:
		return next.IsTerminal()
	default:
		return false
	}
}

// RiskCategory is the coarse risk bucket derived from the underwriting score.
type RiskCategory string

const (
	RiskCategoryLow    RiskCategory = "low"
	RiskCategoryMedium RiskCategory = "medium"
	RiskCategoryHigh   RiskCategory = "high"
)

// PersonalInfo holds the applicant facts relevant to underwriting.
type PersonalInfo struct {
	Name          string  `json:"name"          validate:"required,max=200"`
	Phone         string  `json:"phone"         validate:"omitempty,max=20"`
	Email         string  `json:"email"         validate:"omitempty,email"`
	Address       string  `json:"address"       validate:"omitempty,max=500"`
	Pincode       string  `json:"pincode"       validate:"omitempty,numeric,len=6"`
	Occupation    string  `json:"occupation"    validate:"omitempty,max=100"`
	MonthlyIncome float64 `json:"monthlyIncome" validate:"gte=0"`
}

// LoanDetails describes the requested loan.
type LoanDetails struct {
	// Amount is the requested principal.
	Amount float64 `json:"amount" validate:"gt=0"`
	// TenureMonths is the repayment period in months.
	TenureMonths int `json:"tenure" validate:"gt=0,lte=360"`
	// Purpose is an optional free-text purpose.
	Purpose string `json:"purpose,omitempty" validate:"omitempty,max=200"`
}

// UnderwritingResult is the outcome of scoring an application.
type UnderwritingResult struct {
	// Score is the final clamped score in [0, 100].
	Score int `json:"score"`
	// Approved is true when Score reaches the approval threshold.
	Approved bool `json:"approved"`
	// RiskCategory is computed for every result, approved or not.
	RiskCategory RiskCategory `json:"riskCategory"`
	// InterestRate is the annual rate in percent; nil when not approved.
	InterestRate *float64 `json:"interestRate"`
	// Reasons explains the decision.
	Reasons []string `json:"reasons"`
}

// Application is a loan application and its current lifecycle state.
//
// Invariants:
//   - UpdatedAt >= SubmittedAt.
//   - Result is set iff State is APPROVED or REJECTED.
//   - ApprovedAmount and InterestRate are set iff State is APPROVED.
//   - FailureReason is non-empty iff State is ERRORED.
type Application struct {
	// ID is the unique identifier of the application.
	ID ApplicationID `json:"id"`
	// UserID is the applicant.
	UserID UserID `json:"userId"`

	PersonalInfo PersonalInfo `json:"personalInfo"`
	LoanDetails  LoanDetails  `json:"loanDetails"`
	// DocumentIDs lists the documents referenced by the application.
	DocumentIDs []DocumentID `json:"documents"`

	// State is the current lifecycle state.
	State ApplicationState `json:"status"`
	// Result is the underwriting outcome, present in APPROVED and REJECTED.
	Result *UnderwritingResult `json:"aiResult,omitempty"`
	// ApprovedAmount is the approved principal, present only in APPROVED.
	ApprovedAmount *float64 `json:"approvedAmount,omitempty"`
	// InterestRate is the approved annual rate, present only in APPROVED.
	InterestRate *float64 `json:"interestRate,omitempty"`
	// FailureReason records why underwriting failed, present only in ERRORED.
	FailureReason string `json:"failureReason,omitempty"`

	// SubmittedAt is when the application was accepted.
	SubmittedAt time.Time `json:"submittedAt"`
	// UpdatedAt is when the application last changed.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of a so callers never share mutable state.
func (a Application) Clone() Application {
	out := a
	if a.DocumentIDs != nil {
		out.DocumentIDs = append([]DocumentID(nil), a.DocumentIDs...)
	}
	if a.Result != nil {
		r := *a.Result
		if a.Result.InterestRate != nil {
			rate := *a.Result.InterestRate
			r.InterestRate = &rate
		}
		r.Reasons = append([]string(nil), a.Result.Reasons...)
		out.Result = &r
	}
	if a.ApprovedAmount != nil {
		v := *a.ApprovedAmount
		out.ApprovedAmount = &v
	}
	if a.InterestRate != nil {
		v := *a.InterestRate
		out.InterestRate = &v
	}

	return out
}
