// Package underwriting scores loan applications and decides approval, risk
// and pricing.
package underwriting

import (
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"math"
)

const (
	// BaseScore is the starting score of every application.
	BaseScore = 70
	// ApprovalThreshold is the minimum score for approval.
	ApprovalThreshold = 75
	// LowRiskThreshold is the minimum score of the low risk category.
	LowRiskThreshold = 85

	// LowRiskRate is the annual interest rate in percent for low risk approvals.
	LowRiskRate = 10.5
	// MediumRiskRate is the annual interest rate in percent for medium risk approvals.
	MediumRiskRate = 12.5

	// CompleteDocumentation is the document count that earns the documentation bonus.
	CompleteDocumentation = 3

	favorableRatio = 0.3
	excessiveRatio = 0.5
)

type incomeBand struct {
	min    float64
	bonus  int
	reason string
}

// bands are ordered from the highest income down; the first match applies.
var bands = []incomeBand{ //nolint: gochecknoglobals
	{min: 50000, bonus: 20, reason: "Excellent income level"},
	{min: 30000, bonus: 15, reason: "Good income level"},
	{min: 20000, bonus: 10, reason: "Adequate income level"},
}

// Score applies the underwriting rules to an application. It is pure and
// safe for concurrent use. Only the number of documents is considered.
func Score(info domain.PersonalInfo, docs []domain.Document, loan domain.LoanDetails) domain.UnderwritingResult {
	score := BaseScore
	reasons := []string{}

	for _, b := range bands {
		if info.MonthlyIncome >= b.min {
			score += b.bonus
			reasons = append(reasons, b.reason)

			break
		}
	}

	if len(docs) >= CompleteDocumentation {
		score += 10
		reasons = append(reasons, "Complete documentation")
	}

	switch ratio := LoanToIncomeRatio(loan.Amount, info.MonthlyIncome); {
	case ratio < favorableRatio:
		score += 10
		reasons = append(reasons, "Favorable loan-to-income ratio")
	case ratio > excessiveRatio:
		score -= 10
		reasons = append(reasons, "High loan-to-income ratio")
	}

	score = min(max(score, domain.MinCreditScore), domain.MaxCreditScore)
	risk := Risk(score)
	result := domain.UnderwritingResult{
		Score:        score,
		Approved:     score >= ApprovalThreshold,
		RiskCategory: risk,
		Reasons:      reasons,
	}
	if result.Approved {
		rate := Rate(risk)
		result.InterestRate = &rate
		result.Reasons = append(result.Reasons, "Score meets approval threshold")
	} else {
		result.Reasons = append(result.Reasons, "Score below approval threshold")
	}

	return result
}

// CheckResult reports whether an engine result is internally consistent:
// the approval and risk category follow from the score, and an interest
// rate is priced for approvals only.
func CheckResult(result domain.UnderwritingResult) error {
	switch {
	case result.Approved != (result.Score >= ApprovalThreshold):
		return serrors.With(serrors.ErrValidation,
			"approved=%t does not match score %d", result.Approved, result.Score)
	case result.RiskCategory != Risk(result.Score):
		return serrors.With(serrors.ErrValidation,
			"risk category %q does not match score %d", result.RiskCategory, result.Score)
	case result.Approved && (result.InterestRate == nil || *result.InterestRate <= 0):
		return serrors.With(serrors.ErrValidation, "approved result has no interest rate")
	case !result.Approved && result.InterestRate != nil:
		return serrors.With(serrors.ErrValidation, "rejected result carries an interest rate")
	}

	return nil
}

// LoanToIncomeRatio returns amount divided by the annualized monthly income.
// Zero or negative income yields +Inf.
func LoanToIncomeRatio(amount, monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return math.Inf(1)
	}

	return amount / (monthlyIncome * 12)
}

// Risk maps a score to its risk category.
func Risk(score int) domain.RiskCategory {
	switch {
	case score >= LowRiskThreshold:
		return domain.RiskCategoryLow
	case score >= ApprovalThreshold:
		return domain.RiskCategoryMedium
	default:
		return domain.RiskCategoryHigh
	}
}

// Rate returns the interest rate of an approved application in the given
// risk category.
func Rate(risk domain.RiskCategory) float64 {
	if risk == domain.RiskCategoryLow {
		return LowRiskRate
	}

	return MediumRiskRate
}
