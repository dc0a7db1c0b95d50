package underwriting

import (
	"context"
	"lending/pkg/domain"
	"time"
)

// DefaultLatency is the reference duration of a simulated underwriting run.
const DefaultLatency = 2 * time.Second

//go:generate mockgen -package mockunderwriting -source=engine.go -destination=mock/mockunderwriting.go *
type Engine interface {
	// Underwrite scores an application. It may block and must honour ctx.
	Underwrite(ctx context.Context,
		info domain.PersonalInfo,
		docs []domain.Document,
		loan domain.LoanDetails) (domain.UnderwritingResult, error)
}

// SimulatedEngine stands in for an external underwriting model: it waits
// Latency and then applies Score.
type SimulatedEngine struct {
	Latency time.Duration
}

var _ Engine = SimulatedEngine{}

// NewSimulatedEngine returns an engine that takes latency per run.
func NewSimulatedEngine(latency time.Duration) SimulatedEngine {
	return SimulatedEngine{Latency: latency}
}

// Underwrite implements Engine.
func (e SimulatedEngine) Underwrite(ctx context.Context,
	info domain.PersonalInfo,
	docs []domain.Document,
	loan domain.LoanDetails) (domain.UnderwritingResult, error) {
	if e.Latency > 0 {
		timer := time.NewTimer(e.Latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return domain.UnderwritingResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return domain.UnderwritingResult{}, err
	}

	return Score(info, docs, loan), nil
}
