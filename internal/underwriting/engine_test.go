package underwriting_test

import (
	"context"
	"errors"
	"lending/internal/underwriting"
	mockunderwriting "lending/internal/underwriting/mock"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	info = domain.PersonalInfo{Name: "A", MonthlyIncome: 40000}
	loan = domain.LoanDetails{Amount: 100000, TenureMonths: 12}
)

func TestSimulatedEngine_ScoresAfterLatency(t *testing.T) {
	e := underwriting.NewSimulatedEngine(20 * time.Millisecond)

	start := time.Now()
	res, err := e.Underwrite(context.Background(), info, nil, loan)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	require.Equal(t, underwriting.Score(info, nil, loan), res)
}

func TestSimulatedEngine_HonoursCancellation(t *testing.T) {
	e := underwriting.NewSimulatedEngine(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Underwrite(ctx, info, nil, loan)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func fastRetry() underwriting.ResilienceOptions {
	return underwriting.ResilienceOptions{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestResilientEngine_RetriesTransientFaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mockunderwriting.NewMockEngine(ctrl)
	want := domain.UnderwritingResult{Score: 85, Approved: true}

	gomock.InOrder(
		next.EXPECT().Underwrite(gomock.Any(), info, gomock.Any(), loan).
			Return(domain.UnderwritingResult{}, serrors.KindOnly(serrors.ErrUnavailable)),
		next.EXPECT().Underwrite(gomock.Any(), info, gomock.Any(), loan).
			Return(domain.UnderwritingResult{}, serrors.KindOnly(serrors.ErrTimeout)),
		next.EXPECT().Underwrite(gomock.Any(), info, gomock.Any(), loan).Return(want, nil),
	)

	res, err := underwriting.NewResilientEngine(next, fastRetry()).Underwrite(context.Background(), info, nil, loan)
	require.NoError(t, err)
	require.Equal(t, want, res)
}

func TestResilientEngine_DoesNotRetryPermanentFaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mockunderwriting.NewMockEngine(ctrl)
	errModel := errors.New("model rejected input")

	next.EXPECT().Underwrite(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.UnderwritingResult{}, errModel).Times(1)

	_, err := underwriting.NewResilientEngine(next, fastRetry()).Underwrite(context.Background(), info, nil, loan)
	require.ErrorIs(t, err, errModel)
}

func TestResilientEngine_GivesUpAfterMaxAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mockunderwriting.NewMockEngine(ctrl)

	next.EXPECT().Underwrite(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.UnderwritingResult{}, serrors.KindOnly(serrors.ErrUnavailable)).Times(3)

	_, err := underwriting.NewResilientEngine(next, fastRetry()).Underwrite(context.Background(), info, nil, loan)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
}

func TestResilientEngine_BreakerOpens(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mockunderwriting.NewMockEngine(ctrl)
	errDown := errors.New("down")

	opts := underwriting.ResilienceOptions{
		MaxAttempts:         1,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 1,
		BreakerOpenTimeout:  time.Hour,
	}
	e := underwriting.NewResilientEngine(next, opts)

	next.EXPECT().Underwrite(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.UnderwritingResult{}, errDown).Times(2)

	for range 2 {
		_, err := e.Underwrite(context.Background(), info, nil, loan)
		require.ErrorIs(t, err, errDown)
	}

	// the breaker is open now and the engine is not called again
	_, err := e.Underwrite(context.Background(), info, nil, loan)
	require.True(t, underwriting.IsCircuitOpen(err))
	require.ErrorIs(t, err, serrors.ErrUnavailable)
}
