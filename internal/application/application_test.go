package application_test

import (
	"context"
	"errors"
	"lending/internal/application"
	"lending/internal/ledger"
	"lending/internal/underwriting"
	mockunderwriting "lending/internal/underwriting/mock"
	"lending/pkg/domain"
	"lending/pkg/logger"
	"lending/pkg/serrors"
	"lending/pkg/storage/memory"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

// queue records dispatched jobs without running them.
type queue struct {
	mu   sync.Mutex
	jobs []application.JobArgs
}

func (q *queue) Dispatch(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.jobs = append(q.jobs, args.(application.JobArgs))

	return true, nil
}

func (q *queue) all() []application.JobArgs {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]application.JobArgs(nil), q.jobs...)
}

// runner processes every dispatched job in its own goroutine.
type runner struct {
	svc application.Service
	wg  sync.WaitGroup
}

func (r *runner) Dispatch(ctx context.Context, args river.JobArgs, _ *river.InsertOpts) (bool, error) {
	id := args.(application.JobArgs).ApplicationID
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.svc.Process(context.WithoutCancel(ctx), id)
	}()

	return true, nil
}

var (
	goodInfo = domain.PersonalInfo{
		Name:          "Ram Kumar Sharma",
		Email:         "ram@example.com",
		Pincode:       "250001",
		MonthlyIncome: 40000,
	}
	goodLoan = domain.LoanDetails{Amount: 40000 * 12 * 0.4, TenureMonths: 24}
)

func storeDocs(t *testing.T, st *memory.Memory, userID domain.UserID, n int) []domain.DocumentID {
	t.Helper()

	ids := make([]domain.DocumentID, 0, n)
	for range n {
		doc, err := st.StoreDocument(context.Background(), domain.Document{
			ID:     domain.DocumentID(uuid.New()),
			UserID: userID,
		})
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}

	return ids
}

func TestSubmit_StoresAndQueues(t *testing.T) {
	ctx := context.Background()
	q := &queue{}
	st := memory.New(memory.Options{Dispatcher: q})
	svc := application.New(st, underwriting.NewSimulatedEngine(time.Hour), nil, application.Options{})
	userID := domain.UserID(uuid.New())
	docIDs := storeDocs(t, st, userID, 2)

	start := time.Now()
	app, err := svc.Submit(ctx, userID, goodInfo, append(docIDs, docIDs[0]), goodLoan)
	require.NoError(t, err)
	// the engine takes an hour; submission must not wait for it
	require.Less(t, time.Since(start), time.Second)

	require.Equal(t, domain.ApplicationStateSubmitted, app.State)
	require.Equal(t, docIDs, app.DocumentIDs)
	require.Nil(t, app.Result)
	require.Equal(t, app.SubmittedAt, app.UpdatedAt)

	jobs := q.all()
	require.Len(t, jobs, 1)
	require.Equal(t, app.ID, jobs[0].ApplicationID)

	stored, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, app, stored)
}

func TestSubmit_ValidationError(t *testing.T) {
	ctx := context.Background()
	q := &queue{}
	st := memory.New(memory.Options{Dispatcher: q})
	svc := application.New(st, underwriting.NewSimulatedEngine(0), nil, application.Options{})
	userID := domain.UserID(uuid.New())

	tests := []struct {
		name string
		info domain.PersonalInfo
		loan domain.LoanDetails
		msg  string
	}{
		{"missing name", domain.PersonalInfo{MonthlyIncome: 1000}, goodLoan, "personalInfo.name is required"},
		{"zero amount", goodInfo, domain.LoanDetails{TenureMonths: 12}, "loanDetails.amount must be greater than 0"},
		{"negative income", domain.PersonalInfo{Name: "A", MonthlyIncome: -1}, goodLoan, "personalInfo.monthlyIncome must be at least 0"},
		{"bad email", domain.PersonalInfo{Name: "A", Email: "nope"}, goodLoan, "personalInfo.email must be a valid email"},
		{"bad pincode", domain.PersonalInfo{Name: "A", Pincode: "12"}, goodLoan, "personalInfo.pincode must be 6 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := svc.Submit(ctx, userID, tt.info, nil, tt.loan)
			require.ErrorIs(t, err, serrors.ErrValidation)
			require.Nil(t, app)

			var se *serrors.Error
			require.ErrorAs(t, err, &se)
			require.Contains(t, se.Message(), tt.msg)
		})
	}

	apps, err := st.UserApplications(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, apps)
	require.Empty(t, q.all())
}

func TestSubmit_UnknownDocument(t *testing.T) {
	ctx := context.Background()
	q := &queue{}
	st := memory.New(memory.Options{Dispatcher: q})
	svc := application.New(st, underwriting.NewSimulatedEngine(0), nil, application.Options{})
	userID := domain.UserID(uuid.New())
	owned := storeDocs(t, st, userID, 1)
	foreign := storeDocs(t, st, domain.UserID(uuid.New()), 1)

	for name, ids := range map[string][]domain.DocumentID{
		"missing":          {owned[0], domain.DocumentID(uuid.New())},
		"other user's doc": {owned[0], foreign[0]},
	} {
		t.Run(name, func(t *testing.T) {
			app, err := svc.Submit(ctx, userID, goodInfo, ids, goodLoan)
			require.ErrorIs(t, err, serrors.ErrUnknownDocument)
			require.Nil(t, app)
		})
	}

	apps, err := st.UserApplications(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, apps)
	require.Empty(t, q.all())
}

func TestProcess_Approves(t *testing.T) {
	ctx := context.Background()
	q := &queue{}
	st := memory.New(memory.Options{Dispatcher: q})
	svc := application.New(st, underwriting.NewSimulatedEngine(0), nil, application.Options{})
	userID := domain.UserID(uuid.New())

	app, err := svc.Submit(ctx, userID, goodInfo, storeDocs(t, st, userID, 2), goodLoan)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, app.ID))

	got, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateApproved, got.State)
	require.NotNil(t, got.Result)
	require.Equal(t, 85, got.Result.Score)
	require.Equal(t, domain.RiskCategoryLow, got.Result.RiskCategory)
	require.NotNil(t, got.ApprovedAmount)
	require.InDelta(t, goodLoan.Amount, *got.ApprovedAmount, 0)
	require.NotNil(t, got.InterestRate)
	require.InDelta(t, 10.5, *got.InterestRate, 0)
	require.Empty(t, got.FailureReason)
	require.False(t, got.UpdatedAt.Before(got.SubmittedAt))

	history, err := ledger.New(st).History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, app.ID, history[0].ApplicationID)
	require.Equal(t, 85, history[0].Score)
	require.Equal(t, got.UpdatedAt, history[0].Timestamp)

	// re-delivery is a no-op
	require.NoError(t, svc.Process(ctx, app.ID))
	history, err = ledger.New(st).History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestProcess_Rejects(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, underwriting.NewSimulatedEngine(0), nil, application.Options{})
	userID := domain.UserID(uuid.New())

	info := domain.PersonalInfo{Name: "B", MonthlyIncome: 15000}
	app, err := svc.Submit(ctx, userID, info, nil, domain.LoanDetails{Amount: 15000 * 12 * 0.6, TenureMonths: 12})
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, app.ID))

	got, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateRejected, got.State)
	require.Equal(t, 60, got.Result.Score)
	require.Nil(t, got.Result.InterestRate)
	require.Nil(t, got.ApprovedAmount)
	require.Nil(t, got.InterestRate)

	latest, err := ledger.New(st).Latest(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 60, latest)
}

func TestProcess_EngineFaultErrorsApplication(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	engine := mockunderwriting.NewMockEngine(ctrl)
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, engine, nil, application.Options{})
	userID := domain.UserID(uuid.New())

	engine.EXPECT().Underwrite(gomock.Any(), goodInfo, gomock.Any(), goodLoan).
		Return(domain.UnderwritingResult{}, errors.New("model crashed"))

	app, err := svc.Submit(ctx, userID, goodInfo, nil, goodLoan)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, app.ID))

	got, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateErrored, got.State)
	require.Contains(t, got.FailureReason, "model crashed")
	require.Nil(t, got.Result)

	history, err := ledger.New(st).History(ctx, userID, 0)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestProcess_TimeoutErrorsApplication(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, underwriting.NewSimulatedEngine(time.Hour), nil, application.Options{
		UnderwritingTimeout: 20 * time.Millisecond,
	})
	userID := domain.UserID(uuid.New())

	app, err := svc.Submit(ctx, userID, goodInfo, nil, goodLoan)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, app.ID))

	got, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateErrored, got.State)
	require.Contains(t, got.FailureReason, "timed out")
}

func TestProcess_InvalidEngineScoreErrorsApplication(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	engine := mockunderwriting.NewMockEngine(ctrl)
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, engine, nil, application.Options{})

	engine.EXPECT().Underwrite(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.UnderwritingResult{Score: 150, Approved: true}, nil)

	app, err := svc.Submit(ctx, domain.UserID(uuid.New()), goodInfo, nil, goodLoan)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, app.ID))

	got, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateErrored, got.State)
}

func TestProcess_InconsistentEngineResultErrorsApplication(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	engine := mockunderwriting.NewMockEngine(ctrl)
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, engine, nil, application.Options{})
	userID := domain.UserID(uuid.New())

	engine.EXPECT().Underwrite(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.UnderwritingResult{Score: 50, Approved: true, RiskCategory: domain.RiskCategoryHigh}, nil)

	app, err := svc.Submit(ctx, userID, goodInfo, nil, goodLoan)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, app.ID))

	got, err := st.ApplicationByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateErrored, got.State)
	require.Contains(t, got.FailureReason, "inconsistent")
	require.Nil(t, got.Result)
	require.Nil(t, got.ApprovedAmount)
	require.Nil(t, got.InterestRate)

	history, err := ledger.New(st).History(ctx, userID, 0)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestProcess_CancelledContextLeavesApplicationProcessing(t *testing.T) {
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, underwriting.NewSimulatedEngine(time.Hour), nil, application.Options{})

	app, err := svc.Submit(context.Background(), domain.UserID(uuid.New()), goodInfo, nil, goodLoan)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, svc.Process(ctx, app.ID), context.DeadlineExceeded)

	got, err := st.ApplicationByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ApplicationStateProcessing, got.State)
}

func TestProcess_UnknownApplication(t *testing.T) {
	st := memory.New(memory.Options{Dispatcher: &queue{}})
	svc := application.New(st, underwriting.NewSimulatedEngine(0), nil, application.Options{})

	err := svc.Process(context.Background(), domain.ApplicationID(uuid.New()))
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

// Readers polling while underwriting runs must see a consistent state and result.
func TestConcurrentSubmissions_AllReachTerminalState(t *testing.T) {
	ctx := context.Background()
	r := &runner{}
	st := memory.New(memory.Options{Dispatcher: r})
	svc := application.New(st, underwriting.NewSimulatedEngine(5*time.Millisecond), nil, application.Options{})
	r.svc = svc
	userID := domain.UserID(uuid.New())

	const n = 25
	ids := make(chan domain.ApplicationID, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info := goodInfo
			info.MonthlyIncome = float64(10000 * (i%6 + 1))
			app, err := svc.Submit(ctx, userID, info, nil, goodLoan)
			if !assert.NoError(t, err) {
				return
			}
			ids <- app.ID
		}()
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			apps, err := st.UserApplications(ctx, userID)
			if !assert.NoError(t, err) {
				return
			}
			for _, a := range apps {
				decided := a.State == domain.ApplicationStateApproved || a.State == domain.ApplicationStateRejected
				assert.Equal(t, decided, a.Result != nil, "state %s with result %v", a.State, a.Result)
				assert.Equal(t, a.State == domain.ApplicationStateApproved, a.ApprovedAmount != nil)
			}
		}
	}()

	wg.Wait()
	close(ids)
	r.wg.Wait()
	close(stop)
	readers.Wait()

	apps, err := st.UserApplications(ctx, userID)
	require.NoError(t, err)
	require.Len(t, apps, n)
	for _, a := range apps {
		require.True(t, a.State.IsTerminal(), "application %s is %s", a.ID, a.State)
		require.NotEqual(t, domain.ApplicationStateErrored, a.State)
	}

	history, err := ledger.New(st).History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, history, n)

	seen := make(map[domain.ApplicationID]bool, n)
	for _, rec := range history {
		require.False(t, seen[rec.ApplicationID], "duplicate ledger entry")
		seen[rec.ApplicationID] = true
	}
	for id := range ids {
		require.True(t, seen[id])
	}
}

func TestJobArgs(t *testing.T) {
	id := domain.ApplicationID(uuid.New())
	args := application.NewJobArgs(id, 5)

	require.Equal(t, "UnderwriteApplicationJob", args.Kind())
	opts := args.InsertOpts()
	require.Equal(t, 5, opts.MaxAttempts)
	require.True(t, opts.UniqueOpts.ByArgs)
}
