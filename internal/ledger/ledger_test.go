package ledger_test

import (
	"context"
	"lending/internal/ledger"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"lending/pkg/storage/memory"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AppendAndLatest(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(memory.Options{}))
	userID := domain.UserID(uuid.New())

	latest, err := l.Latest(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 0, latest)

	base := time.Now()
	require.NoError(t, l.Append(ctx, userID, domain.ApplicationID(uuid.New()), 60, base))
	require.NoError(t, l.Append(ctx, userID, domain.ApplicationID(uuid.New()), 90, base.Add(time.Second)))

	latest, err = l.Latest(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 90, latest)
}

func TestLedger_RejectsOutOfRangeScores(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(memory.Options{}))
	userID := domain.UserID(uuid.New())

	for _, score := range []int{-1, 101} {
		err := l.Append(ctx, userID, domain.ApplicationID(uuid.New()), score, time.Now())
		require.ErrorIs(t, err, serrors.ErrValidation)
	}
	for _, score := range []int{0, 100} {
		require.NoError(t, l.Append(ctx, userID, domain.ApplicationID(uuid.New()), score, time.Now()))
	}

	history, err := l.History(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestLedger_Summary(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(memory.Options{}))
	userID := domain.UserID(uuid.New())

	empty, err := l.Summary(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 0, empty.CurrentScore)
	require.NotNil(t, empty.History)
	require.Empty(t, empty.History)

	base := time.Now()
	for i := range 12 {
		require.NoError(t, l.Append(ctx, userID, domain.ApplicationID(uuid.New()), 50+i, base.Add(time.Duration(i)*time.Second)))
	}

	summary, err := l.Summary(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 61, summary.CurrentScore)
	require.Len(t, summary.History, ledger.SummaryHistory)
	require.Equal(t, 61, summary.History[0].Score)
	require.Equal(t, 52, summary.History[9].Score)
}

func TestLedger_ConcurrentUsersDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New(memory.Options{}))

	users := make([]domain.UserID, 8)
	for i := range users {
		users[i] = domain.UserID(uuid.New())
	}

	const perUser = 20
	var wg sync.WaitGroup
	for _, u := range users {
		for i := range perUser {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, l.Append(ctx, u, domain.ApplicationID(uuid.New()), i, time.Now()))
			}()
		}
	}
	wg.Wait()

	for _, u := range users {
		history, err := l.History(ctx, u, 0)
		require.NoError(t, err)
		require.Len(t, history, perUser)
		for _, r := range history {
			require.Equal(t, u, r.UserID)
		}
	}
}
