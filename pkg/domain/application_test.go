package domain_test

import (
	"encoding/json"
	"lending/pkg/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestApplicationState_IsTerminal(t *testing.T) {
	require.False(t, domain.ApplicationStateSubmitted.IsTerminal())
	require.False(t, domain.ApplicationStateProcessing.IsTerminal())
	require.True(t, domain.ApplicationStateApproved.IsTerminal())
	require.True(t, domain.ApplicationStateRejected.IsTerminal())
	require.True(t, domain.ApplicationStateErrored.IsTerminal())
}

func TestApplicationState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to domain.ApplicationState
		want     bool
	}{
		{domain.ApplicationStateSubmitted, domain.ApplicationStateProcessing, true},
		{domain.ApplicationStateSubmitted, domain.ApplicationStateApproved, true},
		{domain.ApplicationStateSubmitted, domain.ApplicationStateErrored, true},
		{domain.ApplicationStateSubmitted, domain.ApplicationStateSubmitted, false},
		{domain.ApplicationStateProcessing, domain.ApplicationStateRejected, true},
		{domain.ApplicationStateProcessing, domain.ApplicationStateSubmitted, false},
		{domain.ApplicationStateProcessing, domain.ApplicationStateProcessing, false},
		{domain.ApplicationStateApproved, domain.ApplicationStateRejected, false},
		{domain.ApplicationStateRejected, domain.ApplicationStateProcessing, false},
		{domain.ApplicationStateErrored, domain.ApplicationStateApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestApplication_Clone(t *testing.T) {
	rate := 10.5
	amount := 100000.0
	app := domain.Application{
		ID:          domain.ApplicationID(uuid.New()),
		DocumentIDs: []domain.DocumentID{domain.DocumentID(uuid.New())},
		State:       domain.ApplicationStateApproved,
		Result: &domain.UnderwritingResult{
			Score:        90,
			Approved:     true,
			InterestRate: &rate,
			Reasons:      []string{"Good income level"},
		},
		ApprovedAmount: &amount,
		InterestRate:   &rate,
	}

	c := app.Clone()
	require.Equal(t, app, c)

	c.DocumentIDs[0] = domain.DocumentID{}
	c.Result.Reasons[0] = "changed"
	*c.Result.InterestRate = 1
	*c.ApprovedAmount = 1
	*c.InterestRate = 1

	require.NotEqual(t, domain.DocumentID{}, app.DocumentIDs[0])
	require.Equal(t, "Good income level", app.Result.Reasons[0])
	require.InDelta(t, 10.5, *app.Result.InterestRate, 0)
	require.InDelta(t, 100000.0, *app.ApprovedAmount, 0)
	require.InDelta(t, 10.5, *app.InterestRate, 0)
}

func TestUserID_IsZero(t *testing.T) {
	require.True(t, domain.UserID{}.IsZero())
	require.False(t, domain.UserID(uuid.New()).IsZero())
}

func TestIDs_MarshalAsUUIDStrings(t *testing.T) {
	id := uuid.New()

	b, err := json.Marshal(struct {
		A domain.ApplicationID `json:"a"`
		D domain.DocumentID    `json:"d"`
		U domain.UserID        `json:"u"`
	}{domain.ApplicationID(id), domain.DocumentID(id), domain.UserID(id)})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":"`+id.String()+`","d":"`+id.String()+`","u":"`+id.String()+`"}`, string(b))

	var got domain.ApplicationID
	require.NoError(t, json.Unmarshal([]byte(`"`+id.String()+`"`), &got))
	require.Equal(t, domain.ApplicationID(id), got)
	require.Error(t, json.Unmarshal([]byte(`"nope"`), &got))
}
