package alerts

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevafinance/notifier/internal/domain/analytics"
	"github.com/sevafinance/notifier/internal/domain/budgets"
	"github.com/sevafinance/notifier/internal/domain/users"
)

type fakeUserLister struct {
	population []users.User
	err        error
}

func (f *fakeUserLister) ListPushEnabled(context.Context) ([]users.User, error) {
	return f.population, f.err
}

type fakeSnapshotGetter struct {
	byUser map[string]*analytics.Snapshot
	errFor map[string]error
}

func (f *fakeSnapshotGetter) GetSnapshot(_ context.Context, userID string) (*analytics.Snapshot, error) {
	if err := f.errFor[userID]; err != nil {
		return nil, err
	}
	return f.byUser[userID], nil
}

type fakeBudgetLister struct {
	byUser map[string][]budgets.Budget
}

func (f *fakeBudgetLister) ListByUser(_ context.Context, userID string) ([]budgets.Budget, error) {
	return f.byUser[userID], nil
}

func scanUserFixture(id, token string) users.User {
	return users.User{ID: id, PushEnabled: true, PushToken: token,
		Prefs: users.Preferences{BudgetAlerts: true}}
}

// One user's broken analytics row must cost only that user: the run counts
// them as skipped and still dispatches everyone else's alerts.
func TestRunBudgetWatchIsolatesFailingUser(t *testing.T) {
	population := &fakeUserLister{population: []users.User{
		scanUserFixture("good", "tok-good"),
		scanUserFixture("bad", "tok-bad"),
	}}
	snapshots := &fakeSnapshotGetter{
		byUser: map[string]*analytics.Snapshot{
			"good": {UserID: "good",
				MTDByCategory: map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("95")}},
		},
		errFor: map[string]error{"bad": errors.New("malformed aggregate row")},
	}
	budgetRows := &fakeBudgetLister{byUser: map[string][]budgets.Budget{
		"good": {{UserID: "good", Category: "Groceries", Amount: decimal.RequireFromString("100")}},
	}}
	sender := &fakeSender{}
	s := NewScanner(slog.Default(), testEval,
		population, budgetRows, nil, nil, snapshots,
		NewDispatcher(sender, slog.Default()), nil)

	sum, err := s.RunBudgetWatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Users)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Sent)
	assert.Zero(t, sum.Failed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "tok-good", sender.sent[0].Token)
}

// A failed population fetch is the one error that aborts the whole run.
func TestRunBudgetWatchPopulationErrorAborts(t *testing.T) {
	population := &fakeUserLister{err: errors.New("pool closed")}
	sender := &fakeSender{}
	s := NewScanner(slog.Default(), testEval,
		population, nil, nil, nil, nil,
		NewDispatcher(sender, slog.Default()), nil)

	_, err := s.RunBudgetWatch(context.Background())
	require.Error(t, err)
	assert.Empty(t, sender.sent)
}
