package alerts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevafinance/notifier/internal/domain/analytics"
	"github.com/sevafinance/notifier/internal/domain/budgets"
	"github.com/sevafinance/notifier/internal/domain/recurring"
	"github.com/sevafinance/notifier/internal/domain/users"
)

var testEval = Evaluator{DashboardURL: "https://app.example.com/dashboard"}

func pushUser(prefs users.Preferences) users.User {
	return users.User{ID: "u1", PushEnabled: true, PushToken: "tok-1", Prefs: prefs}
}

func snapshot(mtd map[string]decimal.Decimal, avg string) *analytics.Snapshot {
	return &analytics.Snapshot{
		UserID:        "u1",
		MTDByCategory: mtd,
		DailyAverage:  decimal.RequireFromString(avg),
	}
}

func budget(category, amount string) budgets.Budget {
	return budgets.Budget{UserID: "u1", Category: category, Amount: decimal.RequireFromString(amount)}
}

func TestEvaluateBudgets(t *testing.T) {
	u := pushUser(users.Preferences{BudgetAlerts: true})

	t.Run("fires at threshold with high severity at 90 percent", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("90")}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{budget("Groceries", "100")}, snap)
		require.Len(t, got, 1)
		assert.Equal(t, KindBudgetAlert, got[0].Kind)
		assert.Equal(t, PriorityHigh, got[0].Data["priority"])
		assert.Equal(t, "You've used 90% of your Groceries budget ($90 of $100)", got[0].Body)
	})

	t.Run("95 percent is high severity", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("95")}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{budget("Groceries", "100")}, snap)
		require.Len(t, got, 1)
		assert.Equal(t, PriorityHigh, got[0].Data["priority"])
	})

	t.Run("85 percent is normal severity", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("85")}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{budget("Groceries", "100")}, snap)
		require.Len(t, got, 1)
		assert.Equal(t, PriorityNormal, got[0].Data["priority"])
	})

	t.Run("below threshold stays silent", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("70")}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{budget("Groceries", "100")}, snap)
		assert.Empty(t, got)
	})

	t.Run("missing category counts as zero spend", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{budget("Groceries", "100")}, snap)
		assert.Empty(t, got)
	})

	t.Run("non-positive budget row is skipped, not fatal", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{
			"Broken":    decimal.RequireFromString("50"),
			"Groceries": decimal.RequireFromString("90"),
		}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{
			budget("Broken", "0"),
			budget("Groceries", "100"),
		}, snap)
		require.Len(t, got, 1)
		assert.Equal(t, "Groceries", got[0].Data["category"])
	})

	t.Run("user threshold override is honoured", func(t *testing.T) {
		strict := pushUser(users.Preferences{BudgetAlerts: true, BudgetThreshold: 0.5})
		snap := snapshot(map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("60")}, "0")
		got := testEval.EvaluateBudgets(strict, []budgets.Budget{budget("Groceries", "100")}, snap)
		require.Len(t, got, 1)
		assert.Equal(t, PriorityNormal, got[0].Data["priority"])
	})

	t.Run("disabled preference emits nothing", func(t *testing.T) {
		off := pushUser(users.Preferences{BudgetAlerts: false})
		snap := snapshot(map[string]decimal.Decimal{"Groceries": decimal.RequireFromString("99")}, "0")
		assert.Empty(t, testEval.EvaluateBudgets(off, []budgets.Budget{budget("Groceries", "100")}, snap))
	})

	t.Run("click action deep-links the category", func(t *testing.T) {
		snap := snapshot(map[string]decimal.Decimal{"Dining Out": decimal.RequireFromString("80")}, "0")
		got := testEval.EvaluateBudgets(u, []budgets.Budget{budget("Dining Out", "100")}, snap)
		require.Len(t, got, 1)
		assert.Equal(t,
			"https://app.example.com/dashboard?highlight=budget&category=Dining+Out",
			got[0].Data["click_action"])
	})
}

func TestEvaluateSpending(t *testing.T) {
	u := pushUser(users.Preferences{SpendingAlerts: true})
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("fires at 75 percent over with normal severity", func(t *testing.T) {
		got := testEval.EvaluateSpending(u, snapshot(nil, "40"), decimal.RequireFromString("70"), now)
		require.Len(t, got, 1)
		assert.Equal(t, PriorityNormal, got[0].Data["priority"])
		assert.Equal(t, "Today's spending: $70 ↑ vs $40 average (+75%)", got[0].Body)
	})

	t.Run("over 100 percent is high severity", func(t *testing.T) {
		got := testEval.EvaluateSpending(u, snapshot(nil, "40"), decimal.RequireFromString("100"), now)
		require.Len(t, got, 1)
		assert.Equal(t, PriorityHigh, got[0].Data["priority"])
	})

	t.Run("zero average never fires", func(t *testing.T) {
		got := testEval.EvaluateSpending(u, snapshot(nil, "0"), decimal.RequireFromString("500"), now)
		assert.Empty(t, got)
	})

	t.Run("ratio not exceeded stays silent", func(t *testing.T) {
		got := testEval.EvaluateSpending(u, snapshot(nil, "40"), decimal.RequireFromString("55"), now)
		assert.Empty(t, got)
	})

	t.Run("amounts at or under the floor stay silent", func(t *testing.T) {
		got := testEval.EvaluateSpending(u, snapshot(nil, "5"), decimal.RequireFromString("20"), now)
		assert.Empty(t, got)
	})

	t.Run("click action carries the date", func(t *testing.T) {
		got := testEval.EvaluateSpending(u, snapshot(nil, "40"), decimal.RequireFromString("70"), now)
		require.Len(t, got, 1)
		assert.Equal(t,
			"https://app.example.com/dashboard?highlight=expenses&date=2026-03-14",
			got[0].Data["click_action"])
	})
}

func TestEvaluateBills(t *testing.T) {
	u := pushUser(users.Preferences{BillReminders: true})
	due := []recurring.Transaction{
		{ID: "r1", Description: "Rent", Amount: decimal.RequireFromString("1200")},
		{ID: "r2", Category: "Utilities", Amount: decimal.RequireFromString("80.50")},
	}

	got := testEval.EvaluateBills(u, due)
	require.Len(t, got, 2)
	assert.Equal(t, "Rent is due tomorrow ($1200.00)", got[0].Body)
	assert.Equal(t, "Utilities is due tomorrow ($80.50)", got[1].Body)
	assert.Equal(t, "r2", got[1].Data["recurringId"])

	t.Run("disabled preference emits nothing", func(t *testing.T) {
		off := pushUser(users.Preferences{BillReminders: false})
		assert.Empty(t, testEval.EvaluateBills(off, due))
	})
}

func TestTomorrowWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)
	from, to := TomorrowWindow(now, loc)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, loc), to)
}

func TestTestIntent(t *testing.T) {
	in := testEval.TestIntent("tok-9")
	assert.Equal(t, KindTest, in.Kind)
	assert.Equal(t, "tok-9", in.Token)
	assert.Equal(t, testEval.DashboardURL, in.Data["click_action"])
	assert.Equal(t, PriorityNormal, in.Data["priority"])
}
