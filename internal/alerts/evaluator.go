package alerts

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sevafinance/notifier/internal/domain/analytics"
	"github.com/sevafinance/notifier/internal/domain/budgets"
	"github.com/sevafinance/notifier/internal/domain/recurring"
	"github.com/sevafinance/notifier/internal/domain/users"
)

const (
	// DefaultBudgetThreshold applies when the user has no override.
	DefaultBudgetThreshold = 0.8
	// budgetHighAt marks the severity cutover for budget alerts.
	budgetHighAt = 0.9
	// spendingRatio: today must exceed the daily average by this factor.
	spendingRatio = 1.5
	// spendingFloor suppresses alerts on tiny absolute amounts.
	spendingFloor = 20.0
)

// Evaluator turns one user's stored state into notification intents. It does
// no I/O, so every rule is testable with literal fixtures.
type Evaluator struct {
	DashboardURL string
}

// EvaluateBudgets applies the budget rule to each budget row. Rows with a
// non-positive amount are misconfigured and skipped.
func (e Evaluator) EvaluateBudgets(u users.User, list []budgets.Budget, snap *analytics.Snapshot) []Intent {
	if u.PushToken == "" || !u.Prefs.BudgetAlerts || snap == nil {
		return nil
	}
	threshold := u.Prefs.BudgetThreshold
	if threshold <= 0 {
		threshold = DefaultBudgetThreshold
	}

	var out []Intent
	for _, b := range list {
		if !b.Amount.IsPositive() {
			continue
		}
		spent := snap.Spent(b.Category)
		pct := spent.InexactFloat64() / b.Amount.InexactFloat64()
		if pct < threshold {
			continue
		}
		priority := PriorityNormal
		if pct >= budgetHighAt {
			priority = PriorityHigh
		}
		out = append(out, Intent{
			Kind:  KindBudgetAlert,
			Token: u.PushToken,
			Title: "Budget Alert \U0001F4CA",
			Body: fmt.Sprintf("You've used %d%% of your %s budget ($%s of $%s)",
				int(math.Round(pct*100)), b.Category, spent.StringFixed(0), b.Amount.StringFixed(0)),
			Data: map[string]string{
				"type":         KindBudgetAlert,
				"category":     b.Category,
				"percentage":   strconv.FormatFloat(pct, 'f', -1, 64),
				"click_action": e.DashboardURL + "?highlight=budget&category=" + url.QueryEscape(b.Category),
				"priority":     priority,
			},
		})
	}
	return out
}

// EvaluateBills emits one reminder per recurring transaction already known to
// fall due tomorrow. The caller selects the rows with TomorrowWindow; there is
// no persisted "already reminded" marker, the daily cadence is the only
// de-duplication.
func (e Evaluator) EvaluateBills(u users.User, due []recurring.Transaction) []Intent {
	if u.PushToken == "" || !u.Prefs.BillReminders {
		return nil
	}
	var out []Intent
	for _, t := range due {
		out = append(out, Intent{
			Kind:  KindBillReminder,
			Token: u.PushToken,
			Title: "Bill Reminder \U0001F4B3",
			Body:  fmt.Sprintf("%s is due tomorrow ($%s)", t.Label(), t.Amount.StringFixed(2)),
			Data: map[string]string{
				"type":         KindBillReminder,
				"recurringId":  t.ID,
				"amount":       t.Amount.String(),
				"click_action": e.DashboardURL + "?highlight=bills&id=" + t.ID,
				"priority":     PriorityNormal,
			},
		})
	}
	return out
}

// EvaluateSpending fires when the last 24h of spend is at least 1.5x the
// rolling daily average and above the absolute floor. A zero average makes
// the ratio undefined, so the rule never fires on it.
func (e Evaluator) EvaluateSpending(u users.User, snap *analytics.Snapshot, todaySpend decimal.Decimal, now time.Time) []Intent {
	if u.PushToken == "" || !u.Prefs.SpendingAlerts || snap == nil {
		return nil
	}
	avg := snap.DailyAverage.InexactFloat64()
	today := todaySpend.InexactFloat64()
	if avg <= 0 {
		return nil
	}
	if today <= avg*spendingRatio || today <= spendingFloor {
		return nil
	}

	percentOver := int(math.Round((today - avg) / avg * 100))
	priority := PriorityNormal
	if percentOver > 100 {
		priority = PriorityHigh
	}
	return []Intent{{
		Kind:  KindSpendingAlert,
		Token: u.PushToken,
		Title: "Spending Alert \U0001F4B8",
		Body: fmt.Sprintf("Today's spending: $%s ↑ vs $%s average (+%d%%)",
			todaySpend.StringFixed(0), snap.DailyAverage.StringFixed(0), percentOver),
		Data: map[string]string{
			"type":         KindSpendingAlert,
			"amount":       todaySpend.String(),
			"average":      snap.DailyAverage.String(),
			"click_action": e.DashboardURL + "?highlight=expenses&date=" + now.Format("2006-01-02"),
			"priority":     priority,
		},
	}}
}

// TestIntent is the fixed payload behind the test-notification endpoint.
func (e Evaluator) TestIntent(token string) Intent {
	return Intent{
		Kind:  KindTest,
		Token: token,
		Title: "Test Notification \U0001F9EA",
		Body:  "This is a test notification from SevaFinance!",
		Data: map[string]string{
			"type":         KindTest,
			"click_action": e.DashboardURL,
			"priority":     PriorityNormal,
		},
	}
}

// TomorrowWindow returns the 24-hour bill-reminder window: the day after the
// next local midnight in loc.
func TomorrowWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	y, m, d := now.In(loc).Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return from, from.AddDate(0, 0, 1)
}
