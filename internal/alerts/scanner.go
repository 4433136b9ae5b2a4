package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sevafinance/notifier/internal/domain/analytics"
	"github.com/sevafinance/notifier/internal/domain/budgets"
	"github.com/sevafinance/notifier/internal/domain/recurring"
	"github.com/sevafinance/notifier/internal/domain/users"
)

// fanOutLimit bounds concurrent per-user fetches within one run.
const fanOutLimit = 8

// The scanner reads through these slices of the domain repos. All are
// satisfied by the concrete *Repo types; tests substitute fixtures.
type (
	UserLister interface {
		ListPushEnabled(ctx context.Context) ([]users.User, error)
	}
	BudgetLister interface {
		ListByUser(ctx context.Context, userID string) ([]budgets.Budget, error)
	}
	DueLister interface {
		DueBetween(ctx context.Context, userID string, from, to time.Time) ([]recurring.Transaction, error)
	}
	SpendSummer interface {
		SumBetween(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error)
	}
	SnapshotGetter interface {
		GetSnapshot(ctx context.Context, userID string) (*analytics.Snapshot, error)
	}
)

// Summary is what one scan run produced.
type Summary struct {
	Users   int
	Skipped int
	Sent    int
	Failed  int
}

// Scanner walks the push-enabled population, runs one alert rule per user and
// hands the collected intents to the dispatcher in a single batch. One user's
// bad data is logged and skipped, never propagated.
type Scanner struct {
	log        *slog.Logger
	eval       Evaluator
	users      UserLister
	budgets    BudgetLister
	recurring  DueLister
	expenses   SpendSummer
	analytics  SnapshotGetter
	dispatcher *Dispatcher
	loc        *time.Location
}

func NewScanner(
	log *slog.Logger,
	eval Evaluator,
	usersRepo UserLister,
	budgetsRepo BudgetLister,
	recurringRepo DueLister,
	expensesRepo SpendSummer,
	analyticsRepo SnapshotGetter,
	dispatcher *Dispatcher,
	loc *time.Location,
) *Scanner {
	return &Scanner{
		log: log, eval: eval, users: usersRepo,
		budgets: budgetsRepo, recurring: recurringRepo,
		expenses: expensesRepo, analytics: analyticsRepo,
		dispatcher: dispatcher, loc: loc,
	}
}

// perUser fetches and evaluates one user's intents.
type perUser func(ctx context.Context, u users.User) ([]Intent, error)

func (s *Scanner) run(ctx context.Context, name string, eligible func(users.User) bool, fn perUser) (Summary, error) {
	population, err := s.users.ListPushEnabled(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.log.Info("scan started", "job", name, "users", len(population))

	var (
		mu      sync.Mutex
		intents []Intent
		skipped int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, u := range population {
		if u.PushToken == "" || !eligible(u) {
			continue
		}
		g.Go(func() error {
			got, err := fn(gctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				skipped++
				s.log.Error("user skipped", "job", name, "user_id", u.ID, "err", err)
				return nil
			}
			intents = append(intents, got...)
			return nil
		})
	}
	_ = g.Wait()

	sent, failed := s.dispatcher.Dispatch(ctx, intents)
	sum := Summary{Users: len(population), Skipped: skipped, Sent: sent, Failed: failed}
	s.log.Info("scan finished", "job", name, "sent", sent, "failed", failed, "skipped", skipped)
	return sum, nil
}

// RunBudgetWatch checks every budget row against its user's month-to-date
// spend.
func (s *Scanner) RunBudgetWatch(ctx context.Context) (Summary, error) {
	return s.run(ctx, "budget_watch",
		func(u users.User) bool { return u.Prefs.BudgetAlerts },
		func(ctx context.Context, u users.User) ([]Intent, error) {
			snap, err := s.analytics.GetSnapshot(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			if snap == nil {
				return nil, nil
			}
			list, err := s.budgets.ListByUser(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			return s.eval.EvaluateBudgets(u, list, snap), nil
		})
}

// RunBillReminders reminds about recurring transactions due tomorrow.
func (s *Scanner) RunBillReminders(ctx context.Context) (Summary, error) {
	from, to := TomorrowWindow(time.Now(), s.loc)
	return s.run(ctx, "bill_reminders",
		func(u users.User) bool { return u.Prefs.BillReminders },
		func(ctx context.Context, u users.User) ([]Intent, error) {
			due, err := s.recurring.DueBetween(ctx, u.ID, from, to)
			if err != nil {
				return nil, err
			}
			return s.eval.EvaluateBills(u, due), nil
		})
}

// RunSpendingAlerts compares the last 24h of spend against the rolling daily
// average.
func (s *Scanner) RunSpendingAlerts(ctx context.Context) (Summary, error) {
	now := time.Now()
	return s.run(ctx, "spending_alerts",
		func(u users.User) bool { return u.Prefs.SpendingAlerts },
		func(ctx context.Context, u users.User) ([]Intent, error) {
			snap, err := s.analytics.GetSnapshot(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			if snap == nil {
				return nil, nil
			}
			today, err := s.expenses.SumBetween(ctx, u.ID, now.Add(-24*time.Hour), now)
			if err != nil {
				return nil, err
			}
			return s.eval.EvaluateSpending(u, snap, today, now), nil
		})
}
