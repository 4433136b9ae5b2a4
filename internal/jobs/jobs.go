// Package jobs wires the scheduled work: the three alert scans and the two
// maintenance sweeps. Every job tolerates overlapping runs; the scheduler
// gives at-least-once, not mutual exclusion.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sevafinance/notifier/internal/alerts"
	"github.com/sevafinance/notifier/internal/config"
	"github.com/sevafinance/notifier/internal/domain/users"
	"github.com/sevafinance/notifier/internal/infra/metrics"
	"github.com/sevafinance/notifier/internal/infra/telegram"
)

// TrialPeriod is how long an unpaid trial keeps pro features.
const TrialPeriod = 14 * 24 * time.Hour

type Jobs struct {
	log     *slog.Logger
	scanner *alerts.Scanner
	users   *users.Repo
	ops     *telegram.Ops
}

func New(log *slog.Logger, scanner *alerts.Scanner, usersRepo *users.Repo, ops *telegram.Ops) *Jobs {
	return &Jobs{log: log, scanner: scanner, users: usersRepo, ops: ops}
}

// Register adds every job to the cron runner with its configured schedule.
func (j *Jobs) Register(c *cron.Cron, schedules config.JobSchedules) error {
	entries := []struct {
		name string
		spec string
		run  func(ctx context.Context) (string, error)
	}{
		{"budget_watch", schedules.BudgetWatch, j.runBudgetWatch},
		{"bill_reminders", schedules.BillReminders, j.runBillReminders},
		{"spending_alerts", schedules.SpendingAlerts, j.runSpendingAlerts},
		{"trial_sweep", schedules.TrialSweep, j.RunTrialSweep},
		{"monthly_reset", schedules.MonthlyReset, j.RunMonthlyReset},
	}
	for _, e := range entries {
		if _, err := c.AddFunc(e.spec, j.wrap(e.name, e.run)); err != nil {
			return fmt.Errorf("register %s: %w", e.name, err)
		}
	}
	return nil
}

// wrap gives every job the same envelope: logging, duration, a run counter
// and an ops summary. Job errors stay inside the envelope.
func (j *Jobs) wrap(name string, run func(ctx context.Context) (string, error)) func() {
	return func() {
		ctx := context.Background()
		start := time.Now()
		summary, err := run(ctx)
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			metrics.JobRuns.WithLabelValues(name, "error").Inc()
			j.log.Error("job failed", "job", name, "elapsed", elapsed, "err", err)
			j.ops.Notify(fmt.Sprintf("❌ %s failed after %s: %v", name, elapsed, err))
			return
		}
		metrics.JobRuns.WithLabelValues(name, "ok").Inc()
		j.log.Info("job finished", "job", name, "elapsed", elapsed, "summary", summary)
		j.ops.Notify(fmt.Sprintf("✅ %s: %s (%s)", name, summary, elapsed))
	}
}

func summarize(s alerts.Summary) string {
	return fmt.Sprintf("%d users, %d sent, %d failed, %d skipped", s.Users, s.Sent, s.Failed, s.Skipped)
}

func (j *Jobs) runBudgetWatch(ctx context.Context) (string, error) {
	s, err := j.scanner.RunBudgetWatch(ctx)
	return summarize(s), err
}

func (j *Jobs) runBillReminders(ctx context.Context) (string, error) {
	s, err := j.scanner.RunBillReminders(ctx)
	return summarize(s), err
}

func (j *Jobs) runSpendingAlerts(ctx context.Context) (string, error) {
	s, err := j.scanner.RunSpendingAlerts(ctx)
	return summarize(s), err
}

// RunTrialSweep downgrades trials that started more than TrialPeriod ago and
// were never paid for. The whole sweep is one transaction.
func (j *Jobs) RunTrialSweep(ctx context.Context) (string, error) {
	expired, err := j.users.ExpireTrials(ctx, time.Now().Add(-TrialPeriod))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d trials expired", len(expired)), nil
}

// RunMonthlyReset zeroes every user's scan counter and usage rows.
func (j *Jobs) RunMonthlyReset(ctx context.Context) (string, error) {
	n, err := j.users.ResetMonthlyUsage(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d users reset", n), nil
}
