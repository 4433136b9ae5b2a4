package users

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const userColumns = `id, email, push_enabled, push_token,
	budget_alerts, bill_reminders, spending_alerts, budget_threshold,
	is_pro, has_paid, subscription_status, stripe_customer_id, stripe_subscription_id,
	subscription_start, subscription_end, trial_start, scan_count_this_month,
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PushEnabled, &u.PushToken,
		&u.Prefs.BudgetAlerts, &u.Prefs.BillReminders, &u.Prefs.SpendingAlerts, &u.Prefs.BudgetThreshold,
		&u.IsPro, &u.HasPaid, &u.SubscriptionStatus, &u.StripeCustomerID, &u.StripeSubscriptionID,
		&u.SubscriptionStart, &u.SubscriptionEnd, &u.TrialStart, &u.ScanCountThisMonth,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *Repo) GetByAPIToken(ctx context.Context, token string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE api_token = $1`, token)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetByStripeCustomerID resolves the owning user for invoice and subscription
// webhook events. Returns (nil, nil) when no user carries the customer id. An
// empty id is always a miss: the column defaults to '' for users who never
// touched Stripe, and those rows must never match.
func (r *Repo) GetByStripeCustomerID(ctx context.Context, customerID string) (*User, error) {
	if customerID == "" {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE stripe_customer_id = $1`, customerID)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListPushEnabled returns the alert-eligible population.
func (r *Repo) ListPushEnabled(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE push_enabled`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ListAll is used by the back-office export.
func (r *Repo) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET stripe_customer_id = $2, updated_at = now()
		WHERE id = $1
	`, userID, customerID)
	return err
}

// ApplyBillingEvent writes the patch and the accompanying analytics record in
// one transaction, so a crash between them cannot leave the record behind for
// a redelivery to duplicate. All patch sets are absolute values so replays
// converge to the same row. An empty eventKind skips the analytics insert.
func (r *Repo) ApplyBillingEvent(ctx context.Context, userID string, p BillingPatch, eventKind string, eventPayload map[string]any) error {
	if p.IsZero() && eventKind == "" {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if !p.IsZero() {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET
				is_pro   = COALESCE($2, is_pro),
				has_paid = COALESCE($3, has_paid),
				subscription_status = COALESCE($4, subscription_status),
				stripe_subscription_id = CASE WHEN $8 THEN '' ELSE COALESCE($5, stripe_subscription_id) END,
				subscription_start = COALESCE($6, subscription_start),
				subscription_end   = CASE WHEN $8 THEN NULL ELSE COALESCE($7, subscription_end) END,
				updated_at = now()
			WHERE id = $1
		`, userID, p.IsPro, p.HasPaid, p.Status, p.SubscriptionID, p.SubscriptionStart, p.SubscriptionEnd, p.ClearSubscription); err != nil {
			return err
		}
	}

	if eventKind != "" {
		pb, _ := json.Marshal(eventPayload)
		if eventPayload == nil {
			pb = []byte("{}")
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO analytics_events (user_id, kind, payload)
			VALUES ($1, $2, $3)
		`, userID, eventKind, pb); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ExpireTrials downgrades unpaid trials older than cutoff and records one
// analytics event per affected user, all in one transaction.
func (r *Repo) ExpireTrials(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE users
		SET is_pro = false, updated_at = now()
		WHERE is_pro AND NOT has_paid AND trial_start IS NOT NULL AND trial_start <= $1
		RETURNING id
	`, cutoff)
	if err != nil {
		return nil, err
	}
	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range expired {
		if _, err := tx.Exec(ctx, `
			INSERT INTO analytics_events (user_id, kind, payload)
			VALUES ($1, 'trial_expired', '{}')
		`, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

// ResetMonthlyUsage zeroes the scan counters and drops the usage rows for the
// whole population in one transaction. Safe to re-run.
func (r *Repo) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE users SET scan_count_this_month = 0, updated_at = now()`)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_usage`); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
