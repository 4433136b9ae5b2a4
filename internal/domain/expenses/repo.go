package expenses

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// SumBetween totals a user's expense amounts with date in [from, to).
func (r *Repo) SumBetween(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date < $3
	`, userID, from, to)

	var sum decimal.Decimal
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
