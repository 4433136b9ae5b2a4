package recurring

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// DueBetween returns the user's recurring transactions with next_occurrence
// in [from, to).
func (r *Repo) DueBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, description, category, amount, next_occurrence, created_at, updated_at
		FROM recurring_transactions
		WHERE user_id = $1 AND next_occurrence >= $2 AND next_occurrence < $3
		ORDER BY next_occurrence
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Category, &t.Amount, &t.NextOccurrence, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
