package analytics

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// GetSnapshot returns (nil, nil) when the user has no aggregate row yet.
func (r *Repo) GetSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, mtd_by_category, daily_average, updated_at
		FROM analytics
		WHERE user_id = $1
	`, userID)

	var s Snapshot
	var mtd []byte
	if err := row.Scan(&s.UserID, &mtd, &s.DailyAverage, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(mtd) > 0 {
		if err := json.Unmarshal(mtd, &s.MTDByCategory); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
