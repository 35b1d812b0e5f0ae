package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderHistory reads and records per-user order totals in Postgres. It backs
// the risk scorer's value-anomaly baseline in multi-replica deployments where
// in-process history would fragment across instances.
type OrderHistory struct {
	Pool *pgxpool.Pool
	// Keep bounds how many recent totals feed the baseline. Zero means 20.
	Keep int
}

const recentAmountsQuery = `
SELECT total_amount
FROM order_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

// RecentAmounts returns the newest order totals for the user, most recent first.
func (r OrderHistory) RecentAmounts(ctx context.Context, userID string) ([]int64, error) {
	keep := r.Keep
	if keep <= 0 {
		keep = 20
	}
	rows, err := r.Pool.Query(ctx, recentAmountsQuery, userID, keep)
	if err != nil {
		return nil, fmt.Errorf("query order history: %w", err)
	}
	defer rows.Close()

	amounts, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan order history: %w", err)
	}
	return amounts, nil
}

const recordAmountQuery = `
INSERT INTO order_history (user_id, total_amount, created_at)
VALUES ($1, $2, now())`

// RecordAmount appends a settled order total to the user's baseline.
func (r OrderHistory) RecordAmount(ctx context.Context, userID string, amount int64) error {
	if _, err := r.Pool.Exec(ctx, recordAmountQuery, userID, amount); err != nil {
		return fmt.Errorf("record order amount: %w", err)
	}
	return nil
}
