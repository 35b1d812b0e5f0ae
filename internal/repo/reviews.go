package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRecord is one flagged transaction headed for the operator queue.
type ReviewRecord struct {
	UserID    string
	CartTotal int64
	RiskScore float64
	RiskLevel string
	Flags     []string
	FlaggedAt time.Time
}

// ReviewStore persists flagged transactions so operators can work them from
// the dashboard instead of the log pipeline.
type ReviewStore struct {
	Pool *pgxpool.Pool
}

const insertReviewQuery = `
INSERT INTO manual_reviews (user_id, cart_total, risk_score, risk_level, flags, flagged_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// RecordReview appends the flagged transaction. Failures are returned so the
// task queue retries the delivery.
func (s ReviewStore) RecordReview(ctx context.Context, rec ReviewRecord) error {
	if _, err := s.Pool.Exec(ctx, insertReviewQuery,
		rec.UserID, rec.CartTotal, rec.RiskScore, rec.RiskLevel, rec.Flags, rec.FlaggedAt,
	); err != nil {
		return fmt.Errorf("record manual review: %w", err)
	}
	return nil
}
