package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// ReviewWorker consumes manual-review tasks. The current implementation logs
// the flagged transaction so operators can pick it up from the log pipeline;
// a persistence hook can be layered on via OnReview.
type ReviewWorker struct {
	Logger   zerolog.Logger
	OnReview func(ctx context.Context, payload ReviewPayload) error
}

// HandleReviewTransaction processes a single review task.
func (w ReviewWorker) HandleReviewTransaction(ctx context.Context, task *asynq.Task) error {
	var payload ReviewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal review payload: %w", asynq.SkipRetry)
	}

	w.Logger.Warn().
		Str("user_id", payload.UserID).
		Int64("cart_total", payload.CartTotal).
		Float64("risk_score", payload.RiskScore).
		Str("risk_level", payload.RiskLevel).
		Strs("flags", payload.Flags).
		Time("flagged_at", payload.Timestamp).
		Msg("transaction queued for manual review")

	if w.OnReview != nil {
		if err := w.OnReview(ctx, payload); err != nil {
			return fmt.Errorf("review hook: %w", err)
		}
	}
	return nil
}

// Mux returns an asynq handler mux with all worker routes registered.
func (w ReviewWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeReviewTransaction, w.HandleReviewTransaction)
	return mux
}
