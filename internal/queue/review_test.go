package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/queue"
)

func TestNewReviewTaskRoundTrip(t *testing.T) {
	t.Parallel()

	payload := queue.ReviewPayload{
		UserID:    "user-123",
		CartTotal: 7_500_000,
		RiskScore: 0.9,
		RiskLevel: "CRITICAL",
		Flags:     []string{"VELOCITY_LIMIT_EXCEEDED", "HIGH_VALUE_INTERVENTION"},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	task, err := queue.NewReviewTask(payload)
	require.NoError(t, err)
	require.Equal(t, queue.TaskTypeReviewTransaction, task.Type())

	var handled queue.ReviewPayload
	worker := queue.ReviewWorker{
		Logger: zerolog.Nop(),
		OnReview: func(_ context.Context, p queue.ReviewPayload) error {
			handled = p
			return nil
		},
	}
	require.NoError(t, worker.HandleReviewTransaction(context.Background(), task))
	require.Equal(t, payload, handled)
}

func TestHandleReviewTransactionHookErrorRetries(t *testing.T) {
	t.Parallel()

	task, err := queue.NewReviewTask(queue.ReviewPayload{UserID: "user-123"})
	require.NoError(t, err)

	worker := queue.ReviewWorker{
		Logger: zerolog.Nop(),
		OnReview: func(context.Context, queue.ReviewPayload) error {
			return errors.New("database unavailable")
		},
	}
	err = worker.HandleReviewTransaction(context.Background(), task)
	require.Error(t, err)
	// A failing hook must stay retryable so asynq redelivers the task.
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleReviewTransactionBadPayload(t *testing.T) {
	t.Parallel()

	worker := queue.ReviewWorker{Logger: zerolog.Nop()}
	task := asynq.NewTask(queue.TaskTypeReviewTransaction, []byte("{not json"))
	err := worker.HandleReviewTransaction(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNopEnqueuer(t *testing.T) {
	t.Parallel()

	require.NoError(t, queue.NopEnqueuer{}.EnqueueReview(context.Background(), queue.ReviewPayload{}))
}
