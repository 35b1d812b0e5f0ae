package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeReviewTransaction identifies manual-review tasks on the wire.
const TaskTypeReviewTransaction = "review:transaction"

// QueueReview is the asynq queue manual-review tasks are routed to.
const QueueReview = "review"

// ReviewPayload carries everything an operator needs to triage a flagged
// transaction.
type ReviewPayload struct {
	UserID    string    `json:"userId"`
	CartTotal int64     `json:"cartTotal"`
	RiskScore float64   `json:"riskScore"`
	RiskLevel string    `json:"riskLevel"`
	Flags     []string  `json:"flags"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReviewTask builds an asynq task for the given payload.
func NewReviewTask(payload ReviewPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal review payload: %w", err)
	}
	return asynq.NewTask(TaskTypeReviewTransaction, data,
		asynq.Queue(QueueReview),
		asynq.MaxRetry(5),
		asynq.Retention(72*time.Hour),
	), nil
}

// Enqueuer hands flagged transactions off for asynchronous review.
type Enqueuer interface {
	EnqueueReview(ctx context.Context, payload ReviewPayload) error
}

// Client enqueues review tasks onto Redis via asynq.
type Client struct {
	Tasks *asynq.Client
}

// EnqueueReview implements Enqueuer.
func (c Client) EnqueueReview(ctx context.Context, payload ReviewPayload) error {
	if c.Tasks == nil {
		return fmt.Errorf("enqueue review: task client not configured")
	}
	task, err := NewReviewTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.Tasks.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}
	return nil
}

// NopEnqueuer discards review tasks. Used when Redis is not configured.
type NopEnqueuer struct{}

// EnqueueReview implements Enqueuer.
func (NopEnqueuer) EnqueueReview(context.Context, ReviewPayload) error { return nil }
