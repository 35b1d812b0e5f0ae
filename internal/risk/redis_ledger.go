package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLedger implements Ledger on Redis sorted sets so the velocity window
// holds across replicas. Scores are event timestamps in nanoseconds; each
// tally prunes everything outside the window before counting.
type RedisLedger struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
}

// Tally registers the event for the user and returns the window occupancy.
func (l RedisLedger) Tally(ctx context.Context, userID string, now time.Time) (int, error) {
	if l.Client == nil {
		return 0, fmt.Errorf("risk: redis ledger not configured")
	}
	window := l.Window
	if window <= 0 {
		window = 5 * time.Minute
	}

	key := l.Prefix + userID
	cutoff := float64(now.Add(-window).UnixNano())
	member := fmt.Sprintf("%s:%s", userID, uuid.NewString())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(countCmd.Val()), nil
}
