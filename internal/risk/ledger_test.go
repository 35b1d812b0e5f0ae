package risk

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerCountsWithinWindow(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryLedger(5 * time.Minute)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		count, err := ledger.Tally(ctx, "u1", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.Equal(t, i+1, count)
	}

	// An event past the window drops the stale entries first.
	count, err := ledger.Tally(ctx, "u1", base.Add(6*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMemoryLedgerIsolatesUsers(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryLedger(5 * time.Minute)
	ctx := context.Background()
	now := time.Now()

	_, err := ledger.Tally(ctx, "a", now)
	require.NoError(t, err)
	count, err := ledger.Tally(ctx, "b", now)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMemoryLedgerConcurrentTallies(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryLedger(5 * time.Minute)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			for i := 0; i < 50; i++ {
				_, _ = ledger.Tally(ctx, userID, now.Add(time.Duration(i)*time.Millisecond))
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		count, err := ledger.Tally(ctx, fmt.Sprintf("user-%d", u), now.Add(time.Second))
		require.NoError(t, err)
		require.Equal(t, 51, count)
	}
}

func TestMemoryLedgerSweepDropsStaleUsers(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryLedger(time.Minute)
	ctx := context.Background()
	base := time.Now()

	_, _ = ledger.Tally(ctx, "old", base)
	_, _ = ledger.Tally(ctx, "fresh", base.Add(5*time.Minute))

	removed := ledger.Sweep(base.Add(5 * time.Minute))
	require.Equal(t, 1, removed)
	require.Equal(t, 1, ledger.Size())
}

func TestRedisLedgerSlidingWindow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	ledger := RedisLedger{Client: client, Prefix: "risk:velocity:", Window: 5 * time.Minute}
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 4; i++ {
		count, err := ledger.Tally(ctx, "u1", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.Equal(t, i+1, count)
	}

	// Events older than the window are pruned before counting.
	count, err := ledger.Tally(ctx, "u1", base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
