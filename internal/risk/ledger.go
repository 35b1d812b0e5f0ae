package risk

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Ledger tracks order timestamps per user inside a trailing window. Tally
// appends the given instant and returns how many events remain inside the
// window, pruning everything older. Implementations must serialize access per
// user key so concurrent checkouts cannot lose timestamps.
type Ledger interface {
	Tally(ctx context.Context, userID string, now time.Time) (int, error)
}

const ledgerShardCount = 32

type ledgerShard struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// MemoryLedger is the single-process Ledger. State is sharded by user key so
// hot users do not serialize unrelated checkouts behind one global lock.
// Entries never survive the process.
type MemoryLedger struct {
	window time.Duration
	shards [ledgerShardCount]*ledgerShard
}

// NewMemoryLedger constructs a ledger with the given trailing window.
func NewMemoryLedger(window time.Duration) *MemoryLedger {
	if window <= 0 {
		window = 5 * time.Minute
	}
	l := &MemoryLedger{window: window}
	for i := range l.shards {
		l.shards[i] = &ledgerShard{entries: make(map[string][]time.Time)}
	}
	return l
}

func (l *MemoryLedger) shardFor(userID string) *ledgerShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return l.shards[h.Sum32()%ledgerShardCount]
}

// Tally records the event and counts the window occupancy for the user.
func (l *MemoryLedger) Tally(_ context.Context, userID string, now time.Time) (int, error) {
	shard := l.shardFor(userID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cutoff := now.Add(-l.window)
	recent := shard.entries[userID][:0]
	for _, ts := range shard.entries[userID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	recent = append(recent, now)
	shard.entries[userID] = recent
	return len(recent), nil
}

// Sweep drops users whose every recorded event has left the window and
// returns how many keys were removed. Run it periodically so the ledger does
// not grow with the whole user population over the process lifetime.
func (l *MemoryLedger) Sweep(now time.Time) int {
	cutoff := now.Add(-l.window)
	removed := 0
	for _, shard := range l.shards {
		shard.mu.Lock()
		for userID, timestamps := range shard.entries {
			stale := true
			for _, ts := range timestamps {
				if ts.After(cutoff) {
					stale = false
					break
				}
			}
			if stale {
				delete(shard.entries, userID)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// Size reports the number of tracked user keys across all shards.
func (l *MemoryLedger) Size() int {
	total := 0
	for _, shard := range l.shards {
		shard.mu.Lock()
		total += len(shard.entries)
		shard.mu.Unlock()
	}
	return total
}
