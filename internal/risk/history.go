package risk

import (
	"context"
	"sync"
)

// HistoryProvider supplies the recent order amounts that form the statistical
// baseline for value-anomaly detection.
type HistoryProvider interface {
	RecentAmounts(ctx context.Context, userID string) ([]int64, error)
}

// HistoryRecorder accepts settled order amounts back into the baseline.
type HistoryRecorder interface {
	RecordAmount(ctx context.Context, userID string, amount int64) error
}

// MemoryHistory keeps a capped per-user ring of recent order amounts. It
// serves deployments without a database; multi-replica setups plug the
// pgx-backed repository in instead.
type MemoryHistory struct {
	mu      sync.RWMutex
	amounts map[string][]int64
	keep    int
}

// NewMemoryHistory constructs a history keeping at most keep amounts per user.
func NewMemoryHistory(keep int) *MemoryHistory {
	if keep <= 0 {
		keep = 20
	}
	return &MemoryHistory{amounts: make(map[string][]int64), keep: keep}
}

// RecentAmounts returns a copy of the stored baseline for the user.
func (h *MemoryHistory) RecentAmounts(_ context.Context, userID string) ([]int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stored := h.amounts[userID]
	out := make([]int64, len(stored))
	copy(out, stored)
	return out, nil
}

// RecordAmount appends the amount, evicting the oldest beyond the cap.
func (h *MemoryHistory) RecordAmount(_ context.Context, userID string, amount int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	stored := append(h.amounts[userID], amount)
	if len(stored) > h.keep {
		stored = stored[len(stored)-h.keep:]
	}
	h.amounts[userID] = stored
	return nil
}
