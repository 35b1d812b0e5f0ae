package pricing

import "math"

// TierLevel classifies a reseller for discount purposes.
type TierLevel string

const (
	TierStarter    TierLevel = "STARTER"
	TierGrowth     TierLevel = "GROWTH"
	TierEnterprise TierLevel = "ENTERPRISE"
	TierTitan      TierLevel = "TITAN"
)

// TierMetrics is the derived classification for one reseller at one wallet
// balance. Cached per (userID, walletBalance); a balance change lands on a
// new cache key, which is what invalidates stale metrics.
type TierMetrics struct {
	Level              TierLevel `json:"level"`
	DiscountMultiplier float64   `json:"discountMultiplier"`
	VelocityScore      float64   `json:"velocityScore"`
	NextTierThreshold  float64   `json:"nextTierThreshold"`
}

// resolveTierLevel maps a velocity score onto the discrete tier ladder.
func resolveTierLevel(score float64) TierLevel {
	switch {
	case score > 800:
		return TierTitan
	case score > 400:
		return TierEnterprise
	case score > 100:
		return TierGrowth
	default:
		return TierStarter
	}
}

// discountFor computes the tier discount multiplier. GROWTH and ENTERPRISE
// interpolate logarithmically above their threshold floor; the log argument
// is clamped to 1 so scores landing exactly on a boundary cannot produce a
// negative or undefined term.
func discountFor(level TierLevel, score, cap float64) float64 {
	var discount float64
	switch level {
	case TierTitan:
		discount = 0.35
	case TierEnterprise:
		discount = 0.25 + math.Log10(math.Max(score-399, 1))*0.04
	case TierGrowth:
		discount = 0.15 + math.Log10(math.Max(score-99, 1))*0.05
	default:
		discount = 0.10
	}
	return math.Min(discount, cap)
}

// nextTierThreshold returns how much score is missing until the next tier.
// TITAN has nowhere further to climb.
func nextTierThreshold(level TierLevel, score float64) float64 {
	if level == TierTitan {
		return 0
	}
	boundary := 800.0
	if score < 100 {
		boundary = 100
	} else if score < 400 {
		boundary = 400
	}
	return boundary - score
}
