// Package pricing computes personalized per-item prices from a reseller's
// wallet velocity and referral depth. Non-resellers always see the catalog
// base price.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/checkout-engine/internal/user"
)

// Money represents a monetary value stored in minor units (IDR).
type Money = int64

// Config holds the tier curve tunables.
type Config struct {
	BalanceWeight         float64
	ReferralEntropyWeight float64
	MaxVelocityScore      float64
	MaxDiscount           float64
	MarginFloorRatio      float64
	RoundingUnit          int64
	CacheTTL              time.Duration
	CacheMaxEntries       int
}

// DefaultConfig returns the production tier curve.
func DefaultConfig() Config {
	return Config{
		BalanceWeight:         0.0001,
		ReferralEntropyWeight: 1.05,
		MaxVelocityScore:      1000,
		MaxDiscount:           0.35,
		MarginFloorRatio:      0.5,
		RoundingUnit:          100,
		CacheTTL:              15 * time.Minute,
		CacheMaxEntries:       10_000,
	}
}

// Engine derives tier metrics and final prices. Construct one per process and
// share it; the memoization cache is safe for concurrent use.
type Engine struct {
	cfg   Config
	cache *tierCache
	now   func() time.Time
}

// NewEngine constructs an Engine with the provided configuration. Zero-value
// fields fall back to the defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.BalanceWeight == 0 {
		cfg.BalanceWeight = def.BalanceWeight
	}
	if cfg.ReferralEntropyWeight == 0 {
		cfg.ReferralEntropyWeight = def.ReferralEntropyWeight
	}
	if cfg.MaxVelocityScore == 0 {
		cfg.MaxVelocityScore = def.MaxVelocityScore
	}
	if cfg.MaxDiscount == 0 {
		cfg.MaxDiscount = def.MaxDiscount
	}
	if cfg.MarginFloorRatio == 0 {
		cfg.MarginFloorRatio = def.MarginFloorRatio
	}
	if cfg.RoundingUnit == 0 {
		cfg.RoundingUnit = def.RoundingUnit
	}
	return &Engine{
		cfg:   cfg,
		cache: newTierCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		now:   time.Now,
	}
}

// VelocityScore computes the raw reseller score from wallet balance (a
// liquidity proxy) and referral code length (a network depth proxy), clamped
// to the configured ceiling. Non-resellers score zero.
func (e *Engine) VelocityScore(p user.Profile) float64 {
	if !p.IsReseller() {
		return 0
	}
	balanceWeight := float64(p.WalletBalance) * e.cfg.BalanceWeight
	networkWeight := float64(len(p.ReferralCode)) * e.cfg.ReferralEntropyWeight * 100
	return math.Min(balanceWeight+networkWeight, e.cfg.MaxVelocityScore)
}

// TierMetricsFor resolves the tier classification for the profile, memoized
// per (userID, walletBalance). A wallet balance change lands on a fresh cache
// key, which is what invalidates stale metrics.
func (e *Engine) TierMetricsFor(p user.Profile) TierMetrics {
	if !p.IsReseller() {
		return TierMetrics{Level: TierStarter}
	}

	key := fmt.Sprintf("%s:%d", p.ID, p.WalletBalance)
	now := e.now()
	if metrics, ok := e.cache.get(key, now); ok {
		return metrics
	}

	score := e.VelocityScore(p)
	level := resolveTierLevel(score)
	discount := discountFor(level, score, e.cfg.MaxDiscount)

	metrics := TierMetrics{
		Level:              level,
		DiscountMultiplier: math.Round(discount*10000) / 10000,
		VelocityScore:      math.Floor(score),
		NextTierThreshold:  nextTierThreshold(level, score),
	}
	e.cache.set(key, metrics, now)
	return metrics
}

// PriceFor converts a catalog base price into the final per-item price for
// the profile. Anonymous and non-reseller callers receive the base price
// unmodified. The computed price never drops below the margin floor and is
// rounded up to the nearest rounding unit.
func (e *Engine) PriceFor(basePrice Money, p user.Profile) Money {
	if basePrice <= 0 || !p.IsReseller() {
		return basePrice
	}

	metrics := e.TierMetricsFor(p)
	dynamic := float64(basePrice) * (1 - metrics.DiscountMultiplier)

	costBasis := float64(basePrice) * e.cfg.MarginFloorRatio
	if dynamic < costBasis {
		dynamic = costBasis
	}

	unit := float64(e.cfg.RoundingUnit)
	return Money(math.Ceil(dynamic/unit)) * e.cfg.RoundingUnit
}

// Projection estimates reseller earnings for the dashboard.
type Projection struct {
	PotentialProfit  Money `json:"potentialProfit"`
	RecommendedStock int   `json:"recommendedStock"`
}

// ProfitProjection estimates profit over the given horizon assuming higher
// tiers move proportionally more volume.
func (e *Engine) ProfitProjection(p user.Profile, horizonDays int) Projection {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	metrics := e.TierMetricsFor(p)

	const baseVolumePerDay = 10.0
	const avgMarginPerPack = 15000.0

	tierMultiplier := 1.5
	switch metrics.Level {
	case TierTitan:
		tierMultiplier = 5
	case TierEnterprise:
		tierMultiplier = 3
	}

	dailySales := baseVolumePerDay * tierMultiplier
	return Projection{
		PotentialProfit:  Money(dailySales * avgMarginPerPack * float64(horizonDays)),
		RecommendedStock: int(dailySales * 7),
	}
}

// Sweep evicts expired cache entries and returns how many were dropped.
// Intended to be driven by a periodic ticker in long-running processes.
func (e *Engine) Sweep() int {
	return e.cache.sweep(e.now())
}

// CacheSize reports the number of live memoized tier entries.
func (e *Engine) CacheSize() int {
	return e.cache.size()
}
