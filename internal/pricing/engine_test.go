package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/user"
)

func reseller(id string, balance int64, referral string) user.Profile {
	return user.Profile{ID: id, Role: user.RoleReseller, WalletBalance: balance, ReferralCode: referral}
}

func TestVelocityScoreNonResellerIsZero(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())
	require.Zero(t, e.VelocityScore(user.Profile{ID: "u1", Role: user.RoleCustomer, WalletBalance: 9_000_000}))
	require.Zero(t, e.VelocityScore(user.Profile{}))
}

func TestVelocityScoreClampedToCeiling(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())
	score := e.VelocityScore(reseller("u1", 50_000_000, "SUPERLONGREFERRAL"))
	require.Equal(t, float64(1000), score)
}

func TestTierLadder(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())

	cases := []struct {
		name    string
		profile user.Profile
		want    pricing.TierLevel
	}{
		// Scores: balance*0.0001 + len(referral)*1.05*100.
		{"no activity is starter", reseller("a", 0, ""), pricing.TierStarter},
		{"score 250 is growth", reseller("b", 2_500_000, ""), pricing.TierGrowth},
		{"score 600 is enterprise", reseller("c", 6_000_000, ""), pricing.TierEnterprise},
		{"score 985 is titan", reseller("d", 2_500_000, "BUDI123"), pricing.TierTitan},
	}
	for _, tc := range cases {
		metrics := e.TierMetricsFor(tc.profile)
		require.Equal(t, tc.want, metrics.Level, tc.name)
	}
}

func TestDiscountNonDecreasingAcrossTiersAndCapped(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())

	profiles := []user.Profile{
		reseller("s", 500_000, ""),   // score 50, STARTER
		reseller("g", 1_500_000, ""), // score 150, GROWTH
		reseller("e", 6_000_000, ""), // score 600, ENTERPRISE
		reseller("t", 9_000_000, ""), // score 900, TITAN
	}
	prev := 0.0
	for _, p := range profiles {
		metrics := e.TierMetricsFor(p)
		require.GreaterOrEqual(t, metrics.DiscountMultiplier, prev, "tier %s", metrics.Level)
		require.LessOrEqual(t, metrics.DiscountMultiplier, 0.35, "tier %s", metrics.Level)
		prev = metrics.DiscountMultiplier
	}
}

func TestDiscountBoundaryScoreDoesNotGoNegative(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())
	// Score lands at 100.8, just inside GROWTH: the log argument clamps to 1
	// so the discount stays at the tier base instead of dipping below it.
	metrics := e.TierMetricsFor(reseller("edge", 1_008_000, ""))
	require.Equal(t, pricing.TierGrowth, metrics.Level)
	require.GreaterOrEqual(t, metrics.DiscountMultiplier, 0.15)
}

func TestPriceForNonResellerIsBasePrice(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())
	require.Equal(t, pricing.Money(45_000), e.PriceFor(45_000, user.Profile{ID: "c", Role: user.RoleCustomer}))
	require.Equal(t, pricing.Money(45_000), e.PriceFor(45_000, user.Profile{}))
}

func TestPriceForResellerEndToEnd(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())
	// Wallet 2.5M plus "BUDI123" (7 chars): 250 + 735 = 985, TITAN at the
	// maximum discount. 45,000 * 0.65 = 29,250 rounded up to 29,300.
	p := reseller("budi", 2_500_000, "BUDI123")

	metrics := e.TierMetricsFor(p)
	require.Equal(t, float64(985), metrics.VelocityScore)
	require.Equal(t, 0.35, metrics.DiscountMultiplier)

	price := e.PriceFor(45_000, p)
	require.Equal(t, pricing.Money(29_300), price)
	require.GreaterOrEqual(t, price, pricing.Money(22_500))
	require.Zero(t, price%100)
}

func TestPriceForMarginFloor(t *testing.T) {
	t.Parallel()

	cfg := pricing.DefaultConfig()
	cfg.MarginFloorRatio = 0.75 // raised floor to make the clamp binding
	e := pricing.NewEngine(cfg)

	// TITAN discount would price at 29,250 but the floor holds at 33,750,
	// rounded up to 33,800.
	price := e.PriceFor(45_000, reseller("t", 9_000_000, ""))
	require.Equal(t, pricing.Money(33_800), price)
	require.Zero(t, price%100)
}

func TestTierMetricsMemoizedPerBalance(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())

	first := e.TierMetricsFor(reseller("m", 2_500_000, "BUDI123"))
	require.Equal(t, 1, e.CacheSize())
	again := e.TierMetricsFor(reseller("m", 2_500_000, "BUDI123"))
	require.Equal(t, first, again)
	require.Equal(t, 1, e.CacheSize())

	// A wallet change lands on a new key and recomputes.
	changed := e.TierMetricsFor(reseller("m", 100_000, "BUDI123"))
	require.Equal(t, 2, e.CacheSize())
	require.NotEqual(t, first.VelocityScore, changed.VelocityScore)
}

func TestCacheBoundedAndSweepable(t *testing.T) {
	t.Parallel()

	cfg := pricing.DefaultConfig()
	cfg.CacheMaxEntries = 8
	e := pricing.NewEngine(cfg)

	for i := int64(0); i < 50; i++ {
		e.TierMetricsFor(reseller("bulk", i*10_000, ""))
	}
	require.LessOrEqual(t, e.CacheSize(), 8)
	require.Zero(t, e.Sweep()) // nothing expired yet
}

func TestProfitProjectionScalesWithTier(t *testing.T) {
	t.Parallel()

	e := pricing.NewEngine(pricing.DefaultConfig())

	starter := e.ProfitProjection(reseller("s", 0, ""), 30)
	titan := e.ProfitProjection(reseller("t", 9_000_000, ""), 30)
	require.Greater(t, titan.PotentialProfit, starter.PotentialProfit)
	require.Greater(t, titan.RecommendedStock, starter.RecommendedStock)
}
