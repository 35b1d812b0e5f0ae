package checkout_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/checkout"
	"github.com/noah-isme/checkout-engine/internal/geo"
	"github.com/noah-isme/checkout-engine/internal/logistics"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/queue"
	"github.com/noah-isme/checkout-engine/internal/risk"
	"github.com/noah-isme/checkout-engine/internal/user"
)

type captureEnqueuer struct {
	payloads []queue.ReviewPayload
}

func (c *captureEnqueuer) EnqueueReview(_ context.Context, payload queue.ReviewPayload) error {
	c.payloads = append(c.payloads, payload)
	return nil
}

func newService(reviews queue.Enqueuer, history *risk.MemoryHistory) *checkout.Service {
	return &checkout.Service{
		Resolver: logistics.NewResolver(logistics.DefaultConfig(), nil, nil),
		Geocoder: geo.NewStaticGeocoder(nil),
		Pricer:   pricing.NewEngine(pricing.DefaultConfig()),
		Scorer:   risk.NewScorer(risk.ScorerConfig{History: history}),
		Recorder: history,
		Reviews:  reviews,
		Logger:   zerolog.Nop(),
	}
}

// Destination pinned to the Jakarta hub keeps the shipping quote deterministic.
var jakartaHub = geo.Coordinate{Lat: -6.1751, Lng: 106.8650}

func TestEvaluateCustomerHappyPath(t *testing.T) {
	t.Parallel()

	history := risk.NewMemoryHistory(20)
	svc := newService(&captureEnqueuer{}, history)

	out, err := svc.Evaluate(context.Background(), checkout.Input{
		User: user.Profile{ID: "cust-1", Role: user.RoleCustomer},
		Lines: []checkout.Line{
			{BasePrice: 50_000, Qty: 2, WeightGrams: 1000},
		},
		Coordinate: &jakartaHub,
		Shipping: risk.ShippingDetails{
			Name:    "Budi Santoso",
			Address: "Jl. Sudirman No. 45, Jakarta Pusat",
		},
	})
	require.NoError(t, err)

	require.Len(t, out.Lines, 1)
	require.Equal(t, pricing.Money(50_000), out.Lines[0].FinalPrice, "customers pay the base price")
	require.Equal(t, pricing.Money(100_000), out.GoodsTotal)

	require.Equal(t, "WH-JKT", out.Shipment.OriginNodeID)
	require.Equal(t, int64(16_500), out.Shipment.FinalCost)
	require.Equal(t, pricing.Money(116_500), out.GrandTotal)

	require.Equal(t, risk.LevelSafe, out.Assessment.RiskLevel)
	require.False(t, out.Assessment.RequiresManualReview)

	recorded, err := history.RecentAmounts(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Equal(t, []int64{116_500}, recorded)
}

func TestEvaluateResellerDiscountFlowsThrough(t *testing.T) {
	t.Parallel()

	svc := newService(&captureEnqueuer{}, risk.NewMemoryHistory(20))

	out, err := svc.Evaluate(context.Background(), checkout.Input{
		User: user.Profile{
			ID:            "res-1",
			Role:          user.RoleReseller,
			WalletBalance: 2_500_000,
			ReferralCode:  "BUDI123",
		},
		Lines: []checkout.Line{
			{BasePrice: 45_000, Qty: 1, WeightGrams: 500},
		},
		Coordinate: &jakartaHub,
		Shipping: risk.ShippingDetails{
			Name:    "Siti Rahayu",
			Address: "Jl. Gatot Subroto Kav. 12, Jakarta",
		},
	})
	require.NoError(t, err)

	require.Equal(t, pricing.TierTitan, out.Tier.Level)
	require.Equal(t, pricing.Money(29_300), out.Lines[0].FinalPrice)
	require.Equal(t, out.GoodsTotal+out.Shipment.FinalCost, out.GrandTotal)
}

func TestEvaluateCriticalEnqueuesReview(t *testing.T) {
	t.Parallel()

	reviews := &captureEnqueuer{}
	svc := newService(reviews, risk.NewMemoryHistory(20))

	in := checkout.Input{
		User: user.Profile{ID: "burst-1", Role: user.RoleCustomer},
		Lines: []checkout.Line{
			{BasePrice: 6_000_000, Qty: 1, WeightGrams: 200},
		},
		Coordinate: &jakartaHub,
		Shipping: risk.ShippingDetails{
			Name:    "aaaa",
			Address: "Jl. A",
		},
	}

	// The first three orders trip high-value and input heuristics but stay
	// below the critical threshold; the fourth adds the velocity signal.
	var out checkout.Output
	var err error
	for i := 0; i < 4; i++ {
		out, err = svc.Evaluate(context.Background(), in)
		require.NoError(t, err)
	}

	require.Equal(t, risk.LevelCritical, out.Assessment.RiskLevel)
	require.True(t, out.Assessment.RequiresManualReview)
	require.Contains(t, out.Assessment.Flags, risk.FlagVelocityLimitExceeded)
	require.Contains(t, out.Assessment.Flags, risk.FlagHighValueIntervention)

	require.Len(t, reviews.payloads, 1)
	payload := reviews.payloads[0]
	require.Equal(t, "burst-1", payload.UserID)
	require.Equal(t, out.GrandTotal, payload.CartTotal)
	require.Equal(t, string(risk.LevelCritical), payload.RiskLevel)
}

func TestEvaluateEmptyCart(t *testing.T) {
	t.Parallel()

	svc := newService(&captureEnqueuer{}, risk.NewMemoryHistory(20))
	_, err := svc.Evaluate(context.Background(), checkout.Input{
		User: user.Profile{ID: "cust-2", Role: user.RoleCustomer},
	})
	require.Error(t, err)
}
