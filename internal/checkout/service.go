// Package checkout composes logistics, pricing and risk into a single
// checkout-time evaluation.
package checkout

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/geo"
	"github.com/noah-isme/checkout-engine/internal/logistics"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/queue"
	"github.com/noah-isme/checkout-engine/internal/risk"
	"github.com/noah-isme/checkout-engine/internal/user"
)

// Line is one cart entry carrying everything the three calculators need.
type Line struct {
	BasePrice   pricing.Money `json:"basePrice" validate:"gt=0"`
	Qty         int           `json:"qty" validate:"gt=0"`
	WeightGrams int           `json:"weightGrams" validate:"gte=0"`
}

// Input is a full checkout evaluation request.
type Input struct {
	User       user.Profile         `json:"user"`
	Lines      []Line               `json:"lines" validate:"required,min=1,dive"`
	City       string               `json:"city"`
	Coordinate *geo.Coordinate      `json:"coordinate"`
	Shipping   risk.ShippingDetails `json:"shipping"`
}

// Output bundles the three verdicts plus the combined totals.
type Output struct {
	Lines      []pricing.PricedLine     `json:"lines"`
	Tier       pricing.TierMetrics      `json:"tier"`
	Shipment   logistics.ShipmentVector `json:"shipment"`
	Assessment risk.Assessment          `json:"assessment"`
	GoodsTotal pricing.Money            `json:"goodsTotal"`
	GrandTotal pricing.Money            `json:"grandTotal"`
}

// Service evaluates checkouts. All dependencies are required except Recorder
// and Reviews, which degrade to no-ops when absent.
type Service struct {
	Resolver *logistics.Resolver
	Geocoder geo.Geocoder
	Pricer   *pricing.Engine
	Scorer   *risk.Scorer
	Recorder risk.HistoryRecorder
	Reviews  queue.Enqueuer
	Logger   zerolog.Logger
}

// Evaluate prices the cart, resolves the shipment and scores the transaction.
// A CRITICAL verdict is handed to the review queue; enqueue failures are
// logged but never block the response.
func (s *Service) Evaluate(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Resolver == nil || s.Geocoder == nil || s.Pricer == nil || s.Scorer == nil {
		return Output{}, common.NewAppError("INTERNAL", "checkout service not configured", http.StatusInternalServerError, nil)
	}
	if len(in.Lines) == 0 {
		return Output{}, common.NewAppError("EMPTY_CART", "cart has no lines", http.StatusUnprocessableEntity, nil)
	}

	tier := s.Pricer.TierMetricsFor(in.User)
	priced := make([]pricing.PricedLine, 0, len(in.Lines))
	cartLines := make([]logistics.CartLine, 0, len(in.Lines))
	var goodsTotal pricing.Money
	for _, line := range in.Lines {
		final := s.Pricer.PriceFor(line.BasePrice, in.User)
		subtotal := final * pricing.Money(line.Qty)
		priced = append(priced, pricing.PricedLine{
			BasePrice:  line.BasePrice,
			FinalPrice: final,
			Qty:        line.Qty,
			Subtotal:   subtotal,
		})
		goodsTotal += subtotal
		cartLines = append(cartLines, logistics.CartLine{WeightGrams: line.WeightGrams, Qty: line.Qty})
	}

	dest := in.Coordinate
	resolved := geo.Coordinate{}
	if dest != nil {
		resolved = *dest
	} else {
		resolved = s.Geocoder.Resolve(in.City)
	}
	shipment := s.Resolver.Resolve(cartLines, resolved)

	grandTotal := goodsTotal + shipment.FinalCost
	assessment := s.Scorer.Assess(ctx, in.User, grandTotal, in.Shipping)

	if s.Recorder != nil {
		if err := s.Recorder.RecordAmount(ctx, in.User.ID, grandTotal); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", in.User.ID).Msg("record order amount")
		}
	}

	if assessment.RequiresManualReview && s.Reviews != nil {
		payload := queue.ReviewPayload{
			UserID:    in.User.ID,
			CartTotal: grandTotal,
			RiskScore: assessment.RiskScore,
			RiskLevel: string(assessment.RiskLevel),
			Flags:     assessment.Flags,
			Timestamp: assessment.Timestamp,
		}
		enqueueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := s.Reviews.EnqueueReview(enqueueCtx, payload); err != nil {
			s.Logger.Error().Err(err).Str("user_id", in.User.ID).Msg("enqueue manual review")
		}
		cancel()
	}

	return Output{
		Lines:      priced,
		Tier:       tier,
		Shipment:   shipment,
		Assessment: assessment,
		GoodsTotal: goodsTotal,
		GrandTotal: grandTotal,
	}, nil
}
