package pricing

import (
	"encoding/json"
	"net/http"
	"strconv"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/obs"
	"github.com/noah-isme/checkout-engine/internal/user"
)

// Handler exposes pricing endpoints for the storefront.
type Handler struct {
	engine   *Engine
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Engine   *Engine
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{engine: cfg.Engine, validate: v}
}

// QuoteLine is one catalog line to price.
type QuoteLine struct {
	BasePrice Money `json:"basePrice" validate:"gt=0"`
	Qty       int   `json:"qty" validate:"gt=0"`
}

// QuoteRequest is the payload for POST /api/v1/pricing/quote.
type QuoteRequest struct {
	User  user.Profile `json:"user"`
	Lines []QuoteLine  `json:"lines" validate:"required,min=1,dive"`
}

// PricedLine pairs a catalog line with its personalized price.
type PricedLine struct {
	BasePrice  Money `json:"basePrice"`
	FinalPrice Money `json:"finalPrice"`
	Qty        int   `json:"qty"`
	Subtotal   Money `json:"subtotal"`
}

// Quote handles POST /api/v1/pricing/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid pricing request", err.Error())
		return
	}

	metrics := h.engine.TierMetricsFor(req.User)
	lines := make([]PricedLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		final := h.engine.PriceFor(line.BasePrice, req.User)
		lines = append(lines, PricedLine{
			BasePrice:  line.BasePrice,
			FinalPrice: final,
			Qty:        line.Qty,
			Subtotal:   final * Money(line.Qty),
		})
	}
	if obs.TierResolvedTotal != nil {
		obs.TierResolvedTotal.WithLabelValues(string(metrics.Level)).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"tier":  metrics,
		"lines": lines,
	}})
}

// Tier handles GET /api/v1/pricing/tier. The profile travels as query
// parameters so reseller dashboards can poll it cheaply.
func (h *Handler) Tier(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	q := r.URL.Query()
	balance, _ := strconv.ParseInt(q.Get("walletBalance"), 10, 64)
	profile := user.Profile{
		ID:            q.Get("userId"),
		Role:          user.Role(q.Get("role")),
		WalletBalance: balance,
		ReferralCode:  q.Get("referralCode"),
	}
	metrics := h.engine.TierMetricsFor(profile)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"tier":       metrics,
		"projection": h.engine.ProfitProjection(profile, 30),
	}})
}
