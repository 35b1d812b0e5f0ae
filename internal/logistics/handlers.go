package logistics

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/geo"
	"github.com/noah-isme/checkout-engine/internal/obs"
)

// Handler exposes the shipping quote endpoint.
type Handler struct {
	resolver *Resolver
	geocoder geo.Geocoder
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Resolver *Resolver
	Geocoder geo.Geocoder
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{resolver: cfg.Resolver, geocoder: cfg.Geocoder, validate: v}
}

// QuoteRequest is the payload for POST /api/v1/logistics/quote. Either a
// free-text city or an explicit coordinate identifies the destination.
type QuoteRequest struct {
	Lines      []CartLine      `json:"lines" validate:"required,min=1,dive"`
	City       string          `json:"city"`
	Coordinate *geo.Coordinate `json:"coordinate"`
}

// Destination resolves the request destination, geocoding the city when no
// explicit coordinate was supplied.
func (req QuoteRequest) Destination(geocoder geo.Geocoder) geo.Coordinate {
	if req.Coordinate != nil {
		return *req.Coordinate
	}
	return geocoder.Resolve(req.City)
}

// Quote handles POST /api/v1/logistics/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil || h.geocoder == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "logistics resolver not configured", nil)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid quote request", err.Error())
		return
	}
	vector := h.resolver.Resolve(req.Lines, req.Destination(h.geocoder))
	if obs.ShippingQuoteTotal != nil {
		obs.ShippingQuoteTotal.WithLabelValues(vector.OriginNodeID).Inc()
	}
	if obs.BoxesPerShipment != nil {
		obs.BoxesPerShipment.Observe(float64(len(vector.BoxesUsed)))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": vector})
}
