package risk

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/obs"
	"github.com/noah-isme/checkout-engine/internal/user"
)

// Handler exposes the risk assessment endpoint.
type Handler struct {
	scorer   *Scorer
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Scorer   *Scorer
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{scorer: cfg.Scorer, validate: v}
}

// AssessRequest is the payload for POST /api/v1/risk/assess.
type AssessRequest struct {
	User      user.Profile    `json:"user" validate:"required"`
	CartTotal int64           `json:"cartTotal" validate:"gte=0"`
	Shipping  ShippingDetails `json:"shipping"`
}

// Assess handles POST /api/v1/risk/assess.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	if h.scorer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "risk scorer not configured", nil)
		return
	}
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid assessment request", err.Error())
		return
	}

	assessment := h.scorer.Assess(r.Context(), req.User, req.CartTotal, req.Shipping)
	if obs.RiskAssessmentTotal != nil {
		obs.RiskAssessmentTotal.WithLabelValues(string(assessment.RiskLevel)).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": assessment})
}
