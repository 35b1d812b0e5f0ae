package checkout

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/obs"
)

// Handler exposes the combined checkout evaluation endpoint.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Evaluate handles POST /api/v1/checkout/evaluate.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid checkout request", err.Error())
		return
	}

	out, err := h.service.Evaluate(r.Context(), in)
	if err != nil {
		if obs.CheckoutEvaluateTotal != nil {
			obs.CheckoutEvaluateTotal.WithLabelValues("error").Inc()
		}
		if appErr, ok := common.AsAppError(err); ok {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout evaluation failed", nil)
		return
	}
	if obs.CheckoutEvaluateTotal != nil {
		obs.CheckoutEvaluateTotal.WithLabelValues(string(out.Assessment.RiskLevel)).Inc()
	}
	if out.Assessment.RequiresManualReview && obs.ManualReviewEnqueued != nil {
		obs.ManualReviewEnqueued.Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
