package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ShippingQuoteTotal counts logistics quotes by originating warehouse.
	ShippingQuoteTotal *prometheus.CounterVec
	// BoxesPerShipment records how many boxes the packing pass allocated.
	BoxesPerShipment prometheus.Histogram
	// TierResolvedTotal counts reseller tier resolutions by tier level.
	TierResolvedTotal *prometheus.CounterVec
	// RiskAssessmentTotal counts risk assessments by resulting level.
	RiskAssessmentTotal *prometheus.CounterVec
	// ManualReviewEnqueued counts transactions handed to the review queue.
	ManualReviewEnqueued prometheus.Counter
	// CheckoutEvaluateTotal counts full checkout evaluations by outcome.
	CheckoutEvaluateTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ShippingQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_quote_total",
			Help:      "Count of shipping quotes by origin warehouse.",
		}, []string{"origin"})
		BoxesPerShipment = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "boxes_per_shipment",
			Help:      "Distribution of box counts allocated per shipment.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 20},
		})
		TierResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_resolved_total",
			Help:      "Count of reseller tier resolutions by tier level.",
		}, []string{"tier"})
		RiskAssessmentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessment_total",
			Help:      "Count of risk assessments by resulting level.",
		}, []string{"level"})
		ManualReviewEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manual_review_enqueued_total",
			Help:      "Number of transactions queued for manual review.",
		})
		CheckoutEvaluateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_evaluate_total",
			Help:      "Count of checkout evaluations by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, ShippingQuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShippingQuoteTotal = v
			}
		})
		mustRegisterCollector(reg, BoxesPerShipment, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				BoxesPerShipment = v
			}
		})
		mustRegisterCollector(reg, TierResolvedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TierResolvedTotal = v
			}
		})
		mustRegisterCollector(reg, RiskAssessmentTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RiskAssessmentTotal = v
			}
		})
		mustRegisterCollector(reg, ManualReviewEnqueued, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ManualReviewEnqueued = v
			}
		})
		mustRegisterCollector(reg, CheckoutEvaluateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutEvaluateTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
