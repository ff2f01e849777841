package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RedemptionMetrics records voucher redemption outcomes.
type RedemptionMetrics struct {
	success  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	discount *prometheus.HistogramVec
}

// NewRedemptionMetrics registers the redemption metrics on the provided registerer.
func NewRedemptionMetrics(reg prometheus.Registerer) *RedemptionMetrics {
	if reg == nil {
		return &RedemptionMetrics{}
	}
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voucher_redemptions_total",
		Help: "Successful voucher redemptions.",
	}, []string{"kind"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voucher_redemptions_rejected_total",
		Help: "Redemption attempts rejected by the eligibility checks.",
	}, []string{"reason"})
	discount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voucher_discount_applied",
		Help:    "Discount amounts applied at redemption time.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"kind"})
	reg.MustRegister(success, rejected, discount)
	return &RedemptionMetrics{
		success:  success,
		rejected: rejected,
		discount: discount,
	}
}

// IncSuccess increments the success counter for the voucher kind.
func (m *RedemptionMetrics) IncSuccess(kind string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncRejected increments the rejection counter for the named reason.
func (m *RedemptionMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveDiscount records the discount applied for the voucher kind.
func (m *RedemptionMetrics) ObserveDiscount(kind string, amount float64) {
	if m == nil || m.discount == nil {
		return
	}
	m.discount.WithLabelValues(normalizeLabel(kind)).Observe(amount)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
