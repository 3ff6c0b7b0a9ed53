package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 注文・決済のメトリクス。テストではnilのまま使ってよい
type Metrics struct {
	ordersPlaced         *prometheus.CounterVec
	promotionRedemptions *prometheus.CounterVec
	paymentVerifications *prometheus.CounterVec
	gatewayLatency       prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordercore",
			Name:      "order_placements_total",
			Help:      "Order placement attempts by result.",
		}, []string{"result"}),
		promotionRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordercore",
			Name:      "promotion_redemptions_total",
			Help:      "Promotion redemptions by result.",
		}, []string{"result"}),
		paymentVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordercore",
			Name:      "payment_verifications_total",
			Help:      "Payment verification outcomes.",
		}, []string{"outcome"}),
		gatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ordercore",
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of payment gateway status lookups.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.ordersPlaced, m.promotionRedemptions, m.paymentVerifications, m.gatewayLatency)
	return m
}

// result: created / replayed / rejected / failed
func (m *Metrics) OrderPlaced(result string) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(result).Inc()
}

func (m *Metrics) PromotionRedeemed(result string) {
	if m == nil {
		return
	}
	m.promotionRedemptions.WithLabelValues(result).Inc()
}

// outcome: paid / not_paid / expired / transient
func (m *Metrics) PaymentVerified(outcome string) {
	if m == nil {
		return
	}
	m.paymentVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGateway(start time.Time) {
	if m == nil {
		return
	}
	m.gatewayLatency.Observe(time.Since(start).Seconds())
}
