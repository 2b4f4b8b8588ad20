package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for booking, payment and email flows.
type BookingMetrics struct {
	bookingsCreated *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	emailsSent      *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Bookings created, by payment method",
		}, []string{"payment_method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions attempted, by action and outcome",
		}, []string{"action", "outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Payment webhook events received, by event and outcome",
		}, []string{"event", "outcome"}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Emails attempted, by kind and status",
		}, []string{"kind", "status"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "payments",
			Name:      "gateway_latency_seconds",
			Help:      "Latency of payment gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsCreated, m.transitions, m.webhookEvents, m.emailsSent, m.gatewayLatency)
	return m
}

func (m *BookingMetrics) ObserveBookingCreated(paymentMethod string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(paymentMethod).Inc()
}

func (m *BookingMetrics) ObserveTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *BookingMetrics) ObserveWebhook(event, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(event, outcome).Inc()
}

func (m *BookingMetrics) ObserveEmail(kind string, err error) {
	if m == nil {
		return
	}
	m.emailsSent.WithLabelValues(kind, statusLabel(err)).Inc()
}

func (m *BookingMetrics) ObserveGatewayCall(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(operation, statusLabel(err)).Observe(elapsed.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
