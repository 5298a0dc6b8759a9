package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics counts outbox rows handled by the publisher and the backlog
// seen by the maintenance job.
type OutboxMetrics struct {
	handled     *prometheus.CounterVec
	lag         *prometheus.HistogramVec
	pending     prometheus.Gauge
	deadLetters prometheus.Gauge
}

// NewOutboxMetrics registers publisher metrics. A nil registerer yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	handled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_outbox_events_total",
		Help: "Outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	lag := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "laundry_outbox_publish_lag_seconds",
		Help:    "Time between an event being recorded and reaching Pub/Sub.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 15, 60, 300},
	}, []string{"event_type"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "laundry_outbox_pending_events",
		Help: "Outbox rows not yet published.",
	})
	deadLetters := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "laundry_outbox_dead_letters_recent",
		Help: "Dead letters recorded in the last 24 hours.",
	})
	reg.MustRegister(handled, lag, pending, deadLetters)
	return &OutboxMetrics{handled: handled, lag: lag, pending: pending, deadLetters: deadLetters}
}

// ObservePublish records one row outcome: published, retry or dead_letter.
func (m *OutboxMetrics) ObservePublish(eventType, outcome string, lagSeconds float64) {
	if m == nil || m.handled == nil {
		return
	}
	eventType = labelOrUnknown(eventType)
	m.handled.WithLabelValues(eventType, labelOrUnknown(outcome)).Inc()
	if outcome == "published" && lagSeconds >= 0 {
		m.lag.WithLabelValues(eventType).Observe(lagSeconds)
	}
}

// SetBacklog publishes the latest queue depth and recent dead-letter count.
func (m *OutboxMetrics) SetBacklog(pending, recentDeadLetters int64) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(pending))
	m.deadLetters.Set(float64(recentDeadLetters))
}
