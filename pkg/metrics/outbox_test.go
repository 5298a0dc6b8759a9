package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.ObservePublish("delivery_failed", "published", 1.5)
	m.ObservePublish("delivery_failed", "published", 0.5)
	m.ObservePublish("refund_settled", "retry", 3)
	m.ObservePublish("refund_settled", "dead_letter", 0)

	assert.Equal(t, 2.0, sample(t, reg, "laundry_outbox_events_total", labels{"event_type": "delivery_failed", "outcome": "published"}))
	assert.Equal(t, 1.0, sample(t, reg, "laundry_outbox_events_total", labels{"event_type": "refund_settled", "outcome": "dead_letter"}))
	// Only published rows feed the lag histogram.
	assert.Equal(t, 2.0, sample(t, reg, "laundry_outbox_publish_lag_seconds", labels{"event_type": "delivery_failed"}))
}

func TestOutboxMetricsBacklogGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.SetBacklog(12, 1)
	m.SetBacklog(4, 0)

	assert.Equal(t, 4.0, sample(t, reg, "laundry_outbox_pending_events", nil))
	assert.Equal(t, 0.0, sample(t, reg, "laundry_outbox_dead_letters_recent", nil))
}

func TestOutboxMetricsNilRegistererIsNoop(t *testing.T) {
	NewOutboxMetrics(nil).ObservePublish("order_created", "published", 1)
	NewOutboxMetrics(nil).SetBacklog(1, 1)

	var m *OutboxMetrics
	m.ObservePublish("order_created", "retry", 0)
	m.SetBacklog(2, 0)
}

func TestOutboxMetricsBlankEventTypeIsUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.ObservePublish("", "", 0)

	assert.Equal(t, 1.0, sample(t, reg, "laundry_outbox_events_total", labels{"event_type": "unknown", "outcome": "unknown"}))
}
