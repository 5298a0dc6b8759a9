package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// OrderMetrics counts state machine transitions and wallet settlements.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	settlements *prometheus.CounterVec
	refunded    prometheus.Counter
	dueCleared  prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_order_transitions_total",
		Help: "Order state machine transitions by action, actor role and outcome.",
	}, []string{"action", "role", "outcome"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laundry_refund_settlements_total",
		Help: "Refund settlement attempts by outcome.",
	}, []string{"outcome"})
	refunded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laundry_refunded_rupees_total",
		Help: "Rupees credited to customer wallets by refund settlement.",
	})
	dueCleared := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laundry_due_cleared_rupees_total",
		Help: "Rupees of customer dues cleared from refund proceeds.",
	})
	reg.MustRegister(transitions, settlements, refunded, dueCleared)
	return &OrderMetrics{
		transitions: transitions,
		settlements: settlements,
		refunded:    refunded,
		dueCleared:  dueCleared,
	}
}

func (m *OrderMetrics) ObserveTransition(action, role, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(labelOrUnknown(action), labelOrUnknown(role), outcome).Inc()
}

func (m *OrderMetrics) ObserveSettlement(outcome string, refunded, dueCleared int64) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
	if refunded > 0 {
		m.refunded.Add(float64(refunded))
	}
	if dueCleared > 0 {
		m.dueCleared.Add(float64(dueCleared))
	}
}
