package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.now = func() time.Time { return time.Unix(1_790_000_000, 0) }

	m.ObserveRun("settlement-audit", 1500*time.Millisecond, nil)
	m.ObserveRun("settlement-audit", 500*time.Millisecond, nil)
	m.ObserveRun("outbox-maintenance", time.Second, errors.New("db down"))

	assert.Equal(t, 2.0, sample(t, reg, "laundry_cron_job_duration_seconds", labels{"job": "settlement-audit"}))
	assert.Equal(t, 2.0, sample(t, reg, "laundry_cron_job_runs_total", labels{"job": "settlement-audit", "outcome": "ok"}))
	assert.Equal(t, 1.0, sample(t, reg, "laundry_cron_job_runs_total", labels{"job": "outbox-maintenance", "outcome": "failed"}))
	assert.Equal(t, 1_790_000_000.0, sample(t, reg, "laundry_cron_job_last_success_timestamp_seconds", labels{"job": "settlement-audit"}))
}

func TestCronJobMetricsAuditFindingsIgnoreEmptyBatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.AddAuditFindings("missing_refund_entry", 2)
	m.AddAuditFindings("missing_refund_entry", 0)
	m.AddAuditFindings("stale_unsettled", -1)
	m.AddAuditFindings("", 1)

	assert.Equal(t, 2.0, sample(t, reg, "laundry_settlement_audit_findings_total", labels{"kind": "missing_refund_entry"}))
	assert.Equal(t, 1.0, sample(t, reg, "laundry_settlement_audit_findings_total", labels{"kind": "unknown"}))
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("outbox-maintenance", time.Second, nil)
	m.AddAuditFindings("stale_unsettled", 3)

	NewCronJobMetrics(nil).ObserveRun("outbox-maintenance", time.Second, errors.New("x"))
}
