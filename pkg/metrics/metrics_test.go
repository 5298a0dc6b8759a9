package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

type labels map[string]string

// sample gathers reg and returns the series of family name that carries every
// label in want. Counters and gauges yield their value, histograms their sum.
func sample(t *testing.T, reg *prometheus.Registry, name string, want labels) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !hasLabels(metric, want) {
				continue
			}
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				return metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				return metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				return metric.GetHistogram().GetSampleSum()
			}
		}
		t.Fatalf("metric %s has no series with labels %v", name, want)
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func hasLabels(metric *dto.Metric, want labels) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if value, ok := want[pair.GetName()]; ok && value == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
