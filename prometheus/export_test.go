package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Value returns the current value of the named series.
func (m *Metrics) Value(name string, labels ...string) float64 {
	var c prom.Collector
	switch name {
	case "sessions":
		c = m.sessions.WithLabelValues(labels...)
	case "turns":
		c = m.turns.WithLabelValues(labels...)
	case "fragments":
		c = m.fragments.WithLabelValues(labels...)
	case "inflight":
		c = m.inflight.WithLabelValues(labels...)
	case "documents":
		c = m.documents.WithLabelValues(labels...)
	case "store_bytes":
		c = m.storeSize
	case "store_tokens":
		c = m.storeTokens
	default:
		panic("unknown metric " + name)
	}
	return testutil.ToFloat64(c)
}

// HistogramCount returns the number of collected histogram series for the
// named histogram.
func (m *Metrics) HistogramCount(name string) int {
	switch name {
	case "first_fragment":
		return testutil.CollectAndCount(m.firstFragment)
	case "turn":
		return testutil.CollectAndCount(m.turnDuration)
	}
	panic("unknown histogram " + name)
}
