// Package metrics instruments the custody program's instruction
// throughput: a lazily initialized, package-level CounterVec/HistogramVec
// registry guarded by sync.Once, with an Observe method segmenting by
// outcome.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type instructionMetrics struct {
	requests *prometheus.CounterVec
	rejects  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	once     sync.Once
	registry *instructionMetrics
)

// Instructions returns the lazily initialized custody instruction metrics
// registry, registering its collectors with the default Prometheus
// registry on first call.
func Instructions() *instructionMetrics {
	once.Do(func() {
		registry = &instructionMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "custody",
				Subsystem: "program",
				Name:      "instructions_total",
				Help:      "Total instructions processed, segmented by instruction and outcome.",
			}, []string{"instruction", "outcome"}),
			rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "custody",
				Subsystem: "program",
				Name:      "rejections_total",
				Help:      "Count of instructions rejected, segmented by instruction and error kind.",
			}, []string{"instruction", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "custody",
				Subsystem: "program",
				Name:      "instruction_duration_seconds",
				Help:      "Latency distribution for instruction handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"instruction"}),
		}
		prometheus.MustRegister(registry.requests, registry.rejects, registry.latency)
	})
	return registry
}

// Observe records the outcome of one instruction invocation. kind is the
// empty string on success.
func (m *instructionMetrics) Observe(instruction, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	instruction = labelOrUnknown(instruction)
	outcome := "success"
	if kind != "" {
		outcome = "rejected"
		m.rejects.WithLabelValues(instruction, labelOrUnknown(kind)).Inc()
	}
	m.requests.WithLabelValues(instruction, outcome).Inc()
	m.latency.WithLabelValues(instruction).Observe(duration.Seconds())
}

func labelOrUnknown(s string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return "unknown"
}
