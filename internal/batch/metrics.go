package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hl7kit"

// Metrics holds the collectors of one runner on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	messagesTotal *prometheus.CounterVec
	segmentsTotal prometheus.Counter
	duration      prometheus.Histogram
	rewritten     prometheus.Counter
}

// NewMetrics creates and registers the batch collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "batch",
			Name:      "messages_total",
			Help:      "Messages verified by result",
		}, []string{"result"}),
		segmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "batch",
			Name:      "segments_total",
			Help:      "Segments contained in verified messages",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Time spent verifying one message file",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}),
		rewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "batch",
			Name:      "rewritten_total",
			Help:      "Files rewritten with normalized line endings",
		}),
	}
	m.registry.MustRegister(m.messagesTotal, m.segmentsTotal, m.duration, m.rewritten)
	return m
}

// Registry returns the registry holding the batch collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteFile writes the current values in text exposition format. The file is
// replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(r Result) {
	result := "ok"
	if r.Err != nil {
		result = "failed"
	} else {
		m.segmentsTotal.Add(float64(r.Segments))
	}
	m.messagesTotal.WithLabelValues(result).Inc()
	m.duration.Observe(r.Duration.Seconds())
	if r.Rewritten {
		m.rewritten.Inc()
	}
}
