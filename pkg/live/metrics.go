package live

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics of a live server.
type Collector struct {
	registry *prometheus.Registry

	Sessions      prometheus.Gauge
	Events        *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
	DroppedFrames prometheus.Counter
	FrameBytes    prometheus.Histogram
}

// NewCollector creates the metrics under namespace, registered with a fresh
// registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	sessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Number of canvas sessions currently attached",
		},
	)

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_events_total",
			Help:      "Total number of canvas events applied",
		},
		[]string{"event"},
	)

	rejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_events_rejected_total",
			Help:      "Total number of canvas events that failed to decode or apply",
		},
		[]string{"reason"},
	)

	dropped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_frames_dropped_total",
			Help:      "Total number of outbound frames dropped on a full send buffer",
		},
	)

	frameBytes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "live_frame_bytes",
			Help:      "Size of outbound JSON frames in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 6),
		},
	)

	registry.MustRegister(sessions, events, rejected, dropped, frameBytes)

	return &Collector{
		registry:      registry,
		Sessions:      sessions,
		Events:        events,
		Rejected:      rejected,
		DroppedFrames: dropped,
		FrameBytes:    frameBytes,
	}
}

// Registry returns the registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
