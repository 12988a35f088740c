package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a watched file.
const (
	OutcomeSummarized = "summarized"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

// WatchCollectors counts the output images handled by the watch command.
type WatchCollectors struct {
	files    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewWatchCollectors creates the watch collectors and registers them in reg.
func NewWatchCollectors(reg prometheus.Registerer) (*WatchCollectors, error) {
	c := &WatchCollectors{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galfitkit",
			Subsystem: "watch",
			Name:      "files_total",
			Help:      "Output images handled by the watcher, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "galfitkit",
			Subsystem: "watch",
			Name:      "handle_duration_seconds",
			Help:      "Time spent parsing an output image and writing its summary.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	for _, col := range []prometheus.Collector{c.files, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	for _, o := range []string{OutcomeSummarized, OutcomeSkipped, OutcomeFailed} {
		c.files.WithLabelValues(o)
	}
	return c, nil
}

// Observe records one handled file.
func (c *WatchCollectors) Observe(outcome string, elapsed time.Duration) {
	c.files.WithLabelValues(outcome).Inc()
	c.duration.Observe(elapsed.Seconds())
}
