package loop

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickd",
			Subsystem: "loop",
			Name:      "ticks_total",
			Help:      "Completed ticks",
		},
	)

	overrunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickd",
			Subsystem: "loop",
			Name:      "overruns_total",
			Help:      "Ticks slower than the maximum allowed duration",
		},
	)

	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tickd",
			Subsystem: "loop",
			Name:      "tick_duration_seconds",
			Help:      "Duration of the dispatch and emit phases of a tick",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
	)

	sleepSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickd",
			Subsystem: "loop",
			Name:      "sleep_seconds_total",
			Help:      "Time spent pacing between ticks",
		},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal, overrunsTotal, tickDuration, sleepSeconds)
}
