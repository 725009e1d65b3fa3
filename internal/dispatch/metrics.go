package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickd",
			Subsystem: "dispatch",
			Name:      "items_total",
			Help:      "Actions and events drained from their queues",
		},
		[]string{"phase"},
	)

	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickd",
			Subsystem: "dispatch",
			Name:      "failures_total",
			Help:      "Handler and listener calls that returned an error or panicked",
		},
		[]string{"phase", "kind"},
	)

	deferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickd",
			Subsystem: "dispatch",
			Name:      "deferred_total",
			Help:      "Items left queued because a drain hit its bound",
		},
		[]string{"phase"},
	)

	execDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tickd",
			Subsystem: "dispatch",
			Name:      "exec_duration_seconds",
			Help:      "Duration of single handler and listener calls",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"phase"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tickd",
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Items waiting in the queue after the last drain",
		},
		[]string{"phase"},
	)
)

func init() {
	prometheus.MustRegister(itemsTotal, failuresTotal, deferredTotal, execDuration, queueDepth)
}
