package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		jobsProcessedTotal,
		jobsQueueDepth,
		transformDurationSeconds,
		workerBusy,
	)
}

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of face-swap jobs processed, labeled by outcome.",
		},
		[]string{"outcome"}, // succeeded|transform_failed|delivery_failed|panicked
	)

	jobsQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_queue_depth",
			Help: "Number of jobs waiting in the in-memory queue.",
		},
	)

	transformDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transform_duration_seconds",
			Help:    "Wall time of external transformer invocations.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"success"},
	)

	workerBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_busy",
			Help: "1 while the worker is running a job, 0 while idle.",
		},
	)
)

func IncJob(outcome string) {
	jobsProcessedTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetQueueDepth(n int) {
	jobsQueueDepth.Set(float64(n))
}

func ObserveTransform(seconds float64, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	transformDurationSeconds.WithLabelValues(label).Observe(seconds)
}

func SetWorkerBusy(busy bool) {
	if busy {
		workerBusy.Set(1)
		return
	}
	workerBusy.Set(0)
}
