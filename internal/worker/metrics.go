package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_tasks_total",
		Help: "Tasks handled, partitioned by outcome.",
	}, []string{"outcome"})

	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worker_task_duration_seconds",
		Help:    "Wall time spent handling one task.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	oracleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_oracle_duration_seconds",
		Help:    "Latency of analysis model calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"result"})
)

func observeTask(outcome Outcome, elapsed time.Duration) {
	tasksTotal.WithLabelValues(outcome.String()).Inc()
	taskDuration.Observe(elapsed.Seconds())
}

func observeOracleSuccess(elapsed time.Duration) {
	oracleDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
}

func observeOracleFailure(elapsed time.Duration) {
	oracleDuration.WithLabelValues("error").Observe(elapsed.Seconds())
}
