package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures pipeline health signals.
type Metrics struct {
	JobsClaimed   prometheus.Counter
	JobsFinalized prometheus.Counter
	JobsReverted  prometheus.Counter
	JobsPrinted   prometheus.Counter
	PrintFailures prometheus.Counter
	StaleReleased prometheus.Counter
	JobDuration   prometheus.Histogram
}

// NewMetrics creates and registers the pipeline metrics. Pass a private
// registry in tests; nil uses the default registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		JobsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kthimi_jobs_claimed_total",
			Help: "Invoice jobs claimed from the work queue.",
		}),
		JobsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kthimi_jobs_finalized_total",
			Help: "Invoice jobs completed and marked printed.",
		}),
		JobsReverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kthimi_jobs_reverted_total",
			Help: "Invoice jobs returned to the queue after a failure.",
		}),
		JobsPrinted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kthimi_jobs_printed_total",
			Help: "Invoice documents dispatched to a network printer.",
		}),
		PrintFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kthimi_print_failures_total",
			Help: "Best-effort printing failures that did not fail the job.",
		}),
		StaleReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kthimi_stale_jobs_released_total",
			Help: "Stuck in-progress jobs released back to the queue.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kthimi_job_duration_seconds",
			Help:    "End-to-end processing latency per invoice job.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	registerer.MustRegister(
		m.JobsClaimed,
		m.JobsFinalized,
		m.JobsReverted,
		m.JobsPrinted,
		m.PrintFailures,
		m.StaleReleased,
		m.JobDuration,
	)
	return m
}
