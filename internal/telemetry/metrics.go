package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	BatchesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_batches_submitted_total", Help: "Batch jobs submitted to the provider"})
	UsersSkipped     = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_users_skipped_total", Help: "Users skipped at submission for lack of completed items"})
	PollCycles       = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_poll_cycles_total", Help: "Poll cycles executed"})
	PollErrors       = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_poll_errors_total", Help: "Per-job errors during poll cycles"})
	JobsCompleted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_jobs_completed_total", Help: "Batch jobs that reached completed"})
	JobsFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_jobs_failed_total", Help: "Batch jobs that reached failed or cancelled"})
	ItemsSucceeded   = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_items_succeeded_total", Help: "Batch items consumed into summary documents"})
	ItemsFailed      = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_items_failed_total", Help: "Batch items that produced errors during consumption"})
	JobsSwept        = prometheus.NewCounter(prometheus.CounterOpts{Name: "recap_jobs_swept_total", Help: "Batch job records removed by the retention sweep"})
	OpenJobsGauge    = prometheus.NewGauge(prometheus.GaugeOpts{Name: "recap_open_jobs", Help: "Batch jobs currently in a non-terminal state"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			BatchesSubmitted,
			UsersSkipped,
			PollCycles,
			PollErrors,
			JobsCompleted,
			JobsFailed,
			ItemsSucceeded,
			ItemsFailed,
			JobsSwept,
			OpenJobsGauge,
		)
	})
	return promhttp.Handler()
}
