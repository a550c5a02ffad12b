// Package metrics provides Prometheus metrics for job submission and polling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all submission-side metrics.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec // submissions by job type, pathway and outcome

	PollAttemptsTotal   prometheus.Counter   // status queries issued by the poller
	PollDurationSeconds prometheus.Histogram // wall time from first poll to terminal state

	UploadArchiveBytes prometheus.Histogram // size of transferred archives
}

// New creates a Metrics instance with all metrics registered on the default
// registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// registry so suites do not collide on metric names.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verid_job_submissions_total",
			Help: "Total job submissions by job type, pathway and outcome",
		}, []string{"job_type", "pathway", "outcome"}),

		PollAttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "verid_job_poll_attempts_total",
			Help: "Total status queries issued by the job status poller",
		}),

		PollDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verid_job_poll_duration_seconds",
			Help:    "Duration of polling chains until a terminal state",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 120},
		}),

		UploadArchiveBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verid_job_upload_archive_bytes",
			Help:    "Size of upload archives transferred to the service",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

// RecordSubmission records one finished submission.
func (m *Metrics) RecordSubmission(jobType, pathway, outcome string) {
	m.SubmissionsTotal.WithLabelValues(jobType, pathway, outcome).Inc()
}

// RecordPollAttempt records one status query.
func (m *Metrics) RecordPollAttempt() {
	m.PollAttemptsTotal.Inc()
}

// ObservePollDuration records how long a polling chain ran.
func (m *Metrics) ObservePollDuration(d time.Duration) {
	m.PollDurationSeconds.Observe(d.Seconds())
}

// ObserveArchiveBytes records the size of a transferred archive.
func (m *Metrics) ObserveArchiveBytes(n int) {
	m.UploadArchiveBytes.Observe(float64(n))
}
