package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	attemptsScoredTotal    *prometheus.CounterVec
	submissionsReceived    prometheus.Counter
	submissionsGraded      prometheus.Counter
	attendanceMarkedTotal  *prometheus.CounterVec
	notificationsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoring_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		attemptsScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_attempts_scored_total",
			Help: "Total number of quiz attempts scored.",
		}, []string{"assessment_status"})

		submissionsReceived = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoring_submissions_received_total",
			Help: "Total number of assignment submissions accepted.",
		})

		submissionsGraded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoring_submissions_graded_total",
			Help: "Total number of submissions graded by professors.",
		})

		attendanceMarkedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_attendance_marked_total",
			Help: "Total number of attendance marks recorded.",
		}, []string{"status"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_notifications_published_total",
			Help: "Total number of notifications published to the brokers.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			attemptsScoredTotal,
			submissionsReceived,
			submissionsGraded,
			attendanceMarkedTotal,
			notificationsPublished,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AttemptsScoredTotal exposes the counter for scored quiz attempts.
func AttemptsScoredTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsScoredTotal
}

// SubmissionsReceivedTotal exposes the counter for accepted submissions.
func SubmissionsReceivedTotal() prometheus.Counter {
	RegisterMetrics()
	return submissionsReceived
}

// SubmissionsGradedTotal exposes the counter for graded submissions.
func SubmissionsGradedTotal() prometheus.Counter {
	RegisterMetrics()
	return submissionsGraded
}

// AttendanceMarkedTotal exposes the counter for attendance marks.
func AttendanceMarkedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceMarkedTotal
}

// NotificationsPublishedTotal exposes the counter for published notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}
