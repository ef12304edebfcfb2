package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ExtractionsTotal    *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	LoginsTotal         *prometheus.CounterVec
	PublishesTotal      *prometheus.CounterVec
	SessionLookupsTotal *prometheus.CounterVec
)

var initOnce sync.Once

// Init registers every collector. Calling it again is a no-op, so tests may call it freely.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total number of extraction attempts.",
		},
		[]string{"strategy", "outcome"}, // outcome: success, not_found, fetch_error
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"domain"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of platform logins.",
		},
		[]string{"channel", "outcome"},
	)

	PublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publishes_total",
			Help: "Total number of publish attempts.",
		},
		[]string{"channel", "outcome"}, // outcome: success, need_login, failed
	)

	SessionLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_lookups_total",
			Help: "Session cache lookups by result.",
		},
		[]string{"channel", "result"}, // result: hit, miss, expired, error
	)
}
