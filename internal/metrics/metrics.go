package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every booklookup collector; it is what gets pushed.
var Registry = prometheus.NewRegistry()

var (
	RequestsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "booklookup_requests_total",
		Help: "Total number of outbound requests to the book API",
	}, []string{"endpoint", "status"})

	RequestDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booklookup_request_duration_seconds",
		Help:    "Duration of outbound requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	InteractionsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "booklookup_interactions_total",
		Help: "Shell interactions by outcome",
	}, []string{"outcome"})

	AuthorsSkipped = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "booklookup_authors_skipped_total",
		Help: "Authors dropped from output because their fetch failed",
	})
)

// Interaction outcomes.
const (
	OutcomeNotFound    = "not_found"
	OutcomeFound       = "found"
	OutcomeFoundNoAuth = "found_no_authors"
	OutcomePartial     = "found_partial_authors"
)

// Push sends the registry to a Prometheus pushgateway. No-op when url is empty.
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(Registry).Push()
}
