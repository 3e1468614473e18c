package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"booklookup/internal/logger"
	"booklookup/internal/metrics"
)

// EndpointFunc maps an outbound request to a low-cardinality metric label.
type EndpointFunc func(*http.Request) string

type loggingTransport struct {
	next     http.RoundTripper
	log      *logrus.Logger
	endpoint EndpointFunc
}

// Transport wraps next so every outbound request is logged at DEBUG level and
// counted in the booklookup request metrics.
func Transport(next http.RoundTripper, log *logrus.Logger, endpoint EndpointFunc) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if endpoint == nil {
		endpoint = func(r *http.Request) string { return r.URL.Path }
	}
	return &loggingTransport{next: next, log: log, endpoint: endpoint}
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	ep := t.endpoint(r)

	res, err := t.next.RoundTrip(r)
	took := time.Since(start)

	status := "error"
	if err == nil {
		status = strconv.Itoa(res.StatusCode)
	}
	metrics.RequestsTotal.WithLabelValues(ep, status).Inc()
	metrics.RequestDuration.WithLabelValues(ep).Observe(took.Seconds())

	if t.log.IsLevelEnabled(logrus.DebugLevel) {
		fields := logrus.Fields{
			"method":   r.Method,
			"url":      r.URL.String(),
			"endpoint": ep,
			"status":   status,
			"took":     took,
		}
		if id := logger.RequestID(r.Context()); id != "" {
			fields["request_id"] = id
		}
		entry := t.log.WithFields(fields)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("http.request")
	}
	return res, err
}
