// Package metrics defines the Prometheus metrics of the mock tour backend.
// Every router gets its own registry, so several backends can run in one
// process (tests start many).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mockapi"

// HTTP groups the backend's series.
type HTTP struct {
	// RequestsTotal counts handled requests.
	// Labels: method, route (template, e.g. "/api/v1/tours/:id/upvote"), code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures handler latency.
	RequestDuration *prometheus.HistogramVec

	// VotesTotal counts vote mutations.
	// Labels:
	//   - action: "upvote" or "downvote"
	//   - result: "ok", "conflict", "not_found", "error"
	VotesTotal *prometheus.CounterVec
}

// New registers the backend metrics with reg.
func New(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	return &HTTP{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests, by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		VotesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_total",
				Help:      "Total number of vote mutations, by action and result.",
			},
			[]string{"action", "result"},
		),
	}
}
