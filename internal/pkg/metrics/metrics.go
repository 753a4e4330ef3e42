// Package metrics defines and registers the client-side Prometheus metrics
// of the tour client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on import via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trekkers"

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayRequestsTotal counts classified outcomes of outgoing calls.
// Labels:
//   - method: HTTP method
//   - outcome: "ok", "network", "auth", "conflict", "validation", "server"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of API calls, by method and classified outcome.",
	},
	[]string{"method", "outcome"},
)

// GatewayRequestDuration measures round-trip time of outgoing calls.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of API calls from dispatch to classification.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// GatewayAuthPurgesTotal counts credentials purged after a 401.
var GatewayAuthPurgesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_auth_purges_total",
		Help:      "Total number of credentials purged because the server rejected them.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Label:
//   - to: the status entered ("loading", "authenticated", "anonymous", "errored")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session transitions, by target status.",
	},
	[]string{"to"},
)

// ── Toggle metrics ────────────────────────────────────────────────────────────

// ToggleResultsTotal counts how toggles settled.
// Label:
//   - result: "ok", "conflict", "rollback", "ignored", "not_authenticated", "stale"
var ToggleResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toggle_results_total",
		Help:      "Total number of toggle attempts, by how they settled.",
	},
	[]string{"result"},
)
