// Package metrics defines and registers all custom Prometheus metrics for the
// tablebook client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; /metrics exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tablebook"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state machine transitions.
// Label:
//   - to: the phase entered (e.g. "authenticated", "anonymous")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session phase transitions, by target phase.",
	},
	[]string{"to"},
)

// AuthRequestsTotal counts auth operations by outcome.
// Labels:
//   - operation: login, register, forgot_password, reset_password, me
//   - outcome: "ok" or the classified error kind (e.g. "invalid_credentials")
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of auth backend calls, labelled by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// CrossTabSyncTotal counts re-synchronisations triggered by other contexts.
// Label:
//   - source: "broadcast" or "storage"
var CrossTabSyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cross_tab_sync_total",
		Help:      "Total number of state re-reads triggered by other contexts.",
	},
	[]string{"source"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures REST round trips to the reservation backend.
// Label:
//   - endpoint: method and route template (e.g. "GET /tables/:id")
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of REST calls to the reservation backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// ── UI metrics ────────────────────────────────────────────────────────────────

// CartOperationsTotal counts cart mutations.
// Label:
//   - operation: add, replace, remove, update, clear
var CartOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Total number of cart mutations, by operation.",
	},
	[]string{"operation"},
)

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - decision: wait, redirect_login, redirect_home, allow
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions.",
	},
	[]string{"decision"},
)
