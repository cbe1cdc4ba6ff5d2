// Package metrics defines and registers all custom Prometheus metrics for the
// wallet daemon. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto; /metrics exposes them next to the HTTP
// server metrics collected by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "walletd"

// ── Backend client metrics ────────────────────────────────────────────────────

// BackendRequestsTotal counts calls made to the wallet backend.
// Labels:
//   - api: "user" or "admin"
//   - route: the route template (e.g. "/payments/fedapay/status/recharge/:id")
//   - code: the HTTP status code, or "timeout" / "error" when none was received
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests sent to the wallet backend.",
	},
	[]string{"api", "route", "code"},
)

// BackendRequestDuration measures backend round trips.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of wallet backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"api", "route"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle transitions.
// Label:
//   - event: "login", "signup", "google_login", "logout", "admin_login",
//     "admin_logout"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// ── Wallet metrics ────────────────────────────────────────────────────────────

// RechargesTotal counts recharge outcomes.
// Label:
//   - result: "started", "completed", "failed", "timeout"
var RechargesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recharges_total",
		Help:      "Total number of mobile-money recharges, by outcome.",
	},
	[]string{"result"},
)

// TransfersTotal counts transfer outcomes.
// Label:
//   - result: "completed", "rejected", "error"
var TransfersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfers_total",
		Help:      "Total number of transfers, by outcome.",
	},
	[]string{"result"},
)

// ── Storage metrics ───────────────────────────────────────────────────────────

// StorageChangesTotal counts out-of-band key changes received from the change feed.
// Label:
//   - driver: "memory", "file", "redis", "mongo"
var StorageChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_changes_total",
		Help:      "Total number of storage changes made by other clients.",
	},
	[]string{"driver"},
)
