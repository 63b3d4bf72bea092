// Package metrics defines and registers all custom Prometheus metrics for the
// branch dashboard. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; /metrics exposes them together with the echo request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls to the identity, ledger and reporting services.
// Labels:
//   - service: "identity", "ledger" or "reporting"
//   - method:  HTTP method
//   - code:    HTTP status code, or "network_error" when no response arrived
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests sent to upstream services.",
	},
	[]string{"service", "method", "code"},
)

// UpstreamRequestDuration measures upstream round-trip time.
// Label:
//   - service: "identity", "ledger" or "reporting"
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of upstream requests from send to body read.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service"},
)

// ── Dashboard metrics ─────────────────────────────────────────────────────────

// DashboardLoadsTotal counts balance+operations loads.
// Label:
//   - result: "applied", "failed" or "stale" (discarded by the sequence guard)
var DashboardLoadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loads_total",
		Help:      "Total number of dashboard data loads, by outcome.",
	},
	[]string{"result"},
)

// WritesTotal counts write round-trips issued on behalf of the operator.
// Labels:
//   - kind:   "create_operation", "create_user", "update_user", "delete_user"
//   - result: "ok" or "error"
var WritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writes_total",
		Help:      "Total number of write requests, by kind and outcome.",
	},
	[]string{"kind", "result"},
)

// OperationsLoaded is the size of the record set held by the engine.
var OperationsLoaded = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "operations_loaded",
		Help:      "Number of operation records in the current dashboard record set.",
	},
)
