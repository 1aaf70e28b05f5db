// Package metrics defines and registers all custom Prometheus metrics for the
// Phonely API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry via promauto at
// package load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "phonely"

// ── Chat metrics ──────────────────────────────────────────────────────────────

// MessagesSentTotal counts persisted chat messages.
// Label:
//   - type: "plain", "offer", "phone_share", or "system"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of chat messages persisted, by message type.",
	},
	[]string{"type"},
)

// OffersTotal counts offer lifecycle actions.
// Label:
//   - action: "made", "accepted", "rejected", "countered"
var OffersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offers_total",
		Help:      "Total number of offer actions in chat negotiations.",
	},
	[]string{"action"},
)

// BroadcastQueueDepth tracks pending fanout jobs in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var BroadcastQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "broadcast_queue_depth",
		Help:      "Current number of fanout jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// BroadcastDroppedTotal counts fanout jobs dropped because a worker channel
// was full. History is unaffected; only live delivery was skipped.
// Label:
//   - event: the realtime event name that was dropped
var BroadcastDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_dropped_total",
		Help:      "Total number of realtime fanout jobs dropped on queue overflow.",
	},
	[]string{"event"},
)

// ── Realtime connection metrics ───────────────────────────────────────────────

// WSConnections tracks currently open websocket connections.
var WSConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Number of websocket connections currently open.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// OTPIssuedTotal counts admin OTP challenges sent over SMS.
var OTPIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_issued_total",
		Help:      "Total number of admin login OTP codes issued.",
	},
)

// OTPVerifyTotal counts OTP verification outcomes.
// Label:
//   - result: "ok", "invalid", "expired", or "throttled"
var OTPVerifyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verify_total",
		Help:      "Total number of OTP verification attempts, by result.",
	},
	[]string{"result"},
)

// ── Listing metrics ───────────────────────────────────────────────────────────

// ListingsCreatedTotal counts newly published listings.
// Label:
//   - condition: "new", "like_new", "good", or "fair"
var ListingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_created_total",
		Help:      "Total number of listings created, by condition grade.",
	},
	[]string{"condition"},
)
