package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homeride"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// PriceReconciliations counts proposed prices by kind (total, segment)
	// and outcome (accepted, replaced).
	PriceReconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "price_reconciliations_total", Help: "Proposed prices reconciled against the fair band"},
		[]string{"kind", "outcome"},
	)
	RoutingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "routing_fallbacks_total", Help: "Routing calls answered with default travel data"},
		[]string{"call"},
	)
	RidesOffered = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rides_offered_total", Help: "Ride offers published"})
	RideJoins    = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_joins_total", Help: "Join attempts by result"},
		[]string{"result"},
	)
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "websocket_clients", Help: "Connected WebSocket clients"})
)

// Outcome labels for PriceReconciliations.
const (
	OutcomeAccepted = "accepted"
	OutcomeReplaced = "replaced"
)

// ObserveReconciliation counts one reconciled price.
func ObserveReconciliation(kind string, accepted bool) {
	outcome := OutcomeReplaced
	if accepted {
		outcome = OutcomeAccepted
	}
	PriceReconciliations.WithLabelValues(kind, outcome).Inc()
}
