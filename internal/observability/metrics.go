package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creatorhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of registered realtime connections per hub.
	WebSocketConnectionsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "creatorhub_websocket_connections",
		Help: "Registered realtime connections by hub",
	}, []string{"hub"})

	// RealtimeEventsDelivered counts frames queued to connections by hub and event.
	RealtimeEventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorhub_realtime_events_delivered_total",
		Help: "Realtime frames queued for delivery",
	}, []string{"hub", "event"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorhub_notifications_created_total",
		Help: "Persisted notifications by type",
	}, []string{"type"})

	// SideEffectFailures counts logged-and-swallowed failures by operation.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorhub_side_effect_failures_total",
		Help: "Failures of best-effort side effects by operation",
	}, []string{"operation"})

	// LikeToggles counts like toggles by target kind and resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creatorhub_like_toggles_total",
		Help: "Like toggles by target kind and result",
	}, []string{"target", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
