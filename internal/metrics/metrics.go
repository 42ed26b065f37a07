package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intercom_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Ledger metrics
	EventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_ledger_events_applied_total",
			Help: "Expense events merged into a room",
		},
		[]string{"source"}, // "local", "broadcast", or "snapshot"
	)

	EventsDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_ledger_events_duplicate_total",
			Help: "Events skipped as idempotent duplicates",
		},
		[]string{"source"},
	)

	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_ledger_events_rejected_total",
			Help: "Events rejected by validation",
		},
	)

	RoomsCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_ledger_rooms_cleared_total",
			Help: "Rooms destructively reset",
		},
	)

	SnapshotsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_snapshots_saved_total",
			Help: "Room snapshots written to the durable store",
		},
	)

	SnapshotsRestored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_snapshots_restored_total",
			Help: "Room snapshots read back and imported",
		},
	)

	BroadcastsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_broadcasts_published_total",
			Help: "Accepted local events published to peers",
		},
	)

	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_broadcast_failures_total",
			Help: "Broadcast publishes that failed; local state is kept",
		},
	)

	PeersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intercom_peers_registered_total",
			Help: "Total peer identities registered",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercom_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intercom_store_latency_seconds",
			Help:    "Durable store operation latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
		[]string{"op"},
	)
)
