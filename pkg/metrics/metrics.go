package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_fetch_total",
		Help: "Number of order fetches issued by dashboard sessions.",
	},
		[]string{"role", "result"},
	)

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_cache_hits_total",
		Help: "Number of fetch cache hits, by TTL or by unchanged fingerprint.",
	},
		[]string{"role", "kind"},
	)

	PollInterval = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_poll_interval_seconds",
		Help: "Last polling interval selected for a role.",
	},
		[]string{"role"},
	)

	NewOrders = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_new_orders",
		Help: "Unacknowledged orders seen by the last projection of a role.",
	},
		[]string{"role"},
	)

	RealtimeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_realtime_events_total",
		Help: "Realtime change events received by bridges.",
	},
		[]string{"critical"},
	)

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_active_sessions",
		Help: "Dashboard sessions currently open.",
	})
)
