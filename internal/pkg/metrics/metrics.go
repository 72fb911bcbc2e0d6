package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the engine's instrumentation. A single instance is
// provided at bootstrap and handed to the usecases.
type Metrics struct {
	HoldsCreated   prometheus.Counter
	HoldConflicts  prometheus.Counter
	HoldsPromoted  prometheus.Counter
	HoldsReleased  prometheus.Counter
	HoldsExpired   prometheus.Counter
	QueryDuration  prometheus.Histogram
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HoldsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_holds_created_total",
			Help: "Holds successfully acquired.",
		}),
		HoldConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_hold_conflicts_total",
			Help: "Hold acquisitions rejected because the interval was occupied.",
		}),
		HoldsPromoted: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_holds_promoted_total",
			Help: "Holds promoted to bookings.",
		}),
		HoldsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_holds_released_total",
			Help: "Holds released by their owner.",
		}),
		HoldsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_holds_expired_total",
			Help: "Holds marked expired by the background sweep.",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "booking_availability_query_duration_seconds",
			Help:    "Latency of availability queries.",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_next_available_cache_hits_total",
			Help: "Next-available widget requests served from cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_next_available_cache_misses_total",
			Help: "Next-available widget requests that recomputed.",
		}),
	}
}
