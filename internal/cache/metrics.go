package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheEntries tracks the current number of live entries
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adaptive_cache_entries",
			Help: "Current number of entries in the adaptive cache",
		},
	)

	// CacheHitRatio tracks the global hit ratio
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adaptive_cache_hit_ratio",
			Help: "Adaptive cache hit ratio",
		},
	)

	// CacheEvictionsTotal tracks priority-based evictions
	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adaptive_cache_evictions_total",
			Help: "Total number of entries evicted for capacity",
		},
	)

	// CacheExpirationsTotal tracks TTL expirations
	CacheExpirationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adaptive_cache_expirations_total",
			Help: "Total number of entries removed on expiry",
		},
	)

	// CacheAdaptiveExtensionsTotal tracks TTL extensions for hot entries
	CacheAdaptiveExtensionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adaptive_cache_ttl_extensions_total",
			Help: "Total number of adaptive TTL extensions applied at write-refresh",
		},
	)
)
