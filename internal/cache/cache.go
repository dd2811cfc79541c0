// Package cache provides a bounded in-memory key/value store with per-entry
// TTL, hit/miss tracking, adaptive TTL extension and priority-aware eviction.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/config"
)

// entryOverheadBytes is the rough fixed cost attributed to each entry when
// estimating memory usage. Values are opaque, so the estimate is intentionally
// coarse.
const entryOverheadBytes = 256

// entry is a single cache slot. The cache exclusively owns entry records;
// stored values are shared by reference with callers and must not be mutated
// after caching.
type entry struct {
	key                  string
	value                interface{}
	class                PriorityClass
	createdAt            time.Time
	expiresAt            time.Time
	lastAccessedAt       time.Time
	hitCount             uint64
	missesBeforeFirstHit uint64
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries     int     `json:"entries"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	HitRatio    float64 `json:"hit_ratio"`
}

// Health status values reported by HealthMetrics.
const (
	HealthStatusHealthy = "healthy"
	HealthStatusWarning = "warning"
)

// EvictionAuditor receives capacity-eviction events for the audit trail.
type EvictionAuditor interface {
	LogCacheEviction(key string, priorityClass string, idleSeconds float64, missesBeforeFirstHit uint64)
}

// HealthMetrics reports cache health for readiness checks.
type HealthMetrics struct {
	Status              string   `json:"status"`
	Issues              []string `json:"issues,omitempty"`
	HitRatio            float64  `json:"hit_ratio"`
	Entries             int      `json:"entries"`
	MemoryBytesEstimate int64    `json:"memory_bytes_estimate"`
}

// AdaptiveCache is a bounded TTL cache with weighted-LRU eviction. Instances
// are explicitly constructed and injected; Start/Stop control the background
// sweep so tests can run isolated instances without cross-test state.
type AdaptiveCache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// misses recorded against keys that previously held an entry, folded
	// into the replacement entry on the next Set. Misses on keys that were
	// never set are only counted globally.
	staleMisses map[string]uint64

	policies                PolicyTable
	maxEntries              int
	sweepInterval           time.Duration
	adaptiveHitThreshold    uint64
	adaptiveExtensionFactor float64
	maxAdaptiveTTL          time.Duration
	minHitRatio             float64
	maxMemoryBytes          int64

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	logger  *logrus.Logger
	auditor EvictionAuditor
	stopCh  chan struct{}
	started bool
}

// New creates a new adaptive cache from configuration. Call Start to launch
// the background sweep and Stop to halt it.
func New(cfg *config.CacheConfig, logger *logrus.Logger) *AdaptiveCache {
	return &AdaptiveCache{
		entries:                 make(map[string]*entry),
		staleMisses:             make(map[string]uint64),
		policies:                PolicyTableFromConfig(cfg.Policies),
		maxEntries:              cfg.MaxEntries,
		sweepInterval:           time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		adaptiveHitThreshold:    uint64(cfg.AdaptiveHitThreshold),
		adaptiveExtensionFactor: cfg.AdaptiveExtensionFactor,
		maxAdaptiveTTL:          time.Duration(cfg.MaxAdaptiveTTLSeconds) * time.Second,
		minHitRatio:             cfg.MinHitRatio,
		maxMemoryBytes:          cfg.MaxMemoryBytes,
		logger:                  logger,
	}
}

// SetEvictionAuditor routes capacity evictions to an audit trail. Call before
// Start; the auditor is invoked under the cache lock and must not call back
// into the cache.
func (c *AdaptiveCache) SetEvictionAuditor(a EvictionAuditor) {
	c.auditor = a
}

// Start launches the periodic cleanup sweep. The sweep removes expired
// entries independent of access pattern so write-once keys do not accumulate.
func (c *AdaptiveCache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return
	}
	c.started = true
	c.stopCh = make(chan struct{})

	go c.sweepLoop(c.stopCh)
	c.logger.WithField("interval", c.sweepInterval).Debug("Cache sweep started")
}

// Stop halts the background sweep. Safe to call more than once.
func (c *AdaptiveCache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}
	c.started = false
	close(c.stopCh)
}

func (c *AdaptiveCache) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			removed := c.DeleteExpired()
			if removed > 0 {
				c.logger.WithField("removed", removed).Debug("Cache sweep removed expired entries")
			}
		}
	}
}

// Get returns the stored value for key. An unexpired hit updates the entry's
// hit counter and recency without touching its expiry. An expired entry is
// removed and counted as a miss. Invalid or absent keys are plain misses,
// never errors.
func (c *AdaptiveCache) Get(key string) (interface{}, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		c.updateMetricsLocked()
		return nil, false
	}

	if e.expired(now) {
		delete(c.entries, key)
		c.expirations++
		c.misses++
		c.staleMisses[key]++
		CacheExpirationsTotal.Inc()
		c.updateMetricsLocked()
		return nil, false
	}

	e.hitCount++
	e.lastAccessedAt = now
	c.hits++
	c.updateMetricsLocked()
	return e.value, true
}

// Set stores value under key with the TTL default of the key's priority
// class.
func (c *AdaptiveCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key. A zero ttl uses the policy default for
// the class inferred from the key prefix. When the write refreshes an entry
// that had accumulated hits above the adaptive threshold, the new entry's TTL
// is extended, so frequently-reused entries survive longer. The extension is
// applied only at write-refresh time, never retroactively to a live expiry.
func (c *AdaptiveCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	now := time.Now()
	class := classForKey(key)
	policy := c.policies[class]

	if ttl <= 0 {
		ttl = policy.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, refreshing := c.entries[key]
	if refreshing && prev.hitCount >= c.adaptiveHitThreshold {
		extended := time.Duration(float64(ttl) * c.adaptiveExtensionFactor)
		if extended > c.maxAdaptiveTTL {
			extended = c.maxAdaptiveTTL
		}
		if extended > ttl {
			ttl = extended
			CacheAdaptiveExtensionsTotal.Inc()
			c.logger.WithFields(logrus.Fields{
				"key": key,
				"ttl": ttl,
			}).Debug("Adaptive TTL extension applied")
		}
	}

	if !refreshing && len(c.entries) >= c.maxEntries {
		c.deleteExpiredLocked(now)
		for len(c.entries) >= c.maxEntries {
			c.evictLocked(now)
		}
	}

	c.entries[key] = &entry{
		key:                  key,
		value:                value,
		class:                class,
		createdAt:            now,
		expiresAt:            now.Add(ttl),
		lastAccessedAt:       now,
		missesBeforeFirstHit: c.staleMisses[key],
	}
	delete(c.staleMisses, key)
	c.updateMetricsLocked()
}

// Delete removes the entry for key if present.
func (c *AdaptiveCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	delete(c.staleMisses, key)
	c.updateMetricsLocked()
}

// Clear removes all entries and resets counters.
func (c *AdaptiveCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.staleMisses = make(map[string]uint64)
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	c.expirations = 0
	c.updateMetricsLocked()
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed. Used when a live result lands and the affected
// week's derived entries must not serve stale data.
func (c *AdaptiveCache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
			removed++
		}
	}
	c.updateMetricsLocked()
	return removed
}

// DeleteExpired removes all expired entries and returns the number removed.
func (c *AdaptiveCache) DeleteExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.deleteExpiredLocked(now)
	c.updateMetricsLocked()
	return removed
}

func (c *AdaptiveCache) deleteExpiredLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			// A sweep removal is not a miss; drop any pending miss count so
			// write-once keys do not accumulate in staleMisses forever.
			delete(c.staleMisses, k)
			c.expirations++
			CacheExpirationsTotal.Inc()
			removed++
		}
	}
	return removed
}

// evictLocked removes the entry with the lowest combined score of priority
// weight and recency. Low-priority, least-recently-used entries go first even
// when a high-priority entry is chronologically older. Weighted LRU, not
// strict LRU.
func (c *AdaptiveCache) evictLocked(now time.Time) {
	var victim *entry
	lowest := 0.0

	for _, e := range c.entries {
		idle := now.Sub(e.lastAccessedAt).Seconds()
		score := c.policies[e.class].Weight / (1 + idle)
		if victim == nil || score < lowest {
			victim = e
			lowest = score
		}
	}

	if victim == nil {
		return
	}

	delete(c.entries, victim.key)
	c.evictions++
	CacheEvictionsTotal.Inc()

	idle := now.Sub(victim.lastAccessedAt).Seconds()
	if c.auditor != nil {
		c.auditor.LogCacheEviction(victim.key, victim.class.String(), idle, victim.missesBeforeFirstHit)
	}
	c.logger.WithFields(logrus.Fields{
		"key":                     victim.key,
		"priority_class":          victim.class.String(),
		"idle_seconds":            idle,
		"misses_before_first_hit": victim.missesBeforeFirstHit,
	}).Debug("Cache entry evicted")
}

// Len returns the current number of entries.
func (c *AdaptiveCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *AdaptiveCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Entries:     len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		HitRatio:    hitRatio(c.hits, c.misses),
	}
}

// HealthMetrics reports the cache's health. Status degrades to "warning" when
// the hit ratio falls below the configured floor or the memory estimate
// exceeds the configured ceiling; both issues can fire together.
func (c *AdaptiveCache) HealthMetrics() HealthMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ratio := hitRatio(c.hits, c.misses)
	memory := c.memoryEstimateLocked()

	hm := HealthMetrics{
		Status:              HealthStatusHealthy,
		HitRatio:            ratio,
		Entries:             len(c.entries),
		MemoryBytesEstimate: memory,
	}

	if c.hits+c.misses > 0 && ratio < c.minHitRatio {
		hm.Issues = append(hm.Issues, fmt.Sprintf("hit ratio %.2f below threshold %.2f", ratio, c.minHitRatio))
	}
	if memory > c.maxMemoryBytes {
		hm.Issues = append(hm.Issues, fmt.Sprintf("estimated memory %d bytes exceeds threshold %d", memory, c.maxMemoryBytes))
	}
	if len(hm.Issues) > 0 {
		hm.Status = HealthStatusWarning
	}
	return hm
}

func (c *AdaptiveCache) memoryEstimateLocked() int64 {
	var total int64
	for k := range c.entries {
		total += entryOverheadBytes + int64(len(k))
	}
	return total
}

func (c *AdaptiveCache) updateMetricsLocked() {
	CacheEntries.Set(float64(len(c.entries)))
	CacheHitRatio.Set(hitRatio(c.hits, c.misses))
}

func hitRatio(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
