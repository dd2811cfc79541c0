package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridiron-analytics/internal/config"
)

func testCacheConfig(maxEntries int) *config.CacheConfig {
	return &config.CacheConfig{
		MaxEntries:              maxEntries,
		SweepIntervalSeconds:    1,
		AdaptiveHitThreshold:    3,
		AdaptiveExtensionFactor: 2.0,
		MaxAdaptiveTTLSeconds:   3600,
		MinHitRatio:             0.3,
		MaxMemoryBytes:          1 << 20,
		Policies: map[string]config.CachePolicyConfig{
			"ratings":     {DefaultTTLSeconds: 1800, Weight: 3.0},
			"predictions": {DefaultTTLSeconds: 600, Weight: 2.0},
			"calibration": {DefaultTTLSeconds: 3600, Weight: 3.0},
			"scratch":     {DefaultTTLSeconds: 120, Weight: 1.0},
		},
	}
}

func newTestCache(t *testing.T, maxEntries int) *AdaptiveCache {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(testCacheConfig(maxEntries), log)
}

func TestGetMissOnAbsentKey(t *testing.T) {
	c := newTestCache(t, 10)

	_, ok := c.Get("predictions:2025:1:KC:BUF")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t, 10)

	c.Set("predictions:2025:1:KC:BUF", "value")
	v, ok := c.Get("predictions:2025:1:KC:BUF")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)
}

func TestExpiredEntryRemovedOnGet(t *testing.T) {
	c := newTestCache(t, 10)

	c.SetWithTTL("scratch:tmp", "value", 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("scratch:tmp")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Expirations)
}

func TestRepeatedGetReturnsSameValueWithoutExtendingExpiry(t *testing.T) {
	c := newTestCache(t, 10)

	value := &struct{ N int }{N: 42}
	c.SetWithTTL("predictions:2025:1:KC:BUF", value, 150*time.Millisecond)

	// Frequent reads must not push the expiry out.
	for i := 0; i < 4; i++ {
		v, ok := c.Get("predictions:2025:1:KC:BUF")
		require.True(t, ok)
		assert.Same(t, value, v)
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)
	_, ok := c.Get("predictions:2025:1:KC:BUF")
	assert.False(t, ok, "entry should expire on its original schedule despite reads")
}

func TestEvictionNeverExceedsMaxEntries(t *testing.T) {
	c := newTestCache(t, 5)

	for i := 0; i < 20; i++ {
		c.Set(fmt.Sprintf("scratch:item:%d", i), i)
		assert.LessOrEqual(t, c.Len(), 5)
	}

	stats := c.Stats()
	assert.Equal(t, uint64(15), stats.Evictions)
}

func TestEvictionPrefersLowPriorityLRU(t *testing.T) {
	c := newTestCache(t, 3)

	// High-priority entry set first and read frequently.
	c.Set("elo_ratings:2025:standard", "ratings")
	for i := 0; i < 5; i++ {
		_, ok := c.Get("elo_ratings:2025:standard")
		require.True(t, ok)
	}

	// Low-priority entry never read again.
	c.Set("scratch:backtest:tmp", "scratch")
	time.Sleep(20 * time.Millisecond)

	c.Set("predictions:2025:1:KC:BUF", "prediction")
	_, _ = c.Get("predictions:2025:1:KC:BUF")

	// Inserting a fourth entry must evict the scratch key, not the
	// chronologically older high-priority ratings key.
	c.Set("predictions:2025:1:SF:DAL", "prediction2")

	_, ok := c.Get("elo_ratings:2025:standard")
	assert.True(t, ok, "high-priority frequently-used entry should survive")

	_, ok = c.Get("scratch:backtest:tmp")
	assert.False(t, ok, "low-priority rarely-used entry should be evicted first")
}

func TestAdaptiveTTLExtensionOnRefresh(t *testing.T) {
	c := newTestCache(t, 10)

	key := "scratch:hot"
	c.SetWithTTL(key, "v1", 100*time.Millisecond)

	// Accumulate hits above the adaptive threshold (3).
	for i := 0; i < 4; i++ {
		_, ok := c.Get(key)
		require.True(t, ok)
	}

	// Refresh write doubles the effective TTL of the new entry.
	c.SetWithTTL(key, "v2", 100*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	v, ok := c.Get(key)
	require.True(t, ok, "hot entry should have had its TTL extended at write-refresh")
	assert.Equal(t, "v2", v)

	time.Sleep(100 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestColdRefreshDoesNotExtendTTL(t *testing.T) {
	c := newTestCache(t, 10)

	key := "scratch:cold"
	c.SetWithTTL(key, "v1", 100*time.Millisecond)
	// No hits accumulated; refresh keeps the base TTL.
	c.SetWithTTL(key, "v2", 100*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestDeleteAndClear(t *testing.T) {
	c := newTestCache(t, 10)

	c.Set("scratch:a", 1)
	c.Set("scratch:b", 2)

	c.Delete("scratch:a")
	_, ok := c.Get("scratch:a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache(t, 10)

	c.Set(PredictionKey(2025, 1, "KC", "BUF"), "a")
	c.Set(PredictionKey(2025, 1, "SF", "DAL"), "b")
	c.Set(PredictionKey(2025, 2, "KC", "LAC"), "c")

	removed := c.InvalidatePrefix(PredictionWeekPrefix(2025, 1))
	assert.Equal(t, 2, removed)

	_, ok := c.Get(PredictionKey(2025, 2, "KC", "LAC"))
	assert.True(t, ok)
}

func TestBackgroundSweepRemovesExpiredEntries(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := testCacheConfig(10)
	cfg.SweepIntervalSeconds = 1
	c := New(cfg, log)

	c.Start()
	defer c.Stop()

	c.SetWithTTL("scratch:sweep", "v", 50*time.Millisecond)
	time.Sleep(1200 * time.Millisecond)

	// Removed by the sweep, not by access.
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Expirations)
}

func TestSweepDropsStaleMissCountsForRemovedKeys(t *testing.T) {
	c := newTestCache(t, 2000)

	// Write-once keys that are never read after expiry must not leave any
	// bookkeeping behind once the sweep removes them.
	for i := 0; i < 1000; i++ {
		c.SetWithTTL(fmt.Sprintf("scratch:once:%d", i), i, time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	removed := c.DeleteExpired()
	assert.Equal(t, 1000, removed)
	assert.Equal(t, 0, c.Len())

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Empty(t, c.staleMisses)
}

func TestSweepClearsMissCountFromEarlierExpiredRead(t *testing.T) {
	c := newTestCache(t, 10)

	// A read after expiry records a stale miss against the key.
	c.SetWithTTL("scratch:reread", "v", time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get("scratch:reread")
	require.False(t, ok)

	// Rewriting folds the count into the new entry; sweeping that entry away
	// removes the key's bookkeeping entirely.
	c.SetWithTTL("scratch:reread", "v2", time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	c.DeleteExpired()

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Empty(t, c.staleMisses)
}

type recordingAuditor struct {
	keys    []string
	classes []string
	misses  []uint64
}

func (r *recordingAuditor) LogCacheEviction(key, priorityClass string, idleSeconds float64, missesBeforeFirstHit uint64) {
	r.keys = append(r.keys, key)
	r.classes = append(r.classes, priorityClass)
	r.misses = append(r.misses, missesBeforeFirstHit)
}

func TestEvictionReportsToAuditor(t *testing.T) {
	c := newTestCache(t, 2)
	auditor := &recordingAuditor{}
	c.SetEvictionAuditor(auditor)

	// An expired read before the rewrite gives the entry a stale-miss count
	// that the eviction report carries.
	c.SetWithTTL("scratch:victim", "v", time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get("scratch:victim")
	require.False(t, ok)
	c.Set("scratch:victim", "v2")

	c.Set("predictions:2025:1:KC:BUF", "p1")
	time.Sleep(5 * time.Millisecond)
	c.Set("predictions:2025:1:SF:DAL", "p2")

	require.Len(t, auditor.keys, 1)
	assert.Equal(t, "scratch:victim", auditor.keys[0])
	assert.Equal(t, ClassScratch.String(), auditor.classes[0])
	assert.Equal(t, uint64(1), auditor.misses[0])
}

func TestStartStopIdempotent(t *testing.T) {
	c := newTestCache(t, 10)

	c.Start()
	c.Start()
	c.Stop()
	c.Stop()
}

func TestHealthMetricsWarnings(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := testCacheConfig(10)
	cfg.MinHitRatio = 0.9
	cfg.MaxMemoryBytes = 1 // force the memory issue
	c := New(cfg, log)

	c.Set("scratch:x", "v")
	_, _ = c.Get("scratch:x")
	_, _ = c.Get("scratch:missing")
	_, _ = c.Get("scratch:missing2")

	hm := c.HealthMetrics()
	assert.Equal(t, "warning", hm.Status)
	assert.Len(t, hm.Issues, 2)
}

func TestHealthMetricsHealthyByDefault(t *testing.T) {
	c := newTestCache(t, 10)
	hm := c.HealthMetrics()
	assert.Equal(t, "healthy", hm.Status)
	assert.Empty(t, hm.Issues)
}

func TestClassForKeyPrefixes(t *testing.T) {
	tests := []struct {
		key   string
		class PriorityClass
	}{
		{RatingsKey(2025, "standard"), ClassRatings},
		{PredictionKey(2025, 1, "KC", "BUF"), ClassPredictions},
		{ResolvedWeekKey(2025, 1), ClassCalibration},
		{"scratch:anything", ClassScratch},
		{"unknown_prefix:x", ClassScratch},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.class, classForKey(tt.key), tt.key)
	}
}

func TestKeyJoinsParts(t *testing.T) {
	assert.Equal(t, "predictions:2025:3:KC:BUF", PredictionKey(2025, 3, "KC", "BUF"))
	assert.Equal(t, "elo_ratings:2025:standard", RatingsKey(2025, "standard"))
	assert.Equal(t, "calibration", Key(PrefixCalibration))
}
