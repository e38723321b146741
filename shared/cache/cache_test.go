package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-pipeline/internal/models"
)

func testTTLs() map[string]int {
	return map[string]int{
		"shorts":   21600,
		"video":    43200,
		"metadata": 3600,
		"fallback": 300,
		"error":    120,
	}
}

func resultFor(id string) *models.AcquisitionResult {
	return &models.AcquisitionResult{
		SourceIdentifier: id,
		Title:            "title " + id,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(10, testTTLs(), clock)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k1", resultFor("abc12345678"), CategoryShorts)
	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "abc12345678", got.SourceIdentifier)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheExpiryByCategory(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(10, testTTLs(), clock)
	require.NoError(t, err)

	c.Set("shorts", resultFor("a"), CategoryShorts)
	c.Set("err", resultFor("b"), CategoryError)

	// 2 minutes: error entry expires, shorts survives.
	clock.Advance(121 * time.Second)
	_, ok := c.Get("err")
	assert.False(t, ok, "error entry must expire after its short TTL")
	_, ok = c.Get("shorts")
	assert.True(t, ok)

	// 6 hours: shorts expires too.
	clock.Advance(6 * time.Hour)
	_, ok = c.Get("shorts")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Expired)
}

func TestCacheNeverServesExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(10, map[string]int{"fallback": 300}, clock)
	require.NoError(t, err)

	c.Set("k", resultFor("a"), CategoryFallback)

	clock.Advance(300*time.Second + time.Nanosecond)
	got, ok := c.Get("k")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(3, testTTLs(), clock)
	require.NoError(t, err)

	c.Set("a", resultFor("a"), CategoryShorts)
	c.Set("b", resultFor("b"), CategoryShorts)
	c.Set("c", resultFor("c"), CategoryShorts)

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", resultFor("d"), CategoryShorts)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)

	assert.Equal(t, 3, c.Stats().Size)
	assert.GreaterOrEqual(t, c.Stats().Evictions, int64(1))
}

func TestCacheHitCount(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(10, testTTLs(), clock)
	require.NoError(t, err)

	c.Set("k", resultFor("a"), CategoryVideo)
	for i := 0; i < 4; i++ {
		_, ok := c.Get("k")
		require.True(t, ok)
	}

	assert.Equal(t, int64(4), c.HitCount("k"))
	assert.Equal(t, int64(0), c.HitCount("missing"))
}

func TestCacheUnknownCategoryUsesFallbackTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(10, testTTLs(), clock)
	require.NoError(t, err)

	c.Set("k", resultFor("a"), Category("bogus"))

	clock.Advance(301 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok, "unknown category must inherit the short fallback TTL")
}

func TestCacheCleanupSweepsExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, err := New(20, testTTLs(), clock)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("err-%d", i), resultFor("x"), CategoryError)
	}
	c.Set("keep", resultFor("y"), CategoryVideo)

	clock.Advance(5 * time.Minute)
	removed := c.Cleanup()

	assert.Equal(t, 5, removed)
	assert.Equal(t, 1, c.Stats().Size)
	_, ok := c.Get("keep")
	assert.True(t, ok)
}
