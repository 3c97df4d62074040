package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/memory"
	"scamshield/pkg/logger"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFromClient(client, "test:", logger.Nop()), mr
}

func TestRateLimit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := c.CheckRateLimit(ctx, "user-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(2-i), remaining)
	}

	allowed, remaining, reset, err := c.CheckRateLimit(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.True(t, reset.After(time.Now()))

	allowed, _, _, err = c.CheckRateLimit(ctx, "user-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLock(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "seed", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "seed", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "seed"))
	ok, err = c.AcquireLock(ctx, "seed", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var dest []string
	found, err := c.GetJSON(ctx, "missing", &dest)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetJSON(ctx, "k", []string{"a"}, time.Minute))
	found, err = c.GetJSON(ctx, "k", &dest)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a"}, dest)
}

func TestBlacklistCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	store := memory.NewBlacklistStore()
	_, err := store.Upsert(ctx, models.BlacklistEntry{Phone: "+2348031234567", ReportedBy: "system"})
	require.NoError(t, err)

	bc := NewBlacklistCache(c, store, logger.Nop())

	n, err := bc.Warm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, mr.Exists("test:"+KeyBlacklistSet))

	listed, err := bc.IsBlacklisted(ctx, "+2348031234567")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = bc.IsBlacklisted(ctx, "+2348000000000")
	require.NoError(t, err)
	assert.False(t, listed)

	_, err = bc.Upsert(ctx, models.BlacklistEntry{Phone: "+2348099999999", ReportedBy: "u1"})
	require.NoError(t, err)
	members, err := mr.Members("test:" + KeyBlacklistSet)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"+2348031234567", "+2348099999999"}, members)

	entry, err := bc.Get(ctx, "+2348031234567")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, mr.Exists("test:"+KeyBlacklistEntryPrefix+"+2348031234567"))

	// a second report refreshes the cached entry
	_, err = bc.Upsert(ctx, models.BlacklistEntry{Phone: "+2348031234567", ReportedBy: "u2"})
	require.NoError(t, err)
	entry, err = bc.Get(ctx, "+2348031234567")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Reports)

	missing, err := bc.Get(ctx, "+2348000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// store remains authoritative when redis is gone
	mr.Close()
	listed, err = bc.IsBlacklisted(ctx, "+2348099999999")
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestScanCounter(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	sc := NewScanCounter(c)

	require.NoError(t, sc.IncrementScans(ctx, "u1", models.RiskLevelHigh))
	require.NoError(t, sc.IncrementScans(ctx, "u1", models.RiskLevelLow))
	require.NoError(t, sc.IncrementScans(ctx, "u2", models.RiskLevelHigh))

	mine, err := sc.Counts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"total": 2, "High": 1, "Low": 1}, mine)

	all, err := sc.Counts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), all["total"])
	assert.Equal(t, int64(2), all["High"])
}
