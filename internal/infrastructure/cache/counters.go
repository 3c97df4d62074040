package cache

import (
	"context"
	"strconv"

	"scamshield/internal/domain/models"
)

// ScanCounter keeps running scan totals per user and globally in hashes
type ScanCounter struct {
	cache *RedisCache
}

func NewScanCounter(cache *RedisCache) *ScanCounter {
	return &ScanCounter{cache: cache}
}

// IncrementScans bumps the total and the level field for owner and for
// the global hash in one round trip.
func (s *ScanCounter) IncrementScans(ctx context.Context, owner string, level models.RiskLevel) error {
	pipe := s.cache.client.TxPipeline()
	for _, k := range []string{KeyScanCountPrefix + owner, KeyScanCountGlobal} {
		key := s.cache.key(k)
		pipe.HIncrBy(ctx, key, "total", 1)
		pipe.HIncrBy(ctx, key, string(level), 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Counts returns owner's counters; an empty owner returns the global ones
func (s *ScanCounter) Counts(ctx context.Context, owner string) (map[string]int64, error) {
	key := KeyScanCountGlobal
	if owner != "" {
		key = KeyScanCountPrefix + owner
	}
	raw, err := s.cache.client.HGetAll(ctx, s.cache.key(key)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
