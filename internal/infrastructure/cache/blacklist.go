package cache

import (
	"context"
	"time"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/community"
	"scamshield/pkg/logger"
)

// entryTTL bounds how long a cached entry can lag a write made elsewhere
const entryTTL = 10 * time.Minute

// BlacklistCache puts a Redis set in front of a blacklist store and keeps
// recently read entries as JSON. The store stays authoritative; Redis only
// answers positive lookups faster.
type BlacklistCache struct {
	cache  *RedisCache
	store  community.BlacklistStore
	logger *logger.Logger
}

// NewBlacklistCache wraps store with a Redis membership set
func NewBlacklistCache(cache *RedisCache, store community.BlacklistStore, log *logger.Logger) *BlacklistCache {
	return &BlacklistCache{
		cache:  cache,
		store:  store,
		logger: log.WithComponent("blacklist-cache"),
	}
}

// Warm loads every stored phone into the set
func (b *BlacklistCache) Warm(ctx context.Context) (int, error) {
	const page = 500
	loaded := 0
	for offset := 0; ; offset += page {
		entries, total, err := b.store.List(ctx, page, offset)
		if err != nil {
			return loaded, err
		}
		if len(entries) == 0 {
			break
		}
		members := make([]any, len(entries))
		for i, e := range entries {
			members[i] = e.Phone
		}
		if err := b.cache.client.SAdd(ctx, b.cache.key(KeyBlacklistSet), members...).Err(); err != nil {
			return loaded, err
		}
		loaded += len(entries)
		if loaded >= total {
			break
		}
	}
	return loaded, nil
}

func (b *BlacklistCache) IsBlacklisted(ctx context.Context, phone string) (bool, error) {
	hit, err := b.cache.client.SIsMember(ctx, b.cache.key(KeyBlacklistSet), phone).Result()
	if err == nil && hit {
		return true, nil
	}
	if err != nil {
		b.logger.Warn().Err(err).Msg("blacklist cache lookup failed, using store")
	}

	listed, err := b.store.IsBlacklisted(ctx, phone)
	if err != nil {
		return false, err
	}
	if listed {
		b.remember(ctx, phone)
	}
	return listed, nil
}

func (b *BlacklistCache) Get(ctx context.Context, phone string) (*models.BlacklistEntry, error) {
	var cached models.BlacklistEntry
	found, err := b.cache.GetJSON(ctx, KeyBlacklistEntryPrefix+phone, &cached)
	if err != nil {
		b.logger.Warn().Err(err).Msg("blacklist entry cache read failed, using store")
	}
	if found && err == nil {
		return &cached, nil
	}

	entry, err := b.store.Get(ctx, phone)
	if err != nil || entry == nil {
		return entry, err
	}
	b.storeEntry(ctx, entry)
	return entry, nil
}

func (b *BlacklistCache) Upsert(ctx context.Context, entry models.BlacklistEntry) (*models.BlacklistEntry, error) {
	saved, err := b.store.Upsert(ctx, entry)
	if err != nil {
		return nil, err
	}
	b.remember(ctx, saved.Phone)
	b.storeEntry(ctx, saved)
	return saved, nil
}

func (b *BlacklistCache) List(ctx context.Context, limit, offset int) ([]*models.BlacklistEntry, int, error) {
	return b.store.List(ctx, limit, offset)
}

func (b *BlacklistCache) remember(ctx context.Context, phone string) {
	if err := b.cache.client.SAdd(ctx, b.cache.key(KeyBlacklistSet), phone).Err(); err != nil {
		b.logger.Warn().Err(err).Str("phone", phone).Msg("failed to cache blacklisted phone")
	}
}

func (b *BlacklistCache) storeEntry(ctx context.Context, entry *models.BlacklistEntry) {
	if err := b.cache.SetJSON(ctx, KeyBlacklistEntryPrefix+entry.Phone, entry, entryTTL); err != nil {
		b.logger.Warn().Err(err).Str("phone", entry.Phone).Msg("failed to cache blacklist entry")
	}
}
