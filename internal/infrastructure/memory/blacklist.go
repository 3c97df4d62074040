package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"scamshield/internal/domain/models"
)

// BlacklistStore keeps scam numbers in memory keyed by normalized phone
type BlacklistStore struct {
	mu      sync.RWMutex
	entries map[string]*models.BlacklistEntry
	now     func() time.Time
}

func NewBlacklistStore() *BlacklistStore {
	return &BlacklistStore{
		entries: make(map[string]*models.BlacklistEntry),
		now:     time.Now,
	}
}

func (s *BlacklistStore) IsBlacklisted(_ context.Context, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[phone]
	return ok, nil
}

func (s *BlacklistStore) Get(_ context.Context, phone string) (*models.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[phone]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

// Upsert inserts a new entry or merges into the existing one
func (s *BlacklistStore) Upsert(_ context.Context, entry models.BlacklistEntry) (*models.BlacklistEntry, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[entry.Phone]
	if !ok {
		e := entry
		e.Reports = 1
		e.CreatedAt = now
		e.UpdatedAt = now
		s.entries[e.Phone] = &e
		c := e
		return &c, nil
	}

	existing.Merge(entry, now)
	c := *existing
	return &c, nil
}

// List returns entries most recently updated first
func (s *BlacklistStore) List(_ context.Context, limit, offset int) ([]*models.BlacklistEntry, int, error) {
	s.mu.RLock()
	all := make([]*models.BlacklistEntry, 0, len(s.entries))
	for _, e := range s.entries {
		c := *e
		all = append(all, &c)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].Phone < all[j].Phone
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return paginate(all, limit, offset), len(all), nil
}
