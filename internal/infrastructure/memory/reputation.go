package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"scamshield/internal/domain/models"
)

// ReputationStore keeps reputation records in memory
type ReputationStore struct {
	mu      sync.RWMutex
	records map[string]*models.ReputationRecord
	locks   *KeyedLocker
	now     func() time.Time
}

func NewReputationStore() *ReputationStore {
	return &ReputationStore{
		records: make(map[string]*models.ReputationRecord),
		locks:   NewKeyedLocker(),
		now:     time.Now,
	}
}

// Credit creates the record on first use, then applies the delta
func (s *ReputationStore) Credit(_ context.Context, credit models.ReputationCredit) (*models.ReputationRecord, error) {
	unlock := s.locks.Lock(credit.UserID)
	defer unlock()

	s.mu.RLock()
	existing, ok := s.records[credit.UserID]
	s.mu.RUnlock()

	rec := models.NewReputationRecord(credit.UserID)
	if ok {
		*rec = *existing
	}
	rec.Apply(credit, s.now())

	s.mu.Lock()
	stored := *rec
	s.records[credit.UserID] = &stored
	s.mu.Unlock()
	return rec, nil
}

func (s *ReputationStore) Get(_ context.Context, userID string) (*models.ReputationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

// Top orders by the sort key descending, then points descending, then
// user id ascending.
func (s *ReputationStore) Top(_ context.Context, key models.LeaderboardSort, limit int) ([]*models.ReputationRecord, error) {
	s.mu.RLock()
	all := make([]*models.ReputationRecord, 0, len(s.records))
	for _, r := range s.records {
		c := *r
		all = append(all, &c)
	}
	s.mu.RUnlock()

	primary := func(r *models.ReputationRecord) int {
		switch key {
		case models.LeaderboardByReports:
			return r.ReportsSubmitted
		case models.LeaderboardByVerified:
			return r.ReportsVerified
		default:
			return r.Points
		}
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if pa, pb := primary(a), primary(b); pa != pb {
			return pa > pb
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.UserID < b.UserID
	})

	return paginate(all, limit, 0), nil
}
