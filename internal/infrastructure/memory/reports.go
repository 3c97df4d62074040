package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
)

// ReportStore keeps community reports in memory. Callers always receive
// clones.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.CommunityReport
	locks   *KeyedLocker
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[uuid.UUID]*models.CommunityReport),
		locks:   NewKeyedLocker(),
	}
}

func (s *ReportStore) Create(_ context.Context, report *models.CommunityReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[report.ID]; exists {
		return fmt.Errorf("report %s already exists", report.ID)
	}
	s.reports[report.ID] = report.Clone()
	return nil
}

func (s *ReportStore) Get(_ context.Context, id uuid.UUID) (*models.CommunityReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports[id].Clone(), nil
}

// Update applies fn to a copy of the report while holding the report's
// lock and stores the copy only if fn succeeds.
func (s *ReportStore) Update(ctx context.Context, id uuid.UUID, fn func(*models.CommunityReport) error) (*models.CommunityReport, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	current := s.reports[id].Clone()
	s.mu.RUnlock()
	if current == nil {
		return nil, nil
	}

	if err := fn(current); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reports[id] = current.Clone()
	s.mu.Unlock()
	return current, nil
}

// List returns matches newest first
func (s *ReportStore) List(_ context.Context, filter models.ReportFilter) ([]*models.CommunityReport, int, error) {
	s.mu.RLock()
	matched := make([]*models.CommunityReport, 0, len(s.reports))
	for _, r := range s.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.SubmitterUserID != "" && r.SubmitterUserID != filter.SubmitterUserID {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	page := paginate(matched, filter.Limit, filter.Offset)
	out := make([]*models.CommunityReport, len(page))
	for i, r := range page {
		out[i] = r.Clone()
	}
	return out, total, nil
}

// paginate slices items; limit <= 0 means no limit
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
