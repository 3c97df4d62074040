package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
)

// ScanStore keeps scan reports in memory. Scan reports are append-only.
type ScanStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.ScanReport
	byOwner map[string][]uuid.UUID
}

func NewScanStore() *ScanStore {
	return &ScanStore{
		reports: make(map[uuid.UUID]*models.ScanReport),
		byOwner: make(map[string][]uuid.UUID),
	}
}

func (s *ScanStore) Create(_ context.Context, report *models.ScanReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[report.ID]; exists {
		return fmt.Errorf("scan %s already exists", report.ID)
	}
	c := *report
	s.reports[report.ID] = &c
	s.byOwner[report.OwnerUserID] = append(s.byOwner[report.OwnerUserID], report.ID)
	return nil
}

func (s *ScanStore) Get(_ context.Context, id uuid.UUID) (*models.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

// ListByOwner returns the owner's scans newest first; limit <= 0 returns all
func (s *ScanStore) ListByOwner(_ context.Context, owner string, limit, offset int) ([]*models.ScanReport, int, error) {
	s.mu.RLock()
	ids := s.byOwner[owner]
	out := make([]*models.ScanReport, 0, len(ids))
	for _, id := range ids {
		c := *s.reports[id]
		out = append(out, &c)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return paginate(out, limit, offset), len(out), nil
}
