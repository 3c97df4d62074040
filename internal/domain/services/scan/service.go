// Package scan scores messages on behalf of a user and keeps their history.
package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/metrics"
	"scamshield/pkg/logger"
)

const (
	topIndicatorCount = 5

	defaultAnalyticsDays = 7
	maxAnalyticsDays     = 90

	defaultActivityLimit = 10
	maxActivityLimit     = 50
)

// Scorer produces a ScanResult for one input
type Scorer interface {
	Score(ctx context.Context, in models.ScanInput) (*models.ScanResult, error)
}

// Store persists scan reports. Get returns nil, nil when missing.
// ListByOwner returns all rows when limit <= 0.
type Store interface {
	Create(ctx context.Context, report *models.ScanReport) error
	Get(ctx context.Context, id uuid.UUID) (*models.ScanReport, error)
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*models.ScanReport, int, error)
}

// Counter tracks running scan totals outside the store
type Counter interface {
	IncrementScans(ctx context.Context, owner string, level models.RiskLevel) error
}

// ReportLister lists community reports; the activity feed uses it to
// include the user's own submissions.
type ReportLister interface {
	List(ctx context.Context, filter models.ReportFilter) ([]*models.CommunityReport, int, error)
}

// NewReport builds the persisted form of a scan
func NewReport(owner string, in models.ScanInput, result *models.ScanResult, now time.Time) *models.ScanReport {
	return &models.ScanReport{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Message:     in.Text,
		Phone:       in.Phone,
		Timestamp:   now,
		ScanResult:  *result,
	}
}

// Service scores messages and serves the owner's scan history
type Service struct {
	scorer  Scorer
	store   Store
	counter Counter
	reports ReportLister
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a new scan service
func NewService(scorer Scorer, store Store, log *logger.Logger) *Service {
	return &Service{
		scorer: scorer,
		store:  store,
		logger: log.WithComponent("scan-service"),
		now:    time.Now,
	}
}

// WithCounter enables running scan counters
func (s *Service) WithCounter(c Counter) *Service {
	s.counter = c
	return s
}

// WithReports adds the user's community reports to the activity feed
func (s *Service) WithReports(r ReportLister) *Service {
	s.reports = r
	return s
}

// Scan scores the message and stores the report for the actor
func (s *Service) Scan(ctx context.Context, actor models.Actor, in models.ScanInput) (*models.ScanReport, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewValidationError("USER_REQUIRED", "user id is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperrors.NewValidationError("MESSAGE_REQUIRED", "message is required")
	}

	result, err := s.scorer.Score(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to score message: %w", err)
	}

	report := NewReport(actor.UserID, in, result, s.now())
	if err := s.store.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store scan: %w", err)
	}
	metrics.ObserveScan(string(result.RiskLevel), result.RiskScore)

	if s.counter != nil {
		if err := s.counter.IncrementScans(ctx, actor.UserID, result.RiskLevel); err != nil {
			s.logger.Warn().Err(err).Msg("failed to bump scan counters")
		}
	}

	s.logger.Info().
		Str("scan_id", report.ID.String()).
		Str("user_id", actor.UserID).
		Int("score", result.RiskScore).
		Str("level", string(result.RiskLevel)).
		Msg("message scanned")

	return report, nil
}

// Get returns one of the actor's scans. Scans owned by someone else are
// reported as not found.
func (s *Service) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ScanReport, error) {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	if report == nil || report.OwnerUserID != actor.UserID {
		return nil, apperrors.NewNotFoundError("scan")
	}
	return report, nil
}

// List pages through the actor's scans, newest first
func (s *Service) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.ScanReport, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	reports, total, err := s.store.ListByOwner(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scans: %w", err)
	}
	return reports, total, nil
}

// Stats summarizes the actor's whole scan history
func (s *Service) Stats(ctx context.Context, actor models.Actor) (*models.ScanStats, error) {
	reports, _, err := s.store.ListByOwner(ctx, actor.UserID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}
	return summarize(reports), nil
}

// Export bundles the actor's stats and full history
func (s *Service) Export(ctx context.Context, actor models.Actor) (*models.ScanExport, error) {
	reports, _, err := s.store.ListByOwner(ctx, actor.UserID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}
	return &models.ScanExport{
		UserID:      actor.UserID,
		GeneratedAt: s.now(),
		Stats:       *summarize(reports),
		Reports:     reports,
	}, nil
}

// Analytics counts the actor's scans and threats per UTC day over the last
// days days, today included, along with the most frequent indicators of
// that window. days <= 0 means 7; larger than 90 is capped.
func (s *Service) Analytics(ctx context.Context, actor models.Actor, days int) (*models.ScanAnalytics, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}

	reports, _, err := s.store.ListByOwner(ctx, actor.UserID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))

	analytics := &models.ScanAnalytics{
		Days:         days,
		Dates:        make([]string, days),
		ScanCounts:   make([]int, days),
		ThreatCounts: make([]int, days),
	}
	for i := range analytics.Dates {
		analytics.Dates[i] = first.AddDate(0, 0, i).Format(time.DateOnly)
	}

	window := make([]*models.ScanReport, 0, len(reports))
	for _, r := range reports {
		day := r.Timestamp.UTC().Truncate(24 * time.Hour)
		if day.Before(first) || day.After(today) {
			continue
		}
		i := int(day.Sub(first) / (24 * time.Hour))
		analytics.ScanCounts[i]++
		if r.IsThreat() {
			analytics.ThreatCounts[i]++
		}
		window = append(window, r)
	}
	analytics.TopPatterns = summarize(window).TopIndicators

	return analytics, nil
}

// Activity returns the actor's most recent scans and community reports
// merged newest first. Scans above Low risk are reported as threats.
func (s *Service) Activity(ctx context.Context, actor models.Actor, limit int) ([]models.ActivityItem, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	scans, _, err := s.store.ListByOwner(ctx, actor.UserID, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load scans: %w", err)
	}
	items := make([]models.ActivityItem, 0, 2*limit)
	for _, r := range scans {
		items = append(items, scanActivity(r))
	}

	if s.reports != nil {
		reports, _, err := s.reports.List(ctx, models.ReportFilter{SubmitterUserID: actor.UserID, Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("failed to load community reports: %w", err)
		}
		for _, r := range reports {
			items = append(items, models.ActivityItem{
				Type:        models.ActivityReport,
				Title:       "Scam number reported",
				Description: fmt.Sprintf("%s report on %s is %s", r.ScamType, r.PhoneNumber, r.Status),
				Timestamp:   r.CreatedAt,
				RefID:       r.ID,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func scanActivity(r *models.ScanReport) models.ActivityItem {
	item := models.ActivityItem{
		Type:        models.ActivityScan,
		Title:       "Message scanned",
		Description: fmt.Sprintf("%s risk, score %d", r.RiskLevel, r.RiskScore),
		Timestamp:   r.Timestamp,
		RefID:       r.ID,
	}
	if r.IsThreat() {
		item.Type = models.ActivityThreat
		item.Title = "Threat detected"
		if len(r.ThreatIndicators) > 0 {
			item.Description += ": " + r.ThreatIndicators[0]
		}
	}
	return item
}

func summarize(reports []*models.ScanReport) *models.ScanStats {
	stats := &models.ScanStats{
		TotalScans: len(reports),
		ByLevel: map[models.RiskLevel]int{
			models.RiskLevelLow:    0,
			models.RiskLevelMedium: 0,
			models.RiskLevelHigh:   0,
		},
		TopIndicators: []models.IndicatorCount{},
	}

	counts := make(map[string]int)
	for _, r := range reports {
		stats.ByLevel[r.RiskLevel]++
		if r.IsThreat() {
			stats.ThreatsDetected++
		}
		for _, ind := range r.ThreatIndicators {
			counts[ind]++
		}
		if stats.LastScanAt == nil || r.Timestamp.After(*stats.LastScanAt) {
			ts := r.Timestamp
			stats.LastScanAt = &ts
		}
	}

	for ind, n := range counts {
		stats.TopIndicators = append(stats.TopIndicators, models.IndicatorCount{Indicator: ind, Count: n})
	}
	sort.Slice(stats.TopIndicators, func(i, j int) bool {
		a, b := stats.TopIndicators[i], stats.TopIndicators[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Indicator < b.Indicator
	})
	if len(stats.TopIndicators) > topIndicatorCount {
		stats.TopIndicators = stats.TopIndicators[:topIndicatorCount]
	}
	return stats
}
