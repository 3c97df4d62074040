package community

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/metrics"
	"scamshield/pkg/logger"
)

const systemReporter = "system"

// BlacklistService is the authoritative registry of scam numbers. Every
// phone is normalized before it reaches the store so lookups and upserts
// agree on the key.
type BlacklistService struct {
	store      BlacklistStore
	normalizer phoneintel.Normalizer
	graph      ReportGraph
	events     EventPublisher
	logger     *logger.Logger
	now        func() time.Time
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(store BlacklistStore, normalizer phoneintel.Normalizer, events EventPublisher, log *logger.Logger) *BlacklistService {
	if events == nil {
		events = nopPublisher{}
	}
	return &BlacklistService{
		store:      store,
		normalizer: normalizer,
		events:     events,
		logger:     log.WithComponent("blacklist"),
		now:        time.Now,
	}
}

// WithGraph enables related-number lookups
func (s *BlacklistService) WithGraph(g ReportGraph) *BlacklistService {
	s.graph = g
	return s
}

// IsBlacklisted implements phoneintel.BlacklistChecker
func (s *BlacklistService) IsBlacklisted(ctx context.Context, phone string) (bool, error) {
	key := s.normalizer.Normalize(phone)
	if key == "" {
		return false, nil
	}
	return s.store.IsBlacklisted(ctx, key)
}

// Promote moves a verified report's number into the blacklist, merging
// with any existing entry for the same phone.
func (s *BlacklistService) Promote(ctx context.Context, report *models.CommunityReport, verifierID string) (*models.BlacklistEntry, error) {
	id := report.ID
	verifier := verifierID
	entry := models.BlacklistEntry{
		Phone:          s.normalizer.Normalize(report.PhoneNumber),
		ReportedBy:     report.SubmitterUserID,
		VerifiedBy:     &verifier,
		ScamType:       report.ScamType,
		Description:    report.Description,
		SourceReportID: &id,
	}
	return s.upsert(ctx, entry, "verification")
}

// ReportScammer adds a number directly on a user's say-so
func (s *BlacklistService) ReportScammer(ctx context.Context, actor models.Actor, req models.ReportScammerRequest) (*models.BlacklistEntry, error) {
	if !phoneintel.ValidFormat(req.Phone) {
		return nil, apperrors.NewValidationError("INVALID_PHONE", "phone must be 10 to 16 digits with an optional leading +").
			WithDetails(map[string]any{"phone": req.Phone})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperrors.NewValidationError("REASON_REQUIRED", "reason is required")
	}

	entry := models.BlacklistEntry{
		Phone:       s.normalizer.Normalize(req.Phone),
		ReportedBy:  actor.UserID,
		ScamType:    "reported",
		Description: req.Reason,
	}
	return s.upsert(ctx, entry, "direct")
}

// Seed loads the bootstrap numbers, attributed to the system reporter.
// Numbers already listed are left untouched, so reseeding on every boot
// is safe.
func (s *BlacklistService) Seed(ctx context.Context, phones []string) error {
	seeded := 0
	for _, p := range phones {
		key := s.normalizer.Normalize(p)
		if key == "" {
			continue
		}
		listed, err := s.store.IsBlacklisted(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", p, err)
		}
		if listed {
			continue
		}
		entry := models.BlacklistEntry{
			Phone:       key,
			ReportedBy:  systemReporter,
			ScamType:    "known",
			Description: "Seeded known scam number",
		}
		if _, err := s.upsert(ctx, entry, "seed"); err != nil {
			return fmt.Errorf("failed to seed %s: %w", p, err)
		}
		seeded++
	}
	s.logger.Info().Int("seeded", seeded).Int("configured", len(phones)).Msg("blacklist seeded")
	return nil
}

// Get returns the entry for phone
func (s *BlacklistService) Get(ctx context.Context, phone string) (*models.BlacklistEntry, error) {
	key := s.normalizer.Normalize(phone)
	if key == "" {
		return nil, apperrors.NewValidationError("PHONE_REQUIRED", "phone is required")
	}
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist entry: %w", err)
	}
	if entry == nil {
		return nil, apperrors.NewNotFoundError("blacklist entry")
	}
	return entry, nil
}

// List pages through the blacklist
func (s *BlacklistService) List(ctx context.Context, limit, offset int) ([]*models.BlacklistEntry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// Related returns numbers that share reporters with phone. It is empty
// when no graph is configured.
func (s *BlacklistService) Related(ctx context.Context, phone string, limit int) ([]string, error) {
	key := s.normalizer.Normalize(phone)
	if key == "" {
		return nil, apperrors.NewValidationError("PHONE_REQUIRED", "phone is required")
	}
	if s.graph == nil {
		return []string{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	related, err := s.graph.RelatedNumbers(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related numbers: %w", err)
	}
	return related, nil
}

func (s *BlacklistService) upsert(ctx context.Context, entry models.BlacklistEntry, origin string) (*models.BlacklistEntry, error) {
	if entry.Phone == "" {
		return nil, apperrors.NewValidationError("PHONE_REQUIRED", "phone is required")
	}

	saved, err := s.store.Upsert(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert blacklist entry: %w", err)
	}
	metrics.BlacklistUpserted(origin)

	s.logger.Info().
		Str("phone", saved.Phone).
		Str("origin", origin).
		Int("reports", saved.Reports).
		Msg("blacklist entry upserted")

	if origin != "seed" {
		event := models.NewCommunityEvent(models.EventBlacklistUpdated, entry.ReportedBy, s.now())
		event.Phone = saved.Phone
		event.ScamType = saved.ScamType
		event.ReportID = saved.SourceReportID
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("phone", saved.Phone).Msg("failed to publish blacklist event")
		}
	}
	return saved, nil
}
