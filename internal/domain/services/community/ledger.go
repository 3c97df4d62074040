package community

import (
	"context"
	"fmt"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

// LeaderboardLimits bounds leaderboard page sizes
type LeaderboardLimits struct {
	Default int
	Max     int
}

// DefaultLeaderboardLimits returns the stock limits
func DefaultLeaderboardLimits() LeaderboardLimits {
	return LeaderboardLimits{Default: 10, Max: 100}
}

// Ledger owns reputation credits, lookups and rankings
type Ledger struct {
	store  ReputationStore
	limits LeaderboardLimits
	logger *logger.Logger
}

// NewLedger creates a new reputation ledger
func NewLedger(store ReputationStore, limits LeaderboardLimits, log *logger.Logger) *Ledger {
	if limits.Default <= 0 {
		limits.Default = DefaultLeaderboardLimits().Default
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &Ledger{
		store:  store,
		limits: limits,
		logger: log.WithComponent("reputation-ledger"),
	}
}

// Credit adds a non-negative delta to a user's record, creating it if needed.
// Points never go down.
func (l *Ledger) Credit(ctx context.Context, credit models.ReputationCredit) (*models.ReputationRecord, error) {
	if credit.UserID == "" {
		return nil, apperrors.NewValidationError("USER_REQUIRED", "user id is required")
	}
	if credit.Points < 0 || credit.Submitted < 0 || credit.Verified < 0 {
		return nil, apperrors.NewValidationError("NEGATIVE_CREDIT", "reputation credits cannot be negative")
	}

	rec, err := l.store.Credit(ctx, credit)
	if err != nil {
		return nil, fmt.Errorf("failed to credit reputation: %w", err)
	}
	rec.Level = models.LevelFor(rec.Points)

	l.logger.Debug().
		Str("user_id", credit.UserID).
		Int("delta", credit.Points).
		Int("points", rec.Points).
		Str("level", string(rec.Level)).
		Msg("reputation credited")

	return rec, nil
}

// Get returns the user's record with level progress. Unknown users get
// the zero-state record.
func (l *Ledger) Get(ctx context.Context, userID string) (*models.ReputationProgress, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("USER_REQUIRED", "user id is required")
	}

	rec, err := l.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation: %w", err)
	}
	if rec == nil {
		rec = models.NewReputationRecord(userID)
	}
	rec.Level = models.LevelFor(rec.Points)

	return progressFor(rec), nil
}

func progressFor(rec *models.ReputationRecord) *models.ReputationProgress {
	p := &models.ReputationProgress{ReputationRecord: *rec}

	next, missing, ok := models.NextLevel(rec.Points)
	if !ok {
		p.Progress = 100
		return p
	}

	floor := models.LevelFloor(rec.Points)
	span := rec.Points + missing - floor
	p.NextLevel = next
	p.PointsToNext = missing
	p.Progress = (rec.Points - floor) * 100 / span
	return p
}

// Leaderboard returns the top users by the given key. An empty key sorts by
// points; a non-positive limit uses the default and large limits are capped.
func (l *Ledger) Leaderboard(ctx context.Context, sort string, limit int) ([]models.LeaderboardEntry, error) {
	key := models.LeaderboardSort(sort)
	if key == "" {
		key = models.LeaderboardByPoints
	}
	if !key.IsValid() {
		return nil, apperrors.NewValidationError("INVALID_SORT", "leaderboard type must be one of points, reports, verified").
			WithDetails(map[string]any{"type": sort})
	}

	switch {
	case limit <= 0:
		limit = l.limits.Default
	case limit > l.limits.Max:
		limit = l.limits.Max
	}

	records, err := l.store.Top(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(records))
	for i, rec := range records {
		rec.Level = models.LevelFor(rec.Points)
		entries = append(entries, models.LeaderboardEntry{Rank: i + 1, ReputationRecord: *rec})
	}
	return entries, nil
}
