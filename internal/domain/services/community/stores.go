// Package community implements the report verification workflow, the
// reputation ledger and the scam number blacklist.
package community

import (
	"context"

	"github.com/google/uuid"

	"scamshield/internal/domain/models"
)

// ReportStore persists community reports. Implementations must serialize
// Update calls for the same report id. Get and Update return nil, nil when
// the report does not exist.
type ReportStore interface {
	Create(ctx context.Context, report *models.CommunityReport) error
	Get(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*models.CommunityReport) error) (*models.CommunityReport, error)
	List(ctx context.Context, filter models.ReportFilter) ([]*models.CommunityReport, int, error)
}

// ReputationStore persists reputation records. Credit must create the
// record on first use and apply the delta atomically.
type ReputationStore interface {
	Credit(ctx context.Context, credit models.ReputationCredit) (*models.ReputationRecord, error)
	Get(ctx context.Context, userID string) (*models.ReputationRecord, error)
	Top(ctx context.Context, sort models.LeaderboardSort, limit int) ([]*models.ReputationRecord, error)
}

// BlacklistStore persists confirmed scam numbers keyed by normalized phone
type BlacklistStore interface {
	IsBlacklisted(ctx context.Context, phone string) (bool, error)
	Get(ctx context.Context, phone string) (*models.BlacklistEntry, error)
	Upsert(ctx context.Context, entry models.BlacklistEntry) (*models.BlacklistEntry, error)
	List(ctx context.Context, limit, offset int) ([]*models.BlacklistEntry, int, error)
}

// EventPublisher receives community events after an operation completes
type EventPublisher interface {
	Publish(ctx context.Context, event *models.CommunityEvent) error
}

// ReportGraph projects reporter/number relationships for link analysis
type ReportGraph interface {
	RecordReport(ctx context.Context, report *models.CommunityReport) error
	RelatedNumbers(ctx context.Context, phone string, limit int) ([]string, error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *models.CommunityEvent) error { return nil }
