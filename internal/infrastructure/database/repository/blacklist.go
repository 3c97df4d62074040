package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database"
)

const blacklistColumns = `phone, reported_by, verified_by, scam_type, description, source_report_id, reports, created_at, updated_at`

// BlacklistRepository handles blacklist persistence
type BlacklistRepository struct {
	db *database.PostgresDB
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *database.PostgresDB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// IsBlacklisted checks for an exact phone match
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blacklist WHERE phone = $1)`, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}

// Get retrieves an entry by phone
func (r *BlacklistRepository) Get(ctx context.Context, phone string) (*models.BlacklistEntry, error) {
	return scanBlacklist(r.db.Pool().QueryRow(ctx,
		`SELECT `+blacklistColumns+` FROM blacklist WHERE phone = $1`, phone))
}

// Upsert inserts an entry or merges it into the existing row: non-empty
// incoming fields win and the report count goes up by one.
func (r *BlacklistRepository) Upsert(ctx context.Context, e models.BlacklistEntry) (*models.BlacklistEntry, error) {
	query := `
		INSERT INTO blacklist (phone, reported_by, verified_by, scam_type, description, source_report_id, reports)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (phone) DO UPDATE SET
			reported_by = COALESCE(NULLIF(excluded.reported_by, ''), blacklist.reported_by),
			verified_by = COALESCE(excluded.verified_by, blacklist.verified_by),
			scam_type = COALESCE(excluded.scam_type, blacklist.scam_type),
			description = COALESCE(excluded.description, blacklist.description),
			source_report_id = COALESCE(excluded.source_report_id, blacklist.source_report_id),
			reports = blacklist.reports + 1,
			updated_at = NOW()
		RETURNING ` + blacklistColumns

	entry, err := scanBlacklist(r.db.Pool().QueryRow(ctx, query,
		e.Phone, e.ReportedBy, textPtrOrNull(e.VerifiedBy), textOrNull(e.ScamType),
		textOrNull(e.Description), uuidToNullUUID(e.SourceReportID),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert blacklist entry: %w", err)
	}
	return entry, nil
}

// List retrieves entries, most recently updated first
func (r *BlacklistRepository) List(ctx context.Context, limit, offset int) ([]*models.BlacklistEntry, int, error) {
	pool := r.db.Pool()

	var total int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM blacklist`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count blacklist: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	rows, err := pool.Query(ctx,
		`SELECT `+blacklistColumns+` FROM blacklist ORDER BY updated_at DESC, phone LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list blacklist: %w", err)
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		e, err := scanBlacklist(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func scanBlacklist(row pgx.Row) (*models.BlacklistEntry, error) {
	var (
		e                                 models.BlacklistEntry
		verifiedBy, scamType, description pgtype.Text
		sourceReport                      pgtype.UUID
	)
	err := row.Scan(
		&e.Phone, &e.ReportedBy, &verifiedBy, &scamType, &description,
		&sourceReport, &e.Reports, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
	}
	e.VerifiedBy = nullTextToPtr(verifiedBy)
	e.ScamType = nullTextToString(scamType)
	e.Description = nullTextToString(description)
	e.SourceReportID = nullUUIDToPtr(sourceReport)
	return &e, nil
}
