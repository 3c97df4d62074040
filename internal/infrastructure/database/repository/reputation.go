package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database"
)

const reputationColumns = `user_id, display_name, points, reports_submitted, reports_verified, created_at, updated_at`

// ReputationRepository handles reputation persistence
type ReputationRepository struct {
	db *database.PostgresDB
}

// NewReputationRepository creates a new reputation repository
func NewReputationRepository(db *database.PostgresDB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

// Credit creates the record on first use and adds the deltas in a single
// statement, so concurrent credits never lose an update.
func (r *ReputationRepository) Credit(ctx context.Context, c models.ReputationCredit) (*models.ReputationRecord, error) {
	query := `
		INSERT INTO reputation (user_id, display_name, points, reports_submitted, reports_verified)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = COALESCE(NULLIF(excluded.display_name, ''), reputation.display_name),
			points = reputation.points + excluded.points,
			reports_submitted = reputation.reports_submitted + excluded.reports_submitted,
			reports_verified = reputation.reports_verified + excluded.reports_verified,
			updated_at = NOW()
		RETURNING ` + reputationColumns

	rec, err := scanReputation(r.db.Pool().QueryRow(ctx, query,
		c.UserID, c.DisplayName, c.Points, c.Submitted, c.Verified,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to credit reputation: %w", err)
	}
	return rec, nil
}

// Get retrieves a user's record
func (r *ReputationRepository) Get(ctx context.Context, userID string) (*models.ReputationRecord, error) {
	return scanReputation(r.db.Pool().QueryRow(ctx,
		`SELECT `+reputationColumns+` FROM reputation WHERE user_id = $1`, userID))
}

var leaderboardOrder = map[models.LeaderboardSort]string{
	models.LeaderboardByPoints:   "points DESC, user_id",
	models.LeaderboardByReports:  "reports_submitted DESC, points DESC, user_id",
	models.LeaderboardByVerified: "reports_verified DESC, points DESC, user_id",
}

// Top retrieves the highest ranked records for the sort key
func (r *ReputationRepository) Top(ctx context.Context, sort models.LeaderboardSort, limit int) ([]*models.ReputationRecord, error) {
	order, ok := leaderboardOrder[sort]
	if !ok {
		order = leaderboardOrder[models.LeaderboardByPoints]
	}

	rows, err := r.db.Pool().Query(ctx,
		`SELECT `+reputationColumns+` FROM reputation ORDER BY `+order+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var records []*models.ReputationRecord
	for rows.Next() {
		rec, err := scanReputation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanReputation(row pgx.Row) (*models.ReputationRecord, error) {
	rec := &models.ReputationRecord{}
	err := row.Scan(
		&rec.UserID, &rec.DisplayName, &rec.Points,
		&rec.ReportsSubmitted, &rec.ReportsVerified, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan reputation: %w", err)
	}
	rec.Level = models.LevelFor(rec.Points)
	return rec, nil
}
