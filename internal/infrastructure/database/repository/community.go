package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database"
)

const reportColumns = `
	id, submitter_user_id, submitter_name, phone_number, message, scam_type,
	description, evidence, status, verified_by, verification_date, verification_notes,
	upvotes, downvotes, pending_effects, effects_claimed_at, created_at, updated_at`

// CommunityReportRepository handles community report persistence
type CommunityReportRepository struct {
	db *database.PostgresDB
}

// NewCommunityReportRepository creates a new community report repository
func NewCommunityReportRepository(db *database.PostgresDB) *CommunityReportRepository {
	return &CommunityReportRepository{db: db}
}

// Create inserts a new report
func (r *CommunityReportRepository) Create(ctx context.Context, rep *models.CommunityReport) error {
	query := `
		INSERT INTO community_reports (
			id, submitter_user_id, submitter_name, phone_number, message, scam_type,
			description, evidence, status, upvotes, downvotes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Pool().Exec(ctx, query,
		rep.ID, rep.SubmitterUserID, rep.SubmitterName, rep.PhoneNumber, rep.Message, rep.ScamType,
		textOrNull(rep.Description), textOrNull(rep.Evidence), string(rep.Status),
		rep.Upvotes, rep.Downvotes, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create community report: %w", err)
	}
	return nil
}

// Get retrieves a report and its votes by ID
func (r *CommunityReportRepository) Get(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error) {
	pool := r.db.Pool()
	rep, err := scanReport(pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM community_reports WHERE id = $1`, id))
	if err != nil || rep == nil {
		return nil, err
	}
	if rep.Votes, err = loadVotes(ctx, pool, id); err != nil {
		return nil, err
	}
	return rep, nil
}

// Update locks the row, applies fn and writes the result back in the same
// transaction, so concurrent updates to one report are serialized.
func (r *CommunityReportRepository) Update(ctx context.Context, id uuid.UUID, fn func(*models.CommunityReport) error) (*models.CommunityReport, error) {
	var updated *models.CommunityReport

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		rep, err := scanReport(tx.QueryRow(ctx,
			`SELECT `+reportColumns+` FROM community_reports WHERE id = $1 FOR UPDATE`, id))
		if err != nil || rep == nil {
			return err
		}
		if rep.Votes, err = loadVotes(ctx, tx, id); err != nil {
			return err
		}
		before := make(map[string]models.VoteDirection, len(rep.Votes))
		for k, v := range rep.Votes {
			before[k] = v
		}

		if err := fn(rep); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		batch.Queue(`
			UPDATE community_reports SET
				status = $2, verified_by = $3, verification_date = $4, verification_notes = $5,
				upvotes = $6, downvotes = $7, pending_effects = $8, effects_claimed_at = $9, updated_at = $10
			WHERE id = $1`,
			rep.ID, string(rep.Status), textPtrOrNull(rep.VerifiedBy),
			timeToTimestamptzPtr(rep.VerificationDate), textPtrOrNull(rep.VerificationNotes),
			rep.Upvotes, rep.Downvotes, effectNames(rep.PendingEffects),
			timeToTimestamptzPtr(rep.EffectsClaimedAt), rep.UpdatedAt,
		)
		for user, dir := range rep.Votes {
			if before[user] == dir {
				continue
			}
			batch.Queue(`
				INSERT INTO community_report_votes (report_id, user_id, direction, updated_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (report_id, user_id) DO UPDATE SET
					direction = excluded.direction, updated_at = excluded.updated_at`,
				rep.ID, user, string(dir), rep.UpdatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to write community report: %w", err)
		}

		updated = rep
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List retrieves reports matching the filter, newest first. Votes are not
// loaded for listings.
func (r *CommunityReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]*models.CommunityReport, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.SubmitterUserID != "" {
		args = append(args, filter.SubmitterUserID)
		conds = append(conds, fmt.Sprintf("submitter_user_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	pool := r.db.Pool()

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM community_reports"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count community reports: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + reportColumns + ` FROM community_reports` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %d OFFSET %d", limit, filter.Offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list community reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.CommunityReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate community reports: %w", err)
	}

	return reports, total, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadVotes(ctx context.Context, q querier, id uuid.UUID) (map[string]models.VoteDirection, error) {
	rows, err := q.Query(ctx, `SELECT user_id, direction FROM community_report_votes WHERE report_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load votes: %w", err)
	}
	defer rows.Close()

	votes := make(map[string]models.VoteDirection)
	for rows.Next() {
		var user, dir string
		if err := rows.Scan(&user, &dir); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes[user] = models.VoteDirection(dir)
	}
	return votes, rows.Err()
}

// scanReport returns nil, nil when the row does not exist
func scanReport(row pgx.Row) (*models.CommunityReport, error) {
	var (
		rep                                      models.CommunityReport
		status                                   string
		description, evidence, verifiedBy, notes pgtype.Text
		verifiedAt, claimedAt                    pgtype.Timestamptz
		effects                                  []string
	)

	err := row.Scan(
		&rep.ID, &rep.SubmitterUserID, &rep.SubmitterName, &rep.PhoneNumber, &rep.Message, &rep.ScamType,
		&description, &evidence, &status, &verifiedBy, &verifiedAt, &notes,
		&rep.Upvotes, &rep.Downvotes, &effects, &claimedAt, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan community report: %w", err)
	}

	rep.Status = models.ReportStatus(status)
	rep.Description = nullTextToString(description)
	rep.Evidence = nullTextToString(evidence)
	rep.VerifiedBy = nullTextToPtr(verifiedBy)
	rep.VerificationDate = timestamptzToTimePtr(verifiedAt)
	rep.VerificationNotes = nullTextToPtr(notes)
	for _, e := range effects {
		rep.PendingEffects = append(rep.PendingEffects, models.VerificationEffect(e))
	}
	rep.EffectsClaimedAt = timestamptzToTimePtr(claimedAt)
	rep.Votes = make(map[string]models.VoteDirection)
	return &rep, nil
}

func effectNames(effects []models.VerificationEffect) []string {
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = string(e)
	}
	return names
}
