package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"scamshield/internal/domain/models"
	"scamshield/internal/infrastructure/database"
)

const scanColumns = `id, owner_user_id, message, phone, result, created_at`

// ScanReportRepository handles scan history persistence. The full result
// is kept as JSONB; score and level are duplicated into columns for queries.
type ScanReportRepository struct {
	db *database.PostgresDB
}

// NewScanReportRepository creates a new scan report repository
func NewScanReportRepository(db *database.PostgresDB) *ScanReportRepository {
	return &ScanReportRepository{db: db}
}

// Create inserts a scan report
func (r *ScanReportRepository) Create(ctx context.Context, s *models.ScanReport) error {
	query := `
		INSERT INTO scan_reports (id, owner_user_id, message, phone, risk_score, risk_level, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Pool().Exec(ctx, query,
		s.ID, s.OwnerUserID, s.Message, textOrNull(s.Phone),
		s.RiskScore, string(s.RiskLevel), s.ScanResult, s.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan report: %w", err)
	}
	return nil
}

// Get retrieves a scan report by ID
func (r *ScanReportRepository) Get(ctx context.Context, id uuid.UUID) (*models.ScanReport, error) {
	return scanScanReport(r.db.Pool().QueryRow(ctx,
		`SELECT `+scanColumns+` FROM scan_reports WHERE id = $1`, id))
}

// ListByOwner retrieves an owner's scans, newest first. A non-positive
// limit returns every row.
func (r *ScanReportRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*models.ScanReport, int, error) {
	pool := r.db.Pool()

	var total int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM scan_reports WHERE owner_user_id = $1`, owner).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count scan reports: %w", err)
	}

	query := `SELECT ` + scanColumns + ` FROM scan_reports WHERE owner_user_id = $1 ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	query += fmt.Sprintf(" OFFSET %d", offset)

	rows, err := pool.Query(ctx, query, owner)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scan reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.ScanReport
	for rows.Next() {
		s, err := scanScanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, s)
	}
	return reports, total, rows.Err()
}

func scanScanReport(row pgx.Row) (*models.ScanReport, error) {
	var (
		s     models.ScanReport
		phone pgtype.Text
	)
	err := row.Scan(&s.ID, &s.OwnerUserID, &s.Message, &phone, &s.ScanResult, &s.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan scan report: %w", err)
	}
	s.Phone = nullTextToString(phone)
	return &s, nil
}
