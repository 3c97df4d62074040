package graph

import (
	"context"
	"fmt"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/pkg/logger"
)

const (
	cypherRecordReport = `
		MERGE (u:User {id: $user_id})
		MERGE (p:Phone {number: $phone})
		MERGE (u)-[r:REPORTED]->(p)
		ON CREATE SET r.first_at = $at, r.count = 0
		SET r.count = r.count + 1,
			r.last_at = $at,
			r.scam_type = $scam_type`

	cypherMarkBlacklisted = `
		MERGE (p:Phone {number: $phone})
		SET p.blacklisted = true, p.scam_type = $scam_type`

	// numbers reported by anyone who also reported $phone
	cypherRelatedNumbers = `
		MATCH (:Phone {number: $phone})<-[:REPORTED]-(u:User)-[:REPORTED]->(other:Phone)
		WHERE other.number <> $phone
		RETURN other.number AS number, count(DISTINCT u) AS reporters
		ORDER BY reporters DESC, number
		LIMIT $limit`
)

// GraphRepository projects community reports into a User-REPORTED->Phone
// graph and answers link queries over it.
type GraphRepository struct {
	client     *Neo4jClient
	normalizer phoneintel.Normalizer
	logger     *logger.Logger
}

// NewGraphRepository creates a new graph repository
func NewGraphRepository(client *Neo4jClient, normalizer phoneintel.Normalizer, log *logger.Logger) *GraphRepository {
	return &GraphRepository{
		client:     client,
		normalizer: normalizer,
		logger:     log.WithComponent("graph-repo"),
	}
}

// RecordReport adds or strengthens the reporter's edge to the number
func (r *GraphRepository) RecordReport(ctx context.Context, report *models.CommunityReport) error {
	params := map[string]any{
		"user_id":   report.SubmitterUserID,
		"phone":     r.normalizer.Normalize(report.PhoneNumber),
		"scam_type": report.ScamType,
		"at":        report.CreatedAt.Unix(),
	}

	err := r.client.write(ctx, cypherRecordReport, params)
	if err != nil {
		return fmt.Errorf("failed to record report edge: %w", err)
	}
	return nil
}

// MarkBlacklisted flags the phone node after promotion
func (r *GraphRepository) MarkBlacklisted(ctx context.Context, phone, scamType string) error {
	err := r.client.write(ctx, cypherMarkBlacklisted, map[string]any{
		"phone":     phone,
		"scam_type": scamType,
	})
	if err != nil {
		return fmt.Errorf("failed to mark phone blacklisted: %w", err)
	}
	return nil
}

// RelatedNumbers returns numbers that share reporters with phone, most
// shared first
func (r *GraphRepository) RelatedNumbers(ctx context.Context, phone string, limit int) ([]string, error) {
	records, err := r.client.read(ctx, cypherRelatedNumbers, map[string]any{
		"phone": phone,
		"limit": int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query related numbers: %w", err)
	}

	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Get("number"); ok {
			if s, ok := v.(string); ok {
				numbers = append(numbers, s)
			}
		}
	}
	return numbers, nil
}
