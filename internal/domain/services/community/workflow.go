package community

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "scamshield/internal/domain/errors"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/metrics"
	"scamshield/pkg/logger"
)

// Rewards are the reputation points granted by workflow transitions
type Rewards struct {
	SubmitPoints            int
	VerifiedSubmitterPoints int
	VerifierPoints          int
}

// DefaultRewards returns the stock point values
func DefaultRewards() Rewards {
	return Rewards{SubmitPoints: 10, VerifiedSubmitterPoints: 50, VerifierPoints: 25}
}

// effectsLease is how long a verify owns the pending effects of a report
// before another verify may take them over.
const effectsLease = 5 * time.Minute

// Workflow drives community reports through pending -> verified|rejected
type Workflow struct {
	reports   ReportStore
	ledger    *Ledger
	blacklist *BlacklistService
	graph     ReportGraph
	events    EventPublisher
	rewards   Rewards
	logger    *logger.Logger
	now       func() time.Time

	effectsLease time.Duration
}

// NewWorkflow creates a new community report workflow
func NewWorkflow(reports ReportStore, ledger *Ledger, blacklist *BlacklistService, events EventPublisher, rewards Rewards, log *logger.Logger) *Workflow {
	if events == nil {
		events = nopPublisher{}
	}
	return &Workflow{
		reports:   reports,
		ledger:    ledger,
		blacklist: blacklist,
		events:    events,
		rewards:   rewards,
		logger:    log.WithComponent("community-workflow"),
		now:       time.Now,

		effectsLease: effectsLease,
	}
}

// WithGraph projects every submitted report into the relationship graph
func (w *Workflow) WithGraph(g ReportGraph) *Workflow {
	w.graph = g
	return w
}

// Submit creates a pending report and credits the submitter. Identical
// submissions are not deduplicated; each one earns its own credit.
func (w *Workflow) Submit(ctx context.Context, actor models.Actor, req models.SubmitReportRequest) (*models.CommunityReport, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewValidationError("USER_REQUIRED", "user id is required")
	}
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	report := models.NewCommunityReport(
		actor.UserID,
		actor.Name,
		strings.TrimSpace(req.PhoneNumber),
		req.Message,
		strings.TrimSpace(req.ScamType),
		req.Description,
		req.Evidence,
		w.now(),
	)
	if err := w.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	if _, err := w.ledger.Credit(ctx, models.ReputationCredit{
		UserID:      actor.UserID,
		DisplayName: actor.Name,
		Points:      w.rewards.SubmitPoints,
		Submitted:   1,
	}); err != nil {
		return nil, fmt.Errorf("report %s created but submitter credit failed: %w", report.ID, err)
	}
	metrics.ReportSubmitted()

	log := w.logger.WithReportID(report.ID.String())
	log.Info().
		Str("user_id", actor.UserID).
		Str("scam_type", report.ScamType).
		Msg("community report submitted")

	if w.graph != nil {
		if err := w.graph.RecordReport(ctx, report); err != nil {
			log.Warn().Err(err).Msg("failed to project report into graph")
		}
	}
	w.publish(ctx, models.NewCommunityEvent(models.EventReportSubmitted, actor.UserID, w.now()).ForReport(report))

	return report, nil
}

func validateSubmission(req models.SubmitReportRequest) error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(req.PhoneNumber) == "" {
		missing = append(missing, "phone_number")
	}
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "message")
	}
	if strings.TrimSpace(req.ScamType) == "" {
		missing = append(missing, "scam_type")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("MISSING_FIELDS", "phone_number, message and scam_type are required").
			WithDetails(map[string]any{"missing": missing})
	}
	if !phoneintel.ValidFormat(req.PhoneNumber) {
		return apperrors.NewValidationError("INVALID_PHONE", "phone_number must be 10 to 16 digits with an optional leading +").
			WithDetails(map[string]any{"phone_number": req.PhoneNumber})
	}
	return nil
}

// Vote records the actor's single active vote on a report. Votes are
// accepted whatever the report status.
func (w *Workflow) Vote(ctx context.Context, actor models.Actor, reportID uuid.UUID, dir models.VoteDirection) (*models.VoteTally, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewValidationError("USER_REQUIRED", "user id is required")
	}
	if !dir.IsValid() {
		return nil, apperrors.NewValidationError("INVALID_DIRECTION", "vote direction must be up or down").
			WithDetails(map[string]any{"direction": dir})
	}

	updated, err := w.reports.Update(ctx, reportID, func(r *models.CommunityReport) error {
		r.ApplyVote(actor.UserID, dir, w.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFoundError("community report")
	}
	metrics.VoteCast(string(dir))

	tally := updated.Tally()
	event := models.NewCommunityEvent(models.EventReportVoted, actor.UserID, w.now()).ForReport(updated)
	event.Tally = &tally
	w.publish(ctx, event)

	return &tally, nil
}

// Verify resolves a pending report exactly once. On a verified decision
// the number is promoted to the blacklist and both the submitter and the
// verifier are credited. When those effects failed part way, a later
// verified decision from any verifier resumes them instead of conflicting.
func (w *Workflow) Verify(ctx context.Context, actor models.Actor, reportID uuid.UUID, decision models.ReportStatus, notes string) (*models.CommunityReport, error) {
	if !actor.CanVerify() {
		return nil, apperrors.NewPermissionError("expert or admin role required to verify reports")
	}
	if !decision.IsTerminal() {
		return nil, apperrors.NewValidationError("INVALID_DECISION", "decision must be verified or rejected").
			WithDetails(map[string]any{"decision": decision})
	}

	resumed := false
	updated, err := w.reports.Update(ctx, reportID, func(r *models.CommunityReport) error {
		now := w.now()
		if r.Resolve(decision, actor.UserID, notes, now) {
			return nil
		}
		if decision == models.ReportStatusVerified && r.ClaimEffects(now, w.effectsLease) {
			resumed = true
			return nil
		}
		return apperrors.NewConflictError("ALREADY_RESOLVED", fmt.Sprintf("report is already %s", r.Status))
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFoundError("community report")
	}

	log := w.logger.WithReportID(updated.ID.String())
	if resumed {
		log.Info().
			Str("verifier", actor.UserID).
			Strs("pending", effectNames(updated.PendingEffects)).
			Msg("resuming verification effects")
	} else {
		metrics.ReportResolved(string(decision))
		log.Info().
			Str("verifier", actor.UserID).
			Str("decision", string(decision)).
			Msg("community report resolved")
	}

	if decision == models.ReportStatusRejected {
		w.publish(ctx, models.NewCommunityEvent(models.EventReportRejected, actor.UserID, w.now()).ForReport(updated))
		return updated, nil
	}

	updated, err = w.applyVerification(ctx, actor, updated)
	if err != nil {
		return nil, err
	}
	w.publish(ctx, models.NewCommunityEvent(models.EventReportVerified, *updated.VerifiedBy, w.now()).ForReport(updated))
	return updated, nil
}

// applyVerification runs each pending effect of a claimed report and marks
// it done. On failure the claim is released so the next verify resumes
// from the failed effect.
func (w *Workflow) applyVerification(ctx context.Context, actor models.Actor, report *models.CommunityReport) (*models.CommunityReport, error) {
	verifierID := *report.VerifiedBy
	verifierName := ""
	if actor.UserID == verifierID {
		verifierName = actor.Name
	}

	for _, effect := range models.VerificationEffects {
		if !report.HasPendingEffect(effect) {
			continue
		}
		if err := w.runEffect(ctx, effect, report, verifierID, verifierName); err != nil {
			w.releaseEffects(ctx, report.ID)
			return nil, fmt.Errorf("report %s verified but %s failed: %w", report.ID, effect, err)
		}

		next, err := w.reports.Update(ctx, report.ID, func(r *models.CommunityReport) error {
			r.CompleteEffect(effect, w.now())
			return nil
		})
		if err != nil {
			w.releaseEffects(ctx, report.ID)
			return nil, fmt.Errorf("report %s verified but recording %s failed: %w", report.ID, effect, err)
		}
		if next != nil {
			report = next
		}
	}
	return report, nil
}

func (w *Workflow) runEffect(ctx context.Context, effect models.VerificationEffect, report *models.CommunityReport, verifierID, verifierName string) error {
	switch effect {
	case models.EffectPromote:
		_, err := w.blacklist.Promote(ctx, report, verifierID)
		return err
	case models.EffectCreditSubmitter:
		_, err := w.ledger.Credit(ctx, models.ReputationCredit{
			UserID:      report.SubmitterUserID,
			DisplayName: report.SubmitterName,
			Points:      w.rewards.VerifiedSubmitterPoints,
			Verified:    1,
		})
		return err
	case models.EffectCreditVerifier:
		_, err := w.ledger.Credit(ctx, models.ReputationCredit{
			UserID:      verifierID,
			DisplayName: verifierName,
			Points:      w.rewards.VerifierPoints,
		})
		return err
	}
	return fmt.Errorf("unknown verification effect %q", effect)
}

func (w *Workflow) releaseEffects(ctx context.Context, id uuid.UUID) {
	_, err := w.reports.Update(ctx, id, func(r *models.CommunityReport) error {
		r.ReleaseEffects(w.now())
		return nil
	})
	if err != nil {
		w.logger.WithReportID(id.String()).Warn().Err(err).
			Msg("failed to release verification effects, retry after the lease expires")
	}
}

func effectNames(effects []models.VerificationEffect) []string {
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = string(e)
	}
	return names
}

// Get returns a report by id
func (w *Workflow) Get(ctx context.Context, id uuid.UUID) (*models.CommunityReport, error) {
	report, err := w.reports.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil {
		return nil, apperrors.NewNotFoundError("community report")
	}
	return report, nil
}

// List returns reports matching the filter, newest first, and the total
// number of matches.
func (w *Workflow) List(ctx context.Context, filter models.ReportFilter) ([]*models.CommunityReport, int, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, apperrors.NewValidationError("INVALID_STATUS", "status must be pending, verified or rejected")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	reports, total, err := w.reports.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}

func (w *Workflow) publish(ctx context.Context, event *models.CommunityEvent) {
	if err := w.events.Publish(ctx, event); err != nil {
		w.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to publish community event")
	}
}
