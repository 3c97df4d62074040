package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the status of a community report
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusVerified ReportStatus = "verified"
	ReportStatusRejected ReportStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusVerified || s == ReportStatusRejected
}

// IsValid reports whether s is a known status
func (s ReportStatus) IsValid() bool {
	return s == ReportStatusPending || s.IsTerminal()
}

// VoteDirection is a user's opinion on a community report
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) IsValid() bool {
	return d == VoteUp || d == VoteDown
}

// VerificationEffect is one follow-up of a verified decision
type VerificationEffect string

const (
	EffectPromote         VerificationEffect = "promote"
	EffectCreditSubmitter VerificationEffect = "credit_submitter"
	EffectCreditVerifier  VerificationEffect = "credit_verifier"
)

// VerificationEffects are applied in this order
var VerificationEffects = []VerificationEffect{EffectPromote, EffectCreditSubmitter, EffectCreditVerifier}

// CommunityReport is a user-submitted report about a suspected scam number
type CommunityReport struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	SubmitterUserID string       `json:"submitter_user_id" db:"submitter_user_id"`
	SubmitterName   string       `json:"submitter_name" db:"submitter_name"`
	PhoneNumber     string       `json:"phone_number" db:"phone_number"`
	Message         string       `json:"message" db:"message"`
	ScamType        string       `json:"scam_type" db:"scam_type"`
	Description     string       `json:"description,omitempty" db:"description"`
	Evidence        string       `json:"evidence,omitempty" db:"evidence"`
	Status          ReportStatus `json:"status" db:"status"`

	// Verification
	VerifiedBy        *string    `json:"verified_by,omitempty" db:"verified_by"`
	VerificationDate  *time.Time `json:"verification_date,omitempty" db:"verification_date"`
	VerificationNotes *string    `json:"verification_notes,omitempty" db:"verification_notes"`

	// PendingEffects lists the follow-ups of a verified decision that have
	// not completed yet. EffectsClaimedAt is set while a caller runs them.
	PendingEffects   []VerificationEffect `json:"pending_effects,omitempty" db:"pending_effects"`
	EffectsClaimedAt *time.Time           `json:"-" db:"effects_claimed_at"`

	// Votes holds one active direction per user; the counters always
	// equal the number of users currently voting each way.
	Upvotes   int                      `json:"upvotes" db:"upvotes"`
	Downvotes int                      `json:"downvotes" db:"downvotes"`
	Votes     map[string]VoteDirection `json:"votes,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewCommunityReport creates a pending report
func NewCommunityReport(submitterID, submitterName, phone, message, scamType, description, evidence string, now time.Time) *CommunityReport {
	return &CommunityReport{
		ID:              uuid.New(),
		SubmitterUserID: submitterID,
		SubmitterName:   submitterName,
		PhoneNumber:     phone,
		Message:         message,
		ScamType:        scamType,
		Description:     description,
		Evidence:        evidence,
		Status:          ReportStatusPending,
		Votes:           make(map[string]VoteDirection),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ApplyVote records userID's vote. A change of direction moves the user
// from one counter to the other; repeating the same direction only
// touches UpdatedAt.
func (r *CommunityReport) ApplyVote(userID string, dir VoteDirection, now time.Time) {
	if r.Votes == nil {
		r.Votes = make(map[string]VoteDirection)
	}
	prev, voted := r.Votes[userID]
	if !voted || prev != dir {
		if voted {
			r.adjust(prev, -1)
		}
		r.adjust(dir, 1)
		r.Votes[userID] = dir
	}
	r.UpdatedAt = now
}

func (r *CommunityReport) adjust(dir VoteDirection, delta int) {
	switch dir {
	case VoteUp:
		r.Upvotes += delta
	case VoteDown:
		r.Downvotes += delta
	}
}

// Tally returns the current vote counters
func (r *CommunityReport) Tally() VoteTally {
	return VoteTally{Upvotes: r.Upvotes, Downvotes: r.Downvotes}
}

// Resolve moves a pending report into a terminal status.
// It returns false when the report was already resolved. A verified
// decision leaves every effect pending and claimed by the resolver.
func (r *CommunityReport) Resolve(decision ReportStatus, verifierID, notes string, now time.Time) bool {
	if r.Status.IsTerminal() {
		return false
	}
	r.Status = decision
	r.VerifiedBy = &verifierID
	r.VerificationDate = &now
	if notes != "" {
		r.VerificationNotes = &notes
	}
	if decision == ReportStatusVerified {
		r.PendingEffects = append([]VerificationEffect(nil), VerificationEffects...)
		r.EffectsClaimedAt = &now
	}
	r.UpdatedAt = now
	return true
}

// ClaimEffects takes over the pending effects of a verified report. It
// fails when nothing is pending or another caller claimed them less than
// lease ago.
func (r *CommunityReport) ClaimEffects(now time.Time, lease time.Duration) bool {
	if r.Status != ReportStatusVerified || len(r.PendingEffects) == 0 {
		return false
	}
	if r.EffectsClaimedAt != nil && now.Sub(*r.EffectsClaimedAt) < lease {
		return false
	}
	r.EffectsClaimedAt = &now
	r.UpdatedAt = now
	return true
}

// CompleteEffect drops e from the pending effects. The claim is released
// once nothing is left.
func (r *CommunityReport) CompleteEffect(e VerificationEffect, now time.Time) {
	kept := r.PendingEffects[:0]
	for _, p := range r.PendingEffects {
		if p != e {
			kept = append(kept, p)
		}
	}
	r.PendingEffects = kept
	if len(kept) == 0 {
		r.PendingEffects = nil
		r.EffectsClaimedAt = nil
	}
	r.UpdatedAt = now
}

// ReleaseEffects lets the next verify resume the pending effects at once
func (r *CommunityReport) ReleaseEffects(now time.Time) {
	r.EffectsClaimedAt = nil
	r.UpdatedAt = now
}

// HasPendingEffect reports whether e still has to run
func (r *CommunityReport) HasPendingEffect(e VerificationEffect) bool {
	for _, p := range r.PendingEffects {
		if p == e {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never hand out shared state
func (r *CommunityReport) Clone() *CommunityReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Votes = make(map[string]VoteDirection, len(r.Votes))
	for k, v := range r.Votes {
		c.Votes[k] = v
	}
	if r.VerifiedBy != nil {
		v := *r.VerifiedBy
		c.VerifiedBy = &v
	}
	if r.VerificationDate != nil {
		v := *r.VerificationDate
		c.VerificationDate = &v
	}
	if r.VerificationNotes != nil {
		v := *r.VerificationNotes
		c.VerificationNotes = &v
	}
	if r.PendingEffects != nil {
		c.PendingEffects = append([]VerificationEffect(nil), r.PendingEffects...)
	}
	if r.EffectsClaimedAt != nil {
		v := *r.EffectsClaimedAt
		c.EffectsClaimedAt = &v
	}
	return &c
}

// VoteTally is the result of a vote cast
type VoteTally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// ReportFilter narrows community report listings
type ReportFilter struct {
	Status          ReportStatus
	SubmitterUserID string
	Limit           int
	Offset          int
}

// SubmitReportRequest is the payload for creating a community report
type SubmitReportRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
	Message     string `json:"message" validate:"required,max=5000"`
	ScamType    string `json:"scam_type" validate:"required,max=64"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Evidence    string `json:"evidence,omitempty" validate:"max=2000"`
}

// VoteRequest is the payload for voting on a report
type VoteRequest struct {
	Direction VoteDirection `json:"direction" validate:"required,oneof=up down"`
}

// VerifyRequest is the payload for resolving a report
type VerifyRequest struct {
	Decision ReportStatus `json:"decision" validate:"required,oneof=verified rejected"`
	Notes    string       `json:"notes,omitempty" validate:"max=2000"`
}
