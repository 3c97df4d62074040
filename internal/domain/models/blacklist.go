package models

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistEntry is a confirmed scam number, unique by Phone
type BlacklistEntry struct {
	Phone          string     `json:"phone" db:"phone"`
	ReportedBy     string     `json:"reported_by" db:"reported_by"`
	VerifiedBy     *string    `json:"verified_by,omitempty" db:"verified_by"`
	ScamType       string     `json:"scam_type,omitempty" db:"scam_type"`
	Description    string     `json:"description,omitempty" db:"description"`
	SourceReportID *uuid.UUID `json:"source_report_id,omitempty" db:"source_report_id"`
	Reports        int        `json:"reports" db:"reports"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Merge folds a later promotion of the same phone into e.
// Non-empty incoming fields overwrite; CreatedAt is kept.
func (e *BlacklistEntry) Merge(in BlacklistEntry, now time.Time) {
	if in.ReportedBy != "" {
		e.ReportedBy = in.ReportedBy
	}
	if in.VerifiedBy != nil {
		v := *in.VerifiedBy
		e.VerifiedBy = &v
	}
	if in.ScamType != "" {
		e.ScamType = in.ScamType
	}
	if in.Description != "" {
		e.Description = in.Description
	}
	if in.SourceReportID != nil {
		id := *in.SourceReportID
		e.SourceReportID = &id
	}
	e.Reports++
	e.UpdatedAt = now
}

// ReportScammerRequest is a direct blacklist submission
type ReportScammerRequest struct {
	Phone  string `json:"phone" validate:"required,max=32"`
	Reason string `json:"reason" validate:"required,max=1000"`
}
