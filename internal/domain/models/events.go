package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a community event
type EventType string

const (
	EventReportSubmitted  EventType = "report.submitted"
	EventReportVoted      EventType = "report.voted"
	EventReportVerified   EventType = "report.verified"
	EventReportRejected   EventType = "report.rejected"
	EventBlacklistUpdated EventType = "blacklist.updated"
)

// CommunityEvent is published after a community operation completes
type CommunityEvent struct {
	ID        uuid.UUID    `json:"id"`
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	ReportID  *uuid.UUID   `json:"report_id,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	ScamType  string       `json:"scam_type,omitempty"`
	Status    ReportStatus `json:"status,omitempty"`
	Tally     *VoteTally   `json:"tally,omitempty"`
}

// NewCommunityEvent stamps a new event
func NewCommunityEvent(t EventType, userID string, now time.Time) *CommunityEvent {
	return &CommunityEvent{
		ID:        uuid.New(),
		Type:      t,
		Timestamp: now,
		UserID:    userID,
	}
}

// ForReport attaches report details to the event
func (e *CommunityEvent) ForReport(r *CommunityReport) *CommunityEvent {
	id := r.ID
	e.ReportID = &id
	e.Phone = r.PhoneNumber
	e.ScamType = r.ScamType
	e.Status = r.Status
	return e
}
