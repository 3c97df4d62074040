package streaming

import (
	"fmt"
	"strings"

	"scamshield/internal/domain/models"
)

// Subscription narrows the community events a client receives
type Subscription struct {
	// Filter by event types (empty = all)
	Types []models.EventType `json:"types,omitempty"`

	// Filter by normalized phone (empty = all)
	Phone string `json:"phone,omitempty"`

	// Filter by report (empty = all)
	ReportID string `json:"report_id,omitempty"`
}

// PhoneNormalizer maps a phone as typed by a user to the key carried by events
type PhoneNormalizer interface {
	Normalize(raw string) string
}

// Normalized returns a copy of s with its phone filter in canonical form
func (s *Subscription) Normalized(n PhoneNormalizer) *Subscription {
	if s == nil || s.Phone == "" || n == nil {
		return s
	}
	c := *s
	c.Phone = n.Normalize(s.Phone)
	return &c
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *models.CommunityEvent) bool {
	if s == nil {
		return true
	}

	if len(s.Types) > 0 {
		found := false
		for _, t := range s.Types {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if s.Phone != "" && s.Phone != event.Phone {
		return false
	}

	if s.ReportID != "" && (event.ReportID == nil || event.ReportID.String() != s.ReportID) {
		return false
	}

	return true
}

// Subject returns the NATS subject for an event:
// <prefix>.community.<type> with dots in the type kept as hierarchy,
// e.g. scamshield.community.report.verified
func Subject(prefix string, t models.EventType) string {
	if prefix == "" {
		prefix = "scamshield"
	}
	return fmt.Sprintf("%s.community.%s", prefix, strings.ToLower(string(t)))
}

// subjectWildcard matches every community subject under prefix
func subjectWildcard(prefix string) string {
	if prefix == "" {
		prefix = "scamshield"
	}
	return prefix + ".community.>"
}
