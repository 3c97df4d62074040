package models

import "time"

// Level is a reputation tier derived from points
type Level string

const (
	LevelBeginner    Level = "Beginner"
	LevelActive      Level = "Active"
	LevelContributor Level = "Contributor"
	LevelTrusted     Level = "Trusted"
	LevelVeteran     Level = "Veteran"
	LevelExpert      Level = "Expert"
	LevelLegend      Level = "Legend"
)

type levelThreshold struct {
	min   int
	level Level
}

// ascending by min points
var levelThresholds = []levelThreshold{
	{0, LevelBeginner},
	{20, LevelActive},
	{50, LevelContributor},
	{100, LevelTrusted},
	{200, LevelVeteran},
	{500, LevelExpert},
	{1000, LevelLegend},
}

// LevelFor returns the level for a point total. Thresholds are inclusive.
func LevelFor(points int) Level {
	level := LevelBeginner
	for _, t := range levelThresholds {
		if points >= t.min {
			level = t.level
		}
	}
	return level
}

// NextLevel returns the level after the one points currently sits in and
// how many points are missing. ok is false at the top level.
func NextLevel(points int) (next Level, pointsToNext int, ok bool) {
	for _, t := range levelThresholds {
		if points < t.min {
			return t.level, t.min - points, true
		}
	}
	return "", 0, false
}

// LevelFloor returns the minimum points of the level points sits in
func LevelFloor(points int) int {
	floor := 0
	for _, t := range levelThresholds {
		if points >= t.min {
			floor = t.min
		}
	}
	return floor
}

// ReputationRecord tracks one user's contribution. Level is never stored;
// it is recomputed from Points whenever the record is read or credited.
type ReputationRecord struct {
	UserID           string    `json:"user_id" db:"user_id"`
	DisplayName      string    `json:"display_name,omitempty" db:"display_name"`
	Points           int       `json:"points" db:"points"`
	Level            Level     `json:"level" db:"-"`
	ReportsSubmitted int       `json:"reports_submitted" db:"reports_submitted"`
	ReportsVerified  int       `json:"reports_verified" db:"reports_verified"`
	CreatedAt        time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// NewReputationRecord returns the zero-state record for a user
func NewReputationRecord(userID string) *ReputationRecord {
	return &ReputationRecord{UserID: userID, Level: LevelBeginner}
}

// Apply adds a credit and recomputes the level
func (r *ReputationRecord) Apply(c ReputationCredit, now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if c.DisplayName != "" {
		r.DisplayName = c.DisplayName
	}
	r.Points += c.Points
	r.ReportsSubmitted += c.Submitted
	r.ReportsVerified += c.Verified
	r.Level = LevelFor(r.Points)
	r.UpdatedAt = now
}

// ReputationCredit is a non-negative delta applied to a record
type ReputationCredit struct {
	UserID      string
	DisplayName string
	Points      int
	Submitted   int
	Verified    int
}

// ReputationProgress is a record plus progress toward the next level
type ReputationProgress struct {
	ReputationRecord
	NextLevel    Level `json:"next_level,omitempty"`
	PointsToNext int   `json:"points_to_next"`
	Progress     int   `json:"progress"`
}

// LeaderboardSort selects the leaderboard ordering key
type LeaderboardSort string

const (
	LeaderboardByPoints   LeaderboardSort = "points"
	LeaderboardByReports  LeaderboardSort = "reports"
	LeaderboardByVerified LeaderboardSort = "verified"
)

func (s LeaderboardSort) IsValid() bool {
	switch s {
	case LeaderboardByPoints, LeaderboardByReports, LeaderboardByVerified:
		return true
	}
	return false
}

// LeaderboardEntry is a ranked reputation record
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	ReputationRecord
}
