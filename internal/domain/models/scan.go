package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the coarse classification derived from a risk score
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// PatternCategory groups weighted pattern rules
type PatternCategory string

const (
	CategoryUrgency           PatternCategory = "urgency"
	CategoryFinancial         PatternCategory = "financial"
	CategoryAuthority         PatternCategory = "authority"
	CategoryBusinessContext   PatternCategory = "business-context"
	CategoryGeographic        PatternCategory = "geographic"
	CategoryLanguage          PatternCategory = "language"
	CategorySentiment         PatternCategory = "sentiment"
	CategorySocialEngineering PatternCategory = "social-engineering"
	CategoryKeywordFrequency  PatternCategory = "keyword-frequency"
)

// AllCategories lists the nine pattern categories in evaluation order
var AllCategories = []PatternCategory{
	CategoryUrgency,
	CategoryFinancial,
	CategoryAuthority,
	CategoryBusinessContext,
	CategoryGeographic,
	CategoryLanguage,
	CategorySentiment,
	CategorySocialEngineering,
	CategoryKeywordFrequency,
}

// ScanInput is one message submitted for scoring
type ScanInput struct {
	Text         string `json:"message"`
	Phone        string `json:"phone,omitempty"`
	SenderName   string `json:"sender_name,omitempty"`
	BusinessType string `json:"business_type,omitempty"`
}

// BlacklistStatus reports whether a phone is a confirmed scam number
type BlacklistStatus string

const (
	BlacklistStatusClean       BlacklistStatus = "CLEAN"
	BlacklistStatusBlacklisted BlacklistStatus = "BLACKLISTED"
	BlacklistStatusUnknown     BlacklistStatus = "Unknown"
)

// StructuralPattern describes the digit layout of a phone number
type StructuralPattern string

const (
	StructuralPatternNormal         StructuralPattern = "Normal"
	StructuralPatternRepeatedDigits StructuralPattern = "RepeatedDigits"
	StructuralPatternUnknown        StructuralPattern = "Unknown"
)

// Unknown is the placeholder for fields that could not be determined
const Unknown = "Unknown"

// ScanResult is the immutable outcome of scoring one message
type ScanResult struct {
	RiskScore         int               `json:"risk_score"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	Confidence        int               `json:"confidence"`
	ThreatIndicators  []string          `json:"threat_indicators"`
	AIInsights        []string          `json:"ai_insights"`
	Recommendations   []string          `json:"recommendations"`
	PhoneAnalysis     PhoneAnalysis     `json:"phone_analysis"`
	LanguageAnalysis  LanguageAnalysis  `json:"language_analysis"`
	BusinessContext   BusinessContext   `json:"business_context"`
	GeographicContext GeographicContext `json:"geographic_context"`
	SentimentAnalysis SentimentAnalysis `json:"sentiment_analysis"`
	PatternAnalysis   PatternAnalysis   `json:"pattern_analysis"`
	CatalogVersion    string            `json:"catalog_version"`
}

// IsThreat reports whether the scan classified the message above Low
func (r ScanResult) IsThreat() bool {
	return r.RiskLevel != RiskLevelLow
}

// PhoneAnalysis is the PhoneIntelligence view of the sender number
type PhoneAnalysis struct {
	Number            string            `json:"number"`
	Normalized        string            `json:"normalized"`
	Country           string            `json:"country"`
	RegionCode        string            `json:"region_code"`
	CarrierGuess      string            `json:"carrier_guess"`
	International     bool              `json:"international"`
	BlacklistStatus   BlacklistStatus   `json:"blacklist_status"`
	StructuralPattern StructuralPattern `json:"structural_pattern"`
	RiskContribution  int               `json:"risk_contribution"`
	Indicators        []string          `json:"-"`
	Insights          []string          `json:"-"`
}

// LanguageAnalysis holds grammar marker counts and language detection
type LanguageAnalysis struct {
	DetectedLanguage string   `json:"detected_language"`
	GrammarScore     int      `json:"grammar_score"`
	InformalMarkers  int      `json:"informal_markers"`
	FormalMarkers    int      `json:"formal_markers"`
	Markers          []string `json:"markers,omitempty"`
	Score            int      `json:"score"`
}

// SentimentAnalysis holds per-list word counts.
// Insight is the single slot where the last list to cross the threshold wins;
// Insights keeps every crossed list in evaluation order.
type SentimentAnalysis struct {
	Counts   map[string]int `json:"counts"`
	Insight  string         `json:"insight,omitempty"`
	Insights []string       `json:"insights,omitempty"`
	Score    int            `json:"score"`
}

// BusinessContext captures business-targeting signals
type BusinessContext struct {
	BusinessType string   `json:"business_type,omitempty"`
	SenderName   string   `json:"sender_name,omitempty"`
	Signals      []string `json:"signals,omitempty"`
	Score        int      `json:"score"`
}

// GeographicContext captures location signals from text and phone
type GeographicContext struct {
	PhoneCountry  string   `json:"phone_country"`
	International bool     `json:"international"`
	Signals       []string `json:"signals,omitempty"`
	Score         int      `json:"score"`
}

// PatternAnalysis is the per-category audit trail of a scan
type PatternAnalysis struct {
	CategoryScores map[PatternCategory]int `json:"category_scores"`
	MatchedRules   []string                `json:"matched_rules,omitempty"`
	KeywordHits    []string                `json:"keyword_hits,omitempty"`
	PhoneScore     int                     `json:"phone_score"`
}

// ScanReport is a persisted scan owned by the requesting user
type ScanReport struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerUserID string    `json:"owner_user_id" db:"owner_user_id"`
	Message     string    `json:"message" db:"message"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Timestamp   time.Time `json:"timestamp" db:"created_at"`
	ScanResult
}

// IndicatorCount is a threat indicator with its frequency across scans
type IndicatorCount struct {
	Indicator string `json:"indicator"`
	Count     int    `json:"count"`
}

// ScanStats summarizes one user's scan history
type ScanStats struct {
	TotalScans      int               `json:"total_scans"`
	ThreatsDetected int               `json:"threats_detected"`
	ByLevel         map[RiskLevel]int `json:"by_level"`
	TopIndicators   []IndicatorCount  `json:"top_indicators"`
	LastScanAt      *time.Time        `json:"last_scan_at,omitempty"`
}

// ScanExport is the downloadable bundle of a user's scan history
type ScanExport struct {
	UserID      string        `json:"user_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stats       ScanStats     `json:"stats"`
	Reports     []*ScanReport `json:"reports"`
}

// ScanAnalytics is a per-day view of one user's recent scans. Dates,
// ScanCounts and ThreatCounts are parallel, oldest day first.
type ScanAnalytics struct {
	Days         int              `json:"days"`
	Dates        []string         `json:"dates"`
	ScanCounts   []int            `json:"scan_counts"`
	ThreatCounts []int            `json:"threat_counts"`
	TopPatterns  []IndicatorCount `json:"top_patterns"`
}

// ActivityType tags an entry of the recent activity feed
type ActivityType string

const (
	ActivityScan   ActivityType = "scan"
	ActivityThreat ActivityType = "threat"
	ActivityReport ActivityType = "report"
)

// ActivityItem is one entry of a user's recent activity feed
type ActivityItem struct {
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	RefID       uuid.UUID    `json:"ref_id"`
}
