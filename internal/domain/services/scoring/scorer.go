// Package scoring implements the multi-signal risk scorer.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/patterns"
	"scamshield/pkg/logger"
)

// PhoneAnalyzer classifies the sender number of a scan
type PhoneAnalyzer interface {
	Analyze(ctx context.Context, raw string) (models.PhoneAnalysis, error)
}

// ruleCategories are scored by summing matched rule weights directly.
// Language, sentiment and keyword frequency have their own heuristics.
var ruleCategories = []models.PatternCategory{
	models.CategoryUrgency,
	models.CategoryFinancial,
	models.CategoryAuthority,
	models.CategoryBusinessContext,
	models.CategoryGeographic,
	models.CategorySocialEngineering,
}

// Scorer turns a message and optional phone into a ScanResult
type Scorer struct {
	catalog *patterns.Catalog
	phone   PhoneAnalyzer
	logger  *logger.Logger
}

// NewScorer creates a new risk scorer
func NewScorer(catalog *patterns.Catalog, phone PhoneAnalyzer, log *logger.Logger) *Scorer {
	return &Scorer{
		catalog: catalog,
		phone:   phone,
		logger:  log.WithComponent("risk-scorer"),
	}
}

// CatalogVersion returns the version of the rule set in use
func (s *Scorer) CatalogVersion() string {
	return s.catalog.Version()
}

// Score runs every heuristic over the input and aggregates the result.
// Contributions are additive, so the order of the steps does not matter.
func (s *Scorer) Score(ctx context.Context, in models.ScanInput) (*models.ScanResult, error) {
	lowered := strings.ToLower(in.Text)
	f := newFindings()

	pa := models.PatternAnalysis{CategoryScores: make(map[models.PatternCategory]int, len(models.AllCategories))}
	for _, c := range models.AllCategories {
		pa.CategoryScores[c] = 0
	}

	// 1. Weighted rule categories
	signals := make(map[models.PatternCategory][]string)
	for _, cat := range ruleCategories {
		for _, r := range s.catalog.Match(cat, lowered) {
			pa.CategoryScores[cat] += r.Weight
			pa.MatchedRules = append(pa.MatchedRules, r.ID)
			signals[cat] = append(signals[cat], r.Indicator)
			f.indicator(r.Indicator)
			f.insight(r.Insight)
		}
	}

	// 2. Sender number
	phone, err := s.phone.Analyze(ctx, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze phone: %w", err)
	}
	pa.PhoneScore = phone.RiskContribution
	for _, ind := range phone.Indicators {
		f.indicator(ind)
	}
	for _, ins := range phone.Insights {
		f.insight(ins)
	}

	// 3. Language and grammar markers
	language := analyzeLanguage(s.catalog, lowered, in.Text, f)
	pa.CategoryScores[models.CategoryLanguage] = language.Score

	// 4. Sentiment word lists
	sentiment := analyzeSentiment(s.catalog, lowered, f)
	pa.CategoryScores[models.CategorySentiment] = sentiment.Score

	// 5. Keyword frequency
	freq, hits := analyzeFrequency(s.catalog, lowered, f)
	pa.CategoryScores[models.CategoryKeywordFrequency] = freq
	pa.KeywordHits = hits

	// 6. Aggregate and clamp
	total := phone.RiskContribution
	for _, v := range pa.CategoryScores {
		total += v
	}
	score := clampScore(total)

	business := models.BusinessContext{
		BusinessType: in.BusinessType,
		SenderName:   in.SenderName,
		Signals:      signals[models.CategoryBusinessContext],
		Score:        pa.CategoryScores[models.CategoryBusinessContext],
	}
	if business.BusinessType != "" && business.Score > 0 {
		f.insight(fmt.Sprintf("Message appears to target %s businesses", business.BusinessType))
	}

	geo := models.GeographicContext{
		PhoneCountry:  phone.Country,
		International: phone.International,
		Signals:       signals[models.CategoryGeographic],
		Score:         pa.CategoryScores[models.CategoryGeographic],
	}

	// 7-10. Level, confidence and band advice
	result := &models.ScanResult{
		RiskScore:         score,
		RiskLevel:         RiskLevelFor(score),
		Confidence:        Confidence(score, len(f.indicators), len(f.insights)),
		ThreatIndicators:  f.indicators,
		AIInsights:        f.insights,
		Recommendations:   Recommendations(score),
		PhoneAnalysis:     phone,
		LanguageAnalysis:  language,
		BusinessContext:   business,
		GeographicContext: geo,
		SentimentAnalysis: sentiment,
		PatternAnalysis:   pa,
		CatalogVersion:    s.catalog.Version(),
	}

	s.logger.Debug().
		Int("score", result.RiskScore).
		Str("level", string(result.RiskLevel)).
		Int("confidence", result.Confidence).
		Int("indicators", len(result.ThreatIndicators)).
		Msg("message scored")

	return result, nil
}
