package scoring

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/patterns"
)

// findings accumulates indicators and insights, dropping repeats while
// keeping first-seen order
type findings struct {
	indicators     []string
	insights       []string
	seenIndicators mapset.Set[string]
	seenInsights   mapset.Set[string]
}

func newFindings() *findings {
	return &findings{
		indicators:     []string{},
		insights:       []string{},
		seenIndicators: mapset.NewThreadUnsafeSet[string](),
		seenInsights:   mapset.NewThreadUnsafeSet[string](),
	}
}

func (f *findings) indicator(s string) {
	if s != "" && f.seenIndicators.Add(s) {
		f.indicators = append(f.indicators, s)
	}
}

func (f *findings) insight(s string) {
	if s != "" && f.seenInsights.Add(s) {
		f.insights = append(f.insights, s)
	}
}

// analyzeLanguage scores formal and informal marker phrases. Every marker
// adds its weight and an indicator.
func analyzeLanguage(catalog *patterns.Catalog, lowered, original string, f *findings) models.LanguageAnalysis {
	la := models.LanguageAnalysis{}
	for _, r := range catalog.Match(models.CategoryLanguage, lowered) {
		la.Score += r.Weight
		la.Markers = append(la.Markers, r.ID)
		switch r.Group {
		case patterns.GroupFormal:
			la.FormalMarkers++
		case patterns.GroupInformal:
			la.InformalMarkers++
		}
		f.indicator(r.Indicator)
		f.insight(r.Insight)
	}
	la.DetectedLanguage = detectLanguage(lowered)
	la.GrammarScore = grammarScore(original, la)
	return la
}

var (
	hausaMarkers  = regexp.MustCompile(`\b(sannu|ina kwana|nagode|yaya|kana)\b`)
	pidginMarkers = regexp.MustCompile(`\b(abeg|no be small|wahala|how you dey|how far|una)\b`)
	shoutedWord   = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	repeatedMarks = regexp.MustCompile(`[!?]{2,}`)
)

// detectLanguage prefers Pidgin when both marker sets match
func detectLanguage(lowered string) string {
	switch {
	case pidginMarkers.MatchString(lowered):
		return "Pidgin"
	case hausaMarkers.MatchString(lowered):
		return "Hausa"
	case strings.TrimSpace(lowered) == "":
		return models.Unknown
	default:
		return "English"
	}
}

// grammarScore rates writing quality from 1 (poor) to 10 (clean)
func grammarScore(original string, la models.LanguageAnalysis) int {
	if strings.TrimSpace(original) == "" {
		return 10
	}
	score := 10 - 2*la.FormalMarkers - la.InformalMarkers
	if len(shoutedWord.FindAllString(original, -1)) >= 2 {
		score -= 2
	}
	if repeatedMarks.MatchString(original) {
		score--
	}
	if score < 1 {
		return 1
	}
	return score
}

// analyzeSentiment counts matched words per list. A list crossing its
// threshold adds its weight; the last list to cross owns the single
// insight slot.
func analyzeSentiment(catalog *patterns.Catalog, lowered string, f *findings) models.SentimentAnalysis {
	matched := catalog.Match(models.CategorySentiment, lowered)
	sa := models.SentimentAnalysis{Counts: make(map[string]int)}

	for _, list := range catalog.SentimentLists() {
		n := 0
		for _, r := range matched {
			if r.Group == list.Name {
				n++
			}
		}
		sa.Counts[list.Name] = n
		if n > list.Threshold {
			sa.Score += list.Weight
			sa.Insight = list.Insight
			sa.Insights = append(sa.Insights, list.Insight)
		}
	}

	f.insight(sa.Insight)
	return sa
}

// analyzeFrequency counts distinct scam keywords and converts the count
// through the catalog's frequency policy
func analyzeFrequency(catalog *patterns.Catalog, lowered string, f *findings) (int, []string) {
	hits := mapset.NewThreadUnsafeSet[string]()
	var ordered []string
	for _, r := range catalog.Match(models.CategoryKeywordFrequency, lowered) {
		if hits.Add(r.Indicator) {
			ordered = append(ordered, r.Indicator)
		}
	}

	policy := catalog.Frequency()
	contribution := policy.Contribution(hits.Cardinality())
	switch {
	case hits.Cardinality() > policy.HighThreshold:
		f.indicator("High density of scam keywords")
		f.insight("Message packs many keywords typical of fraud attempts")
	case hits.Cardinality() > policy.LowThreshold:
		f.indicator("Multiple scam keywords")
	}
	return contribution, ordered
}
