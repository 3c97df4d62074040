package scoring

import "scamshield/internal/domain/models"

const (
	highRiskThreshold   = 80
	mediumRiskThreshold = 50
	cautionThreshold    = 25

	baseConfidence = 70
	maxConfidence  = 98
)

// Band is one of the four score ranges driving recommendation text
type Band int

const (
	BandMinimal Band = iota
	BandCaution
	BandMedium
	BandHigh
)

// BandFor returns the recommendation band of a clamped score
func BandFor(score int) Band {
	switch {
	case score >= highRiskThreshold:
		return BandHigh
	case score >= mediumRiskThreshold:
		return BandMedium
	case score >= cautionThreshold:
		return BandCaution
	default:
		return BandMinimal
	}
}

// RiskLevelFor maps a score to a risk level. The caution band still maps to Low.
func RiskLevelFor(score int) models.RiskLevel {
	switch {
	case score >= highRiskThreshold:
		return models.RiskLevelHigh
	case score >= mediumRiskThreshold:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

var recommendations = map[Band][]string{
	BandHigh: {
		"Do not reply to this message or call the number back",
		"Do not send money, account details, BVN, PINs or OTP codes",
		"Block the sender and report the number to the community",
		"Verify any claim through an official channel you look up yourself",
	},
	BandMedium: {
		"Treat this message with caution and confirm the sender's identity independently",
		"Do not share banking or personal information",
		"Confirm any payment claims directly with your bank before releasing goods",
	},
	BandCaution: {
		"Some warning signs were found; double-check before acting",
		"Avoid clicking links or sharing codes requested in the message",
	},
	BandMinimal: {
		"No significant threats detected",
		"Keep standard precautions with unsolicited messages",
	},
}

// Recommendations returns the fixed advice for the band a score falls in
func Recommendations(score int) []string {
	return append([]string(nil), recommendations[BandFor(score)]...)
}

// Confidence estimates how sure the engine is about its verdict.
// It never reaches 100.
func Confidence(riskScore, threatCount, insightCount int) int {
	c := baseConfidence
	switch {
	case riskScore > 80:
		c += 20
	case riskScore > 50:
		c += 15
	case riskScore > 25:
		c += 10
	}
	c += countBonus(threatCount)
	c += countBonus(insightCount)
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func countBonus(n int) int {
	switch {
	case n > 5:
		return 10
	case n > 3:
		return 5
	default:
		return 0
	}
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
