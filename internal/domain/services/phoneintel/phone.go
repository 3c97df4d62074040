package phoneintel

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

// BlacklistChecker answers exact-match lookups against the scam number registry.
// Phones are passed in normalized form.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, phone string) (bool, error)
}

// Config holds phone intelligence weights
type Config struct {
	DefaultRegion        string
	BlacklistWeight      int
	RepeatedDigitsWeight int
}

// DefaultConfig returns the default weights for Nigerian traffic
func DefaultConfig() Config {
	return Config{
		DefaultRegion:        "NG",
		BlacklistWeight:      50,
		RepeatedDigitsWeight: 10,
	}
}

// Analyzer classifies sender numbers
type Analyzer struct {
	blacklist  BlacklistChecker
	normalizer Normalizer
	config     Config
	logger     *logger.Logger
}

// NewAnalyzer creates a new phone analyzer
func NewAnalyzer(blacklist BlacklistChecker, cfg Config, log *logger.Logger) *Analyzer {
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = DefaultConfig().DefaultRegion
	}
	return &Analyzer{
		blacklist:  blacklist,
		normalizer: NewNormalizer(cfg.DefaultRegion),
		config:     cfg,
		logger:     log.WithComponent("phone-intel"),
	}
}

// Normalizer returns the normalizer used for blacklist keys
func (a *Analyzer) Normalizer() Normalizer {
	return a.normalizer
}

// Analyze classifies raw. An empty number is not an error: every field is
// Unknown and nothing is contributed.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (models.PhoneAnalysis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.PhoneAnalysis{
			Number:            models.Unknown,
			Normalized:        models.Unknown,
			Country:           models.Unknown,
			RegionCode:        models.Unknown,
			CarrierGuess:      models.Unknown,
			BlacklistStatus:   models.BlacklistStatusUnknown,
			StructuralPattern: models.StructuralPatternUnknown,
		}, nil
	}

	normalized := a.normalizer.Normalize(raw)
	result := models.PhoneAnalysis{
		Number:            raw,
		Normalized:        normalized,
		Country:           models.Unknown,
		RegionCode:        models.Unknown,
		CarrierGuess:      models.Unknown,
		BlacklistStatus:   models.BlacklistStatusClean,
		StructuralPattern: models.StructuralPatternNormal,
	}

	a.locate(raw, normalized, &result)

	listed := false
	if a.blacklist != nil {
		var err error
		if listed, err = a.blacklist.IsBlacklisted(ctx, normalized); err != nil {
			return models.PhoneAnalysis{}, fmt.Errorf("failed to check blacklist: %w", err)
		}
	}
	if listed {
		result.BlacklistStatus = models.BlacklistStatusBlacklisted
		result.RiskContribution += a.config.BlacklistWeight
		result.Indicators = append(result.Indicators, "Number is on the scam blacklist")
		result.Insights = append(result.Insights, "This number was confirmed as a scam number by the community")
	}

	if HasRepeatedDigits(raw, 4) {
		result.StructuralPattern = models.StructuralPatternRepeatedDigits
		result.RiskContribution += a.config.RepeatedDigitsWeight
		result.Indicators = append(result.Indicators, "Suspicious repeated digits in number")
		result.Insights = append(result.Insights, "Numbers with long runs of one digit are often spoofed or vanity lines")
	}

	if result.International {
		result.Insights = append(result.Insights,
			fmt.Sprintf("Number is registered in %s, outside the expected region", result.Country))
	}

	a.logger.Debug().
		Str("phone", normalized).
		Str("status", string(result.BlacklistStatus)).
		Int("contribution", result.RiskContribution).
		Msg("phone analyzed")

	return result, nil
}

// locate fills country, region and carrier. libphonenumber is tried first;
// the static calling-code table covers numbers it cannot parse.
func (a *Analyzer) locate(raw, normalized string, result *models.PhoneAnalysis) {
	region := ""
	if num, err := phonenumbers.Parse(raw, a.config.DefaultRegion); err == nil {
		region = phonenumbers.GetRegionCodeForNumber(num)
		if region == "NG" {
			national := "0" + phonenumbers.GetNationalSignificantNumber(num)
			result.CarrierGuess = guessNigerianCarrier(national)
		}
	}
	if region == "" || region == "ZZ" {
		if info, ok := lookupCallingCode(normalized); ok {
			region = info.region
		}
	}
	if region == "" || region == "ZZ" {
		return
	}

	result.RegionCode = region
	result.Country = countryName(region)
	result.International = region != a.config.DefaultRegion
}

// HasRepeatedDigits reports whether s has n or more identical consecutive digits
func HasRepeatedDigits(s string, n int) bool {
	run := 0
	var prev rune
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
