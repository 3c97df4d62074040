// Package patterns holds the versioned catalog of weighted scam pattern rules.
//
// A Catalog is built once from a Definition and is read-only afterwards.
// Every matcher is compiled case-insensitively at construction time, so a
// malformed rule fails New instead of failing a scan.
package patterns

import (
	"encoding/json"
	"fmt"
	"regexp"

	"scamshield/internal/domain/models"
)

// Rule is one weighted matcher inside a category.
//
// For sentiment rules Group names the word list the rule belongs to; for
// language rules it is "formal" or "informal". Keyword-frequency rules
// count hits, so their Weight is the number of hits a match is worth.
type Rule struct {
	ID        string                 `json:"id"`
	Category  models.PatternCategory `json:"category"`
	Group     string                 `json:"group,omitempty"`
	Pattern   string                 `json:"pattern"`
	Weight    int                    `json:"weight"`
	Indicator string                 `json:"indicator,omitempty"`
	Insight   string                 `json:"insight,omitempty"`

	matcher *regexp.Regexp
}

// Matches reports whether the rule matches text at least once
func (r Rule) Matches(text string) bool {
	return r.matcher != nil && r.matcher.MatchString(text)
}

// SentimentList is one of the word lists used by the sentiment heuristic
type SentimentList struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
	Weight    int    `json:"weight"`
	Insight   string `json:"insight"`
}

// FrequencyPolicy converts distinct keyword hits into a contribution
type FrequencyPolicy struct {
	HighThreshold int `json:"high_threshold"`
	HighWeight    int `json:"high_weight"`
	LowThreshold  int `json:"low_threshold"`
	LowWeight     int `json:"low_weight"`
}

// Contribution returns the weight for a number of distinct keyword hits
func (p FrequencyPolicy) Contribution(hits int) int {
	switch {
	case hits > p.HighThreshold:
		return p.HighWeight
	case hits > p.LowThreshold:
		return p.LowWeight
	default:
		return 0
	}
}

// Definition is the serializable source of a catalog
type Definition struct {
	Version   string          `json:"version"`
	Rules     []Rule          `json:"rules"`
	Sentiment []SentimentList `json:"sentiment"`
	Frequency FrequencyPolicy `json:"frequency"`
}

// ParseDefinition decodes a JSON catalog definition
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to decode pattern catalog: %w", err)
	}
	return def, nil
}

// Catalog is an immutable, compiled set of rules grouped by category
type Catalog struct {
	version   string
	rules     map[models.PatternCategory][]Rule
	sentiment []SentimentList
	frequency FrequencyPolicy
}

// New validates and compiles a definition
func New(def Definition) (*Catalog, error) {
	if def.Version == "" {
		return nil, fmt.Errorf("pattern catalog: version is required")
	}

	known := make(map[models.PatternCategory]bool, len(models.AllCategories))
	for _, c := range models.AllCategories {
		known[c] = true
	}

	lists := make(map[string]bool, len(def.Sentiment))
	for _, l := range def.Sentiment {
		if l.Name == "" || l.Weight <= 0 || l.Threshold < 0 {
			return nil, fmt.Errorf("pattern catalog: invalid sentiment list %q", l.Name)
		}
		lists[l.Name] = true
	}

	f := def.Frequency
	if f.HighThreshold < f.LowThreshold || f.HighWeight < f.LowWeight || f.LowWeight < 0 {
		return nil, fmt.Errorf("pattern catalog: invalid keyword frequency policy")
	}

	c := &Catalog{
		version:   def.Version,
		rules:     make(map[models.PatternCategory][]Rule),
		sentiment: append([]SentimentList(nil), def.Sentiment...),
		frequency: f,
	}

	seen := make(map[string]bool, len(def.Rules))
	for _, r := range def.Rules {
		switch {
		case r.ID == "":
			return nil, fmt.Errorf("pattern catalog: rule without id")
		case seen[r.ID]:
			return nil, fmt.Errorf("pattern catalog: duplicate rule id %q", r.ID)
		case !known[r.Category]:
			return nil, fmt.Errorf("pattern catalog: rule %q has unknown category %q", r.ID, r.Category)
		case r.Weight <= 0:
			return nil, fmt.Errorf("pattern catalog: rule %q must have a positive weight", r.ID)
		case r.Category == models.CategorySentiment && !lists[r.Group]:
			return nil, fmt.Errorf("pattern catalog: rule %q references unknown sentiment list %q", r.ID, r.Group)
		}
		seen[r.ID] = true

		m, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern catalog: rule %q: %w", r.ID, err)
		}
		r.matcher = m
		c.rules[r.Category] = append(c.rules[r.Category], r)
	}

	return c, nil
}

// Version identifies the rule set that produced a result
func (c *Catalog) Version() string {
	return c.version
}

// Rules returns the ordered rules of a category. Unknown categories yield
// an empty list.
func (c *Catalog) Rules(category models.PatternCategory) []Rule {
	rules := c.rules[category]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Match returns the rules of a category that match text, in catalog order
func (c *Catalog) Match(category models.PatternCategory, text string) []Rule {
	var matched []Rule
	for _, r := range c.rules[category] {
		if r.Matches(text) {
			matched = append(matched, r)
		}
	}
	return matched
}

// SentimentLists returns the sentiment word lists in evaluation order
func (c *Catalog) SentimentLists() []SentimentList {
	return append([]SentimentList(nil), c.sentiment...)
}

// Frequency returns the keyword frequency policy
func (c *Catalog) Frequency() FrequencyPolicy {
	return c.frequency
}

// Size returns the total number of rules
func (c *Catalog) Size() int {
	n := 0
	for _, rules := range c.rules {
		n += len(rules)
	}
	return n
}
