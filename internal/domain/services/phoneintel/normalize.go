package phoneintel

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer produces the canonical key used for blacklist storage and lookup
type Normalizer struct {
	region string
}

func NewNormalizer(defaultRegion string) Normalizer {
	return Normalizer{region: defaultRegion}
}

// Normalize returns E.164 when the number parses, otherwise its digits
// with a leading + preserved.
func (n Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if num, err := phonenumbers.Parse(raw, n.region); err == nil {
		return phonenumbers.Format(num, phonenumbers.E164)
	}
	return digitsOnly(raw)
}

func digitsOnly(number string) string {
	var b strings.Builder
	for i, c := range number {
		if c == '+' && i == 0 {
			b.WriteRune(c)
		} else if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

var (
	phoneFormat    = regexp.MustCompile(`^[+0-9]{10,16}$`)
	phoneSeparator = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// ValidFormat reports whether raw looks like a dialable number once
// separators are stripped
func ValidFormat(raw string) bool {
	return phoneFormat.MatchString(phoneSeparator.Replace(strings.TrimSpace(raw)))
}
