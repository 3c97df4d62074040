package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"scamshield/internal/domain/models"
)

// DefaultVersion is the version of the built-in rule set
const DefaultVersion = "2024.1"

const (
	GroupFormal   = "formal"
	GroupInformal = "informal"

	SentimentTrust     = "trust"
	SentimentPressure  = "pressure"
	SentimentEmotional = "emotional"
)

// DefaultDefinition returns the built-in rule set
func DefaultDefinition() Definition {
	rules := []Rule{
		// urgency
		{ID: "urg-001", Category: models.CategoryUrgency, Pattern: `\burgent(ly)?\b`, Weight: 15,
			Indicator: "Urgency language", Insight: "Message pressures the recipient to act urgently"},
		{ID: "urg-002", Category: models.CategoryUrgency, Pattern: `\b(immediately|asap|right away)\b`, Weight: 12,
			Indicator: "Demand for immediate action", Insight: "Scammers rush victims so they cannot verify claims"},
		{ID: "urg-003", Category: models.CategoryUrgency, Pattern: `\b(today only|last chance|limited time|deadline|expires? (today|soon))\b`, Weight: 12,
			Indicator: "Artificial deadline", Insight: "An artificial deadline is used to create pressure"},
		{ID: "urg-004", Category: models.CategoryUrgency, Pattern: `\b(hurry|quick(ly)?|fast|emergency)\b`, Weight: 8,
			Indicator: "Time pressure", Insight: "Message stresses speed over verification"},
		{ID: "urg-005", Category: models.CategoryUrgency, Pattern: `\b(today|tonight|now)\b`, Weight: 5,
			Indicator: "Same-day request", Insight: "Request is framed as needing a response today"},
		{ID: "urg-006", Category: models.CategoryUrgency, Pattern: `\b(travell?ing|leaving|flight)\b`, Weight: 8,
			Indicator: "Travel pretext", Insight: "Sender claims to be travelling to justify urgency"},

		// financial pressure
		{ID: "fin-001", Category: models.CategoryFinancial, Pattern: `\baccount (number|details)\b|\bbank (info|details)\b|\bsend (your|me) (account|bank)\b`, Weight: 25,
			Indicator: "Request for account details", Insight: "Legitimate businesses do not request account details by text"},
		{ID: "fin-002", Category: models.CategoryFinancial, Pattern: `\b(already|i'?ve) paid\b|\bpayment (done|made|sent)\b|\bsee (proof|evidence)\b|\btransfer receipt\b`, Weight: 20,
			Indicator: "Fake payment claim", Insight: "Claims of payment already made are a common overpayment scam"},
		{ID: "fin-003", Category: models.CategoryFinancial, Pattern: `\b(bvn|pin|otp|cvv|password)\b`, Weight: 20,
			Indicator: "Credential request", Insight: "Message asks for a secret credential"},
		{ID: "fin-004", Category: models.CategoryFinancial, Pattern: `\b(processing|clearance|release|handling|registration) fee\b`, Weight: 15,
			Indicator: "Advance fee", Insight: "An upfront fee is requested before a payout"},
		{ID: "fin-005", Category: models.CategoryFinancial, Pattern: `\b(wire|western union|moneygram|bitcoin|gift ?card|crypto)\b`, Weight: 10,
			Indicator: "Untraceable payment method", Insight: "Requested payment method is hard to reverse"},

		// authority impersonation
		{ID: "auth-001", Category: models.CategoryAuthority, Pattern: `\b(efcc|cbn|ndic|firs|interpol)\b`, Weight: 25,
			Indicator: "Agency impersonation", Insight: "Sender invokes a named enforcement or regulatory agency"},
		{ID: "auth-002", Category: models.CategoryAuthority, Pattern: `\b(federal|government|ministry)\b`, Weight: 20,
			Indicator: "Government authority claim", Insight: "Government authority is invoked to lend credibility"},
		{ID: "auth-003", Category: models.CategoryAuthority, Pattern: `\b(police|court|customs|immigration|tax office)\b`, Weight: 15,
			Indicator: "Law enforcement claim", Insight: "Threat of legal consequences is implied"},
		{ID: "auth-004", Category: models.CategoryAuthority, Pattern: `\b(bank manager|ceo|director|official)\b`, Weight: 10,
			Indicator: "Senior official claim", Insight: "Sender claims seniority to discourage questions"},

		// business context
		{ID: "biz-001", Category: models.CategoryBusinessContext, Pattern: `\b(bulk|large quantity|wholesale|many pieces|full container)\b`, Weight: 15,
			Indicator: "Bulk order bait", Insight: "Unusually large orders are a common supplier scam"},
		{ID: "biz-002", Category: models.CategoryBusinessContext, Pattern: `\b(contract|supply|tender)\b`, Weight: 15,
			Indicator: "Contract or supply offer", Insight: "Unsolicited contract offers often precede fee requests"},
		{ID: "biz-003", Category: models.CategoryBusinessContext, Pattern: `\b(invoice|purchase order|quotation|proforma)\b`, Weight: 8,
			Indicator: "Business paperwork reference", Insight: "Business paperwork is used to appear legitimate"},
		{ID: "biz-004", Category: models.CategoryBusinessContext, Pattern: `\b(pay on delivery|advance payment|free delivery)\b`, Weight: 12,
			Indicator: "Unusual payment terms", Insight: "Payment terms differ from normal trade practice"},

		// geographic context
		{ID: "geo-001", Category: models.CategoryGeographic, Pattern: `\b(dubai|china|usa|uk|abroad|overseas)\b`, Weight: 10,
			Indicator: "Foreign location reference", Insight: "Foreign location makes verification harder"},
		{ID: "geo-002", Category: models.CategoryGeographic, Pattern: `\b(foreign|international|import|export|shipping)\b`, Weight: 8,
			Indicator: "International trade pretext", Insight: "International shipping is a frequent pretext for fees"},

		// language and grammar markers
		{ID: "lang-001", Category: models.CategoryLanguage, Group: GroupFormal, Pattern: `\bhello sir\b|\bdear (sir|madam)\b`, Weight: 5,
			Indicator: "Generic formal salutation"},
		{ID: "lang-002", Category: models.CategoryLanguage, Group: GroupFormal, Pattern: `\bkindly\b`, Weight: 4,
			Indicator: "Scam-typical phrasing: kindly"},
		{ID: "lang-003", Category: models.CategoryLanguage, Group: GroupFormal, Pattern: `\brevert back\b|\bdo the needful\b`, Weight: 4,
			Indicator: "Scam-typical phrasing"},
		{ID: "lang-004", Category: models.CategoryLanguage, Group: GroupInformal, Pattern: `\b(pls|plz|u r|ur)\b`, Weight: 3,
			Indicator: "Informal abbreviations"},
		{ID: "lang-005", Category: models.CategoryLanguage, Group: GroupInformal, Pattern: `\b(abeg|wahala|how far|how you dey|no be small)\b`, Weight: 3,
			Indicator: "Pidgin phrasing"},

		// social engineering
		{ID: "soc-001", Category: models.CategorySocialEngineering, Pattern: `\b(dear|my love|sweet(heart)?|marry|marriage|husband|wife|relationship)\b`, Weight: 8,
			Indicator: "Romance approach", Insight: "Affection is used to build leverage"},
		{ID: "soc-002", Category: models.CategorySocialEngineering, Pattern: `\b(trust me|between us|keep (this|it) (secret|confidential)|don'?t tell)\b`, Weight: 15,
			Indicator: "Secrecy request", Insight: "Requests for secrecy isolate the victim from advice"},
		{ID: "soc-003", Category: models.CategorySocialEngineering, Pattern: `\b(you have won|winner|prize|lottery|congratulations)\b`, Weight: 15,
			Indicator: "Prize or lottery bait", Insight: "Unexpected winnings are a classic advance-fee hook"},
		{ID: "soc-004", Category: models.CategorySocialEngineering, Pattern: `\b(verify your|confirm your|click (here|the link)|update your)\b`, Weight: 12,
			Indicator: "Verification lure", Insight: "Verification requests are used to harvest credentials"},
	}

	rules = append(rules, wordRules(models.CategorySentiment, SentimentTrust,
		"trust", "honest", "genuine", "reliable", "god bless", "faithful", "legit", "sincere", "guarantee(d)?")...)
	rules = append(rules, wordRules(models.CategorySentiment, SentimentPressure,
		"must", "now", "immediately", "final", "warning", "last", "deadline", "penalty", "expire(d|s)?")...)
	rules = append(rules, wordRules(models.CategorySentiment, SentimentEmotional,
		"please", "help", "sick", "hospital", "family", "dying", "suffer(ing)?", "desperate", "children")...)
	rules = append(rules, wordRules(models.CategoryKeywordFrequency, "",
		"urgent", "account", "payment", "transfer", "bank", "money", "verify", "winner", "prize", "fee",
		"government", "contract", "password", "pin", "bitcoin", "deposit", "refund", "loan")...)

	return Definition{
		Version: DefaultVersion,
		Rules:   rules,
		Sentiment: []SentimentList{
			{Name: SentimentTrust, Threshold: 2, Weight: 10, Insight: "Heavy use of trust-building language"},
			{Name: SentimentPressure, Threshold: 2, Weight: 10, Insight: "Sustained pressure language throughout the message"},
			{Name: SentimentEmotional, Threshold: 2, Weight: 10, Insight: "Strong emotional appeal aimed at lowering caution"},
		},
		Frequency: FrequencyPolicy{HighThreshold: 3, HighWeight: 15, LowThreshold: 1, LowWeight: 8},
	}
}

var optionalSuffix = regexp.MustCompile(`\(.*\)\??`)

// wordRules builds one whole-word rule of weight 1 per word
func wordRules(category models.PatternCategory, group string, words ...string) []Rule {
	prefix := strings.ReplaceAll(string(category), "-", "")[:4]
	if group != "" {
		prefix += "-" + group
	}
	rules := make([]Rule, 0, len(words))
	for i, w := range words {
		rules = append(rules, Rule{
			ID:        fmt.Sprintf("%s-%03d", prefix, i+1),
			Category:  category,
			Group:     group,
			Pattern:   `\b` + w + `\b`,
			Weight:    1,
			Indicator: optionalSuffix.ReplaceAllString(w, ""),
		})
	}
	return rules
}

// Default builds the catalog from the built-in definition
func Default() (*Catalog, error) {
	return New(DefaultDefinition())
}
