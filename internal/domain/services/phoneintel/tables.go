package phoneintel

import "strings"

type callingCode struct {
	prefix string
	region string
}

// longest prefixes first so +234 wins over +2x
var callingCodes = []callingCode{
	{"+971", "AE"},
	{"+966", "SA"},
	{"+234", "NG"},
	{"+233", "GH"},
	{"+44", "GB"},
	{"+91", "IN"},
	{"+86", "CN"},
	{"+49", "DE"},
	{"+33", "FR"},
	{"+81", "JP"},
	{"+82", "KR"},
	{"+61", "AU"},
	{"+55", "BR"},
	{"+52", "MX"},
	{"+1", "US"},
	{"+7", "RU"},
}

var countryNames = map[string]string{
	"AE": "United Arab Emirates",
	"SA": "Saudi Arabia",
	"NG": "Nigeria",
	"GH": "Ghana",
	"GB": "United Kingdom",
	"IN": "India",
	"CN": "China",
	"DE": "Germany",
	"FR": "France",
	"JP": "Japan",
	"KR": "South Korea",
	"AU": "Australia",
	"BR": "Brazil",
	"MX": "Mexico",
	"US": "United States",
	"CA": "Canada",
	"RU": "Russia",
}

func lookupCallingCode(normalized string) (callingCode, bool) {
	if !strings.HasPrefix(normalized, "+") {
		return callingCode{}, false
	}
	for _, c := range callingCodes {
		if strings.HasPrefix(normalized, c.prefix) {
			return c, true
		}
	}
	return callingCode{}, false
}

func countryName(region string) string {
	if name, ok := countryNames[region]; ok {
		return name
	}
	return region
}

var nigerianCarriers = map[string]string{
	"0803": "MTN", "0806": "MTN", "0703": "MTN", "0706": "MTN", "0813": "MTN",
	"0816": "MTN", "0810": "MTN", "0814": "MTN", "0903": "MTN", "0906": "MTN",

	"0802": "Airtel", "0808": "Airtel", "0708": "Airtel", "0812": "Airtel",
	"0907": "Airtel", "0902": "Airtel",

	"0805": "Glo", "0807": "Glo", "0705": "Glo", "0815": "Glo", "0811": "Glo", "0905": "Glo",

	"0809": "9mobile", "0818": "9mobile", "0817": "9mobile", "0909": "9mobile", "0908": "9mobile",
}

// guessNigerianCarrier maps a national-format number (0803...) to its network
func guessNigerianCarrier(national string) string {
	if len(national) < 4 {
		return "Unknown"
	}
	if c, ok := nigerianCarriers[national[:4]]; ok {
		return c
	}
	return "Unknown"
}
