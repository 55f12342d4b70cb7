package offers

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bareCodeRe     = regexp.MustCompile(`^[A-Za-z]{3}$`)
	embeddedCodeRe = regexp.MustCompile(`\b[A-Z]{3}\b`)

	// Metropolitan/airport codes for the routes we actually see in requests.
	cityCodes = map[string]string{
		"sao paulo":      "SAO",
		"rio de janeiro": "RIO",
		"rio":            "RIO",
		"brasilia":       "BSB",
		"belo horizonte": "BHZ",
		"salvador":       "SSA",
		"recife":         "REC",
		"fortaleza":      "FOR",
		"porto alegre":   "POA",
		"curitiba":       "CWB",
		"manaus":         "MAO",
		"belem":          "BEL",
		"florianopolis":  "FLN",
		"goiania":        "GYN",
		"natal":          "NAT",
		"vitoria":        "VIX",
		"campinas":       "VCP",
		"foz do iguacu":  "IGU",
		"new york":       "NYC",
		"nova york":      "NYC",
		"london":         "LON",
		"londres":        "LON",
		"paris":          "PAR",
		"miami":          "MIA",
		"orlando":        "MCO",
		"lisbon":         "LIS",
		"lisboa":         "LIS",
		"porto":          "OPO",
		"madrid":         "MAD",
		"barcelona":      "BCN",
		"rome":           "ROM",
		"roma":           "ROM",
		"amsterdam":      "AMS",
		"frankfurt":      "FRA",
		"buenos aires":   "BUE",
		"santiago":       "SCL",
		"montevideo":     "MVD",
		"bogota":         "BOG",
		"lima":           "LIM",
		"mexico city":    "MEX",
		"cidade do mexico": "MEX",
		"toronto":        "YTO",
		"tokyo":          "TYO",
		"dubai":          "DXB",
	}

	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// ResolveCityCode maps a free-text location to a 3-letter location code.
// It never fails: unknown names fall back to the first three letters
// uppercased, so callers always get a 3-character code to send upstream.
func ResolveCityCode(name string) string {
	trimmed := strings.TrimSpace(name)
	if bareCodeRe.MatchString(trimmed) {
		return strings.ToUpper(trimmed)
	}

	plain := trimmed
	if folded, _, err := transform.String(stripAccents, trimmed); err == nil {
		plain = folded
	}

	if code, ok := cityCodes[strings.ToLower(plain)]; ok {
		return code
	}

	if code := embeddedCodeRe.FindString(trimmed); code != "" {
		return code
	}

	return firstThreeUpper(plain)
}

func firstThreeUpper(s string) string {
	letters := make([]rune, 0, 3)
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 3 {
				break
			}
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}
