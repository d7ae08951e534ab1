package pattern

import (
	"regexp"
	"strings"

	"orderparse/internal/domain"
)

var (
	reOrderPODirect  = regexp.MustCompile(`(?i)order\s*(?:id|number|#)?\s*[:#\s]\s*(PO-\d+)`)
	reOrderGeneral   = regexp.MustCompile(`(?i)\border\s*(?:id|number|#)?\s*[:#]?\s*([a-zA-Z0-9\-_]+)`)
	reOrderAlternate = regexp.MustCompile(`(?i)\b(?:PO|order)[\s\-]*(?:id|number|#)?[\s:#]*([a-zA-Z0-9\-_]+)`)

	// Tried in order when the primary rules produced nothing usable.
	orderIDFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\border\s*ID[:\s]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)\bPO\s*(?:ID|Number|#)?[:\s]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)\b(?:order|purchase)\s*(?:number|#)[:\s]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)\b(?:order|PO)[:\s]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)\b(?:order|PO)[:\s#]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)(?:^|[^a-zA-Z])(?:PO|order)[:\s\-]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)(?:^|\n)(?:PO|order)[:\s\-#]*([A-Za-z0-9\-]+)`),
		regexp.MustCompile(`(?i)\bref\s*#[:\s]*([A-Z0-9\-]+)`),
	}
)

// orderIDPlaceholder is what the general rule captures from headings like "ORDER CONFIRMATION".
const orderIDPlaceholder = "ORDER"

var orderIDRules = []Rule{
	func() Rule {
		r := captureRule("po-direct", reOrderPODirect, 0.99, domain.SourceRegex, FirstAccept, strings.ToUpper)
		r.Final = true
		return r
	}(),
	identifierRule("general", reOrderGeneral, 0.95, domain.SourceRegex, FirstAccept, strings.ToUpper),
	identifierRule("alternate", reOrderAlternate, 0.98, domain.SourceRegex, OverrideIfLonger, strings.ToUpper),
	{
		Name:  "fallback",
		Match: matchOrderIDFallback,
		Accept: func(current, _ domain.ScoredField[string]) bool {
			return current.Value == "" || current.Value == orderIDPlaceholder
		},
	},
}

func matchOrderIDFallback(text string) (domain.ScoredField[string], bool) {
	for _, re := range orderIDFallbacks {
		if m := re.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return domain.Scored(v, 0.9, domain.SourceRegexFallback), true
			}
		}
	}
	return domain.ScoredField[string]{}, false
}

// ExtractOrderID applies the order id rules to text.
func ExtractOrderID(text string) domain.ScoredField[string] {
	return Apply(text, orderIDRules)
}
