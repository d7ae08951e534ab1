package pattern

import (
	"regexp"

	"orderparse/internal/domain"
)

var (
	reCustomer = regexp.MustCompile(`(?i)\bcustomer(?:\s+name)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9 \t&.,'\-]*)`)
	// The informal rules must consume the rest of the line, so "ship to our warehouse." is no name.
	reShipToName    = regexp.MustCompile(`(?im)\bship\s+to\b[:\s]*([A-Za-z0-9][A-Za-z0-9 \t,]*?)[ \t\r]*$`)
	reWarehouseName = regexp.MustCompile(`(?im)\b(?:our|your)\s+warehouse[:\s]*([A-Za-z0-9][A-Za-z0-9 \t,]*?)[ \t\r]*$`)
)

// customerFallbackBelow is the confidence under which the informal customer rules may replace
// a labelled match.
const customerFallbackBelow = 0.7

var customerRules = []Rule{
	captureRule("labelled", reCustomer, 0.95, domain.SourceRegex, FirstAccept, nil),
}

var customerFallbackRules = []Rule{
	captureRule("ship-to-name", reShipToName, 0.8, domain.SourceRegexFallback, FirstAccept, nil),
	captureRule("warehouse", reWarehouseName, 0.75, domain.SourceRegexFallback, FirstAccept, nil),
}

// ExtractCustomer applies the labelled customer rule to text.
func ExtractCustomer(text string) domain.ScoredField[string] {
	return Apply(text, customerRules)
}

// customerFallback fills a missing or weak customer from the first "Ship to" line or a
// warehouse reference.
func customerFallback(text string, current domain.ScoredField[string]) domain.ScoredField[string] {
	if current.Value != "" && current.Confidence >= customerFallbackBelow {
		return current
	}
	if f := Apply(text, customerFallbackRules); f.Value != "" {
		return f
	}
	return current
}
