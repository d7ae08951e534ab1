package pattern

import (
	"regexp"
	"strings"

	"orderparse/internal/domain"
)

var (
	reShipToHeader   = regexp.MustCompile(`(?i)\bship\s*to\b\s*:?\s*`)
	reLabelLine      = regexp.MustCompile(`^[A-Za-z]+\s*:`)
	reAddressLine    = regexp.MustCompile(`(?im)\b(?:shipping\s+|delivery\s+)?address\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9 \t,.\-#]*)`)
	reNumberedItem   = regexp.MustCompile(`,\s*\d+\.`)
	reWhitespace     = regexp.MustCompile(`\s+`)
	reTrailingCommas = regexp.MustCompile(`[,\s]+$`)
)

// Lines starting with these end an address block.
var addressStopPrefixes = []string{"Ref #:", "Thanks"}

// Text after any of these markers inside an address belongs to the line items.
var lineItemIndicators = []string{
	"Line Items:", "Items:", "Products:", "Order Details:",
	"Part #", "SKU", "Quantity", "Item #", "Ref #:", "Thanks",
}

var informalAddressPrefixes = []string{"our warehouse", "your warehouse", "ref #", "thanks", "reference"}

// ExtractShippingAddress prefers a multi-line "Ship to:" section and falls back to a single
// "address:" line. customer is used to drop a leading line that only repeats the customer name.
func ExtractShippingAddress(text, customer string) domain.ScoredField[string] {
	if lines, ok := shipToSection(text); ok {
		if len(lines) > 1 && customer != "" && strings.TrimSpace(lines[0]) == customer {
			lines = lines[1:]
		}
		if v := joinAddressLines(lines); v != "" {
			return domain.Scored(v, 0.92, domain.SourceRegex)
		}
	}
	if m := reAddressLine.FindStringSubmatch(text); m != nil {
		if v := joinAddressLines([]string{m[1]}); v != "" {
			return domain.Scored(v, 0.85, domain.SourceRegex)
		}
	}
	return domain.ScoredField[string]{}
}

// shipToSection returns the raw lines following a "Ship to" header up to the next blank
// line or "Label:" line.
func shipToSection(text string) ([]string, bool) {
	loc := reShipToHeader.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	var lines []string
	for i, line := range strings.Split(text[loc[1]:], "\n") {
		line = strings.TrimRight(line, "\r")
		if i > 0 && (strings.TrimSpace(line) == "" || reLabelLine.MatchString(line)) {
			break
		}
		lines = append(lines, line)
	}
	return lines, len(lines) > 0
}

func joinAddressLines(lines []string) string {
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if hasAnyPrefix(line, addressStopPrefixes) {
			break
		}
		if startsUpperOrDigit(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, ", ")
}

// cleanAddress cuts an address at the first line-item marker and drops fragments that do not
// look like address parts.
func cleanAddress(address string) string {
	cutoff := len(address)
	for _, ind := range lineItemIndicators {
		if idx := strings.Index(address, ind); idx > 0 && idx < cutoff {
			cutoff = idx
		}
	}
	if loc := reNumberedItem.FindStringIndex(address); loc != nil && loc[0] < cutoff {
		cutoff = loc[0]
	}
	address = strings.TrimSpace(address[:cutoff])

	var parts []string
	for _, part := range strings.Split(address, ",") {
		part = strings.TrimSpace(part)
		if startsUpperOrDigit(part) {
			parts = append(parts, part)
			continue
		}
		if hasAnyPrefix(strings.ToLower(part), informalAddressPrefixes) {
			break
		}
	}
	return normalizeSpace(strings.Join(parts, ", "))
}

// normalizeSpace collapses whitespace runs and trims trailing commas.
func normalizeSpace(s string) string {
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reTrailingCommas.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func startsUpperOrDigit(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
