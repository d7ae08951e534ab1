package pattern

import (
	"regexp"
	"strings"

	"orderparse/internal/domain"
)

// Rule is one candidate pattern for a text field. Rules for a field are applied in order.
type Rule struct {
	Name string
	// Match returns a candidate for the field, or false if the rule found nothing.
	Match func(text string) (domain.ScoredField[string], bool)
	// Accept decides whether a candidate replaces the current value.
	Accept func(current, candidate domain.ScoredField[string]) bool
	// Final stops the remaining rules once this rule has been accepted.
	Final bool
}

// Apply runs rules in order against text and returns the surviving value.
func Apply(text string, rules []Rule) domain.ScoredField[string] {
	var current domain.ScoredField[string]
	for _, r := range rules {
		candidate, ok := r.Match(text)
		if !ok || !r.Accept(current, candidate) {
			continue
		}
		current = candidate
		if r.Final {
			break
		}
	}
	return current
}

// FirstAccept keeps the first value found.
func FirstAccept(current, _ domain.ScoredField[string]) bool {
	return current.Value == ""
}

// OverrideIfLonger replaces the current value when the candidate captured more text.
func OverrideIfLonger(current, candidate domain.ScoredField[string]) bool {
	return current.Value == "" || len(candidate.Value) > len(current.Value)
}

// OverrideIfStronger replaces the current value when the candidate is more confident.
func OverrideIfStronger(current, candidate domain.ScoredField[string]) bool {
	return current.Value == "" || candidate.Confidence > current.Confidence
}

// captureRule builds a rule from a regexp whose first group is the value.
func captureRule(name string, re *regexp.Regexp, confidence float64, source domain.Source,
	accept func(current, candidate domain.ScoredField[string]) bool, transform func(string) string) Rule {
	return Rule{
		Name:   name,
		Accept: accept,
		Match: func(text string) (domain.ScoredField[string], bool) {
			m := re.FindStringSubmatch(text)
			if m == nil {
				return domain.ScoredField[string]{}, false
			}
			return scoredCapture(m[1], confidence, source, transform)
		},
	}
}

// identifierRule is like captureRule but prefers the first match whose capture contains a
// digit, so headings such as "ORDER CONFIRMATION" do not win over "Order: 5521".
func identifierRule(name string, re *regexp.Regexp, confidence float64, source domain.Source,
	accept func(current, candidate domain.ScoredField[string]) bool, transform func(string) string) Rule {
	return Rule{
		Name:   name,
		Accept: accept,
		Match: func(text string) (domain.ScoredField[string], bool) {
			all := re.FindAllStringSubmatch(text, -1)
			if len(all) == 0 {
				return domain.ScoredField[string]{}, false
			}
			for _, m := range all {
				if strings.ContainsAny(m[1], "0123456789") {
					return scoredCapture(m[1], confidence, source, transform)
				}
			}
			return scoredCapture(all[0][1], confidence, source, transform)
		},
	}
}

func scoredCapture(raw string, confidence float64, source domain.Source, transform func(string) string) (domain.ScoredField[string], bool) {
	v := strings.TrimSpace(raw)
	if transform != nil {
		v = transform(v)
	}
	if v == "" {
		return domain.ScoredField[string]{}, false
	}
	return domain.Scored(v, confidence, source), true
}
