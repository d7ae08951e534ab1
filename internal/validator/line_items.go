package validator

import (
	"regexp"
	"unicode"

	"orderparse/internal/domain"
)

// bannedSKUs are fragments the extractors are known to produce from labels and list markers.
var bannedSKUs = map[string]struct{}{
	"s": {}, "S": {}, "x": {}, "X": {}, "0": {}, "1": {}, "2": {}, "12": {}, "123": {},
}

var reTrivialSKU = regexp.MustCompile(`^[a-zA-Z]$|^\d{1,2}$`)

// SKUShape is one accepted SKU form.
type SKUShape struct {
	Name  string
	Match func(sku string) bool
}

func regexShape(name, expr string) SKUShape {
	re := regexp.MustCompile(expr)
	return SKUShape{Name: name, Match: re.MatchString}
}

// SKUShapes are tried in order; the first match accepts the SKU.
var SKUShapes = []SKUShape{
	regexShape("letters-hyphen-digits", `^[A-Za-z]{2,}-\d{2,}$`),
	regexShape("letters-digits", `^[A-Za-z]{2,}\d{2,}$`),
	regexShape("letters-hyphen-alnum", `^[A-Za-z]{3,}-[A-Za-z0-9]{3,}$`),
	{
		Name: "lenient",
		Match: func(sku string) bool {
			r := []rune(sku)
			return len(r) >= 4 && unicode.IsLetter(r[0])
		},
	},
}

// MatchSKUShape returns the name of the shape that accepts sku, or "" if it is rejected.
func MatchSKUShape(sku string) string {
	if _, banned := bannedSKUs[sku]; banned {
		return ""
	}
	if len([]rune(sku)) < 3 || reTrivialSKU.MatchString(sku) {
		return ""
	}
	for _, s := range SKUShapes {
		if s.Match(sku) {
			return s.Name
		}
	}
	return ""
}

// ValidSKU reports whether sku has an accepted shape.
func ValidSKU(sku string) bool {
	return MatchSKUShape(sku) != ""
}

type lineItemKey struct {
	sku      string
	quantity int
	price    float64
}

// ValidateLineItems drops items whose SKU is not an accepted shape and collapses items sharing
// (sku, quantity, price), keeping the one with the higher SKU confidence. Surviving items keep
// the position of the first item with their key.
func ValidateLineItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	index := make(map[lineItemKey]int, len(items))
	for _, li := range items {
		if !ValidSKU(li.SKU.Value) {
			continue
		}
		k := lineItemKey{li.SKU.Value, li.Quantity.Value, li.Price.Value}
		if i, seen := index[k]; seen {
			if li.SKU.Confidence > out[i].SKU.Confidence {
				out[i] = li
			}
			continue
		}
		index[k] = len(out)
		out = append(out, li)
	}
	return out
}
