package pattern

import (
	"regexp"
	"strconv"
	"strings"

	"orderparse/internal/domain"
)

var (
	rePartRow  = regexp.MustCompile(`(?i)(?:part|item)\s*#([a-zA-Z0-9\-]+)\s*\|\s*(?:qty|quantity)\s*:\s*(\d+)\s*\|\s*(?:unit\s*)?price\s*:\s*\$?(\d+(?:\.\d+)?)`)
	rePipeRow  = regexp.MustCompile(`(?im)^[ \t]*(?:\d+[.)][ \t]*)?([A-Za-z0-9][A-Za-z0-9\-]*)[ \t]*\|[ \t]*(?:qty|quantity)[ \t]*:?[ \t]*(\d+)[ \t]*\|[ \t]*(?:(?:unit[ \t]*)?price[ \t]*:?[ \t]*)?\$?(\d+(?:\.\d+)?)`)
	reLooseRow = regexp.MustCompile(`(?i)(?:sku|item|product)\s*:?\s*([a-zA-Z0-9\-]+).*?(?:qty|quantity)\s*:?\s*(\d+).*?price\s*:?\s*\$?(\d+(?:\.\d+)?)`)
	reInformal = regexp.MustCompile(`(?i)(\d+)[xX]\s+of\s+([A-Z0-9\-]+)\s+@\s+\$?(\d+\.?\d*)`)

	reLineSKU   = regexp.MustCompile(`(?i)(?:sku|part|item)\s*(?:#|number)?[:\s]*([a-zA-Z0-9\-]+)`)
	reLinePart  = regexp.MustCompile(`(?i)(?:part|item)\s*#([a-zA-Z0-9\-]+)`)
	reLineQty   = regexp.MustCompile(`(?i)(?:qty|quantity)[:\s]*(\d+)`)
	reLinePrice = regexp.MustCompile(`(?i)(?:price|cost)[:\s]*\$?(\d+(?:\.\d+)?)`)
)

// A rowPattern captures sku, quantity and price in groups 1-3.
type rowPattern struct {
	re         *regexp.Regexp
	confidence float64
}

// Tiers are tried in order; the first tier that yields any items is used. The line
// assembler only runs when no tier matched, so rows are never counted twice.
var lineItemTiers = [][]rowPattern{
	{{rePartRow, 0.95}, {rePipeRow, 0.95}},
	{{reLooseRow, 0.9}},
}

// ExtractLineItems finds line items using the most specific tier that matches, then
// appends any informal "<N>x of <SKU> @ $<P>" items.
func ExtractLineItems(text string) []domain.LineItem {
	var items []domain.LineItem
	for _, tier := range lineItemTiers {
		for _, p := range tier {
			items = append(items, scanRows(text, p)...)
		}
		if len(items) > 0 {
			break
		}
	}
	if len(items) == 0 {
		items = assembleLines(text)
	}

	for _, m := range reInformal.FindAllStringSubmatch(text, -1) {
		if li, ok := newLineItem(m[2], m[1], m[3], 0.85); ok {
			items = append(items, li)
		}
	}
	return items
}

func scanRows(text string, p rowPattern) []domain.LineItem {
	var items []domain.LineItem
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		if li, ok := newLineItem(m[1], m[2], m[3], p.confidence); ok {
			items = append(items, li)
		}
	}
	return items
}

func newLineItem(sku, qty, price string, confidence float64) (domain.LineItem, bool) {
	q, err := strconv.Atoi(qty)
	if err != nil {
		return domain.LineItem{}, false
	}
	pr, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return domain.LineItem{}, false
	}
	return domain.LineItem{
		SKU:      domain.Scored(strings.TrimSpace(sku), confidence, domain.SourceRegex),
		Quantity: domain.Scored(q, confidence, domain.SourceRegex),
		Price:    domain.Scored(pr, confidence, domain.SourceRegex),
	}, true
}

// assembleLines builds items from sku/qty/price keys spread over consecutive lines. An item
// is emitted once all three keys are seen, or when a line without any key closes an item that
// already has a sku.
func assembleLines(text string) []domain.LineItem {
	var (
		items   []domain.LineItem
		current *domain.LineItem
	)
	flush := func() {
		if current != nil && current.SKU.Value != "" {
			current.FillDefaults()
			items = append(items, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		part := reLinePart.FindStringSubmatch(line)
		sku := reLineSKU.FindStringSubmatch(line)
		qty := reLineQty.FindStringSubmatch(line)
		price := reLinePrice.FindStringSubmatch(line)

		if part == nil && sku == nil && qty == nil && price == nil {
			flush()
			continue
		}
		if current == nil {
			current = &domain.LineItem{}
		}
		if current.SKU.IsEmpty() {
			switch {
			case sku != nil:
				current.SKU = domain.Scored(sku[1], 0.8, domain.SourceRegex)
			case part != nil:
				current.SKU = domain.Scored(part[1], 0.9, domain.SourceRegex)
			}
		}
		if qty != nil && current.Quantity.IsEmpty() {
			if q, err := strconv.Atoi(qty[1]); err == nil {
				current.Quantity = domain.Scored(q, 0.8, domain.SourceRegex)
			}
		}
		if price != nil && current.Price.IsEmpty() {
			if p, err := strconv.ParseFloat(price[1], 64); err == nil {
				current.Price = domain.Scored(p, 0.8, domain.SourceRegex)
			}
		}
		if !current.SKU.IsEmpty() && !current.Quantity.IsEmpty() && !current.Price.IsEmpty() {
			items = append(items, *current)
			current = nil
		}
	}
	flush()
	return items
}
