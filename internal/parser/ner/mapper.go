package ner

import (
	"regexp"
	"strconv"
	"strings"

	"orderparse/internal/domain"
)

var (
	reMiscOrderID = regexp.MustCompile(`order\s*(?:id|number)?\s*[:#]?\s*([a-z0-9\-]+)`)
	reSKULike     = regexp.MustCompile(`[A-Z0-9]{3,}`)
	reFirstNumber = regexp.MustCompile(`(\d+)`)
	reMoney       = regexp.MustCompile(`[$£€]?\s*(\d+(?:\.\d{1,2})?)`)
)

// miscOrderIDFactor discounts an order id recovered from inside a MISC entity.
const miscOrderIDFactor = 0.9

// Mapper assigns grouped entities to order fields.
type Mapper struct{}

// NewMapper creates a Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map walks entities in order. Customer and order id keep their first value, LOC entities are
// concatenated into the address, and product/quantity/money entities drive a small line item
// assembler in which a money entity closes the open item.
func (m *Mapper) Map(entities []domain.Entity) *domain.StructuredOrder {
	order := &domain.StructuredOrder{}
	var current *domain.LineItem

	for _, e := range entities {
		text := strings.TrimSpace(e.Text)
		switch {
		case e.Type == domain.EntityPerson || e.Type == domain.EntityOrg:
			if order.Customer.Value == "" {
				order.Customer = domain.Scored(text, e.Confidence, domain.SourceNER)
			}

		case e.Type == domain.EntityMisc && strings.Contains(strings.ToLower(text), "order"):
			if order.OrderID.Value != "" {
				continue
			}
			if mm := reMiscOrderID.FindStringSubmatch(strings.ToLower(text)); mm != nil {
				order.OrderID = domain.Scored(strings.ToUpper(mm[1]), e.Confidence*miscOrderIDFactor, domain.SourceNERRegex)
			}

		case e.Type == domain.EntityLocation:
			appendAddress(&order.ShippingAddress, text, e.Confidence)

		case e.Type == domain.EntityProduct || (e.Type == domain.EntityMisc && reSKULike.MatchString(text)):
			if current != nil && !current.Quantity.IsEmpty() {
				current.FillDefaults()
				order.LineItems = append(order.LineItems, *current)
			}
			current = &domain.LineItem{SKU: domain.Scored(text, e.Confidence, domain.SourceNER)}

		case e.Type == domain.EntityCardinal || e.Type == domain.EntityQuantity:
			if current == nil {
				continue
			}
			if mm := reFirstNumber.FindStringSubmatch(text); mm != nil {
				if q, err := strconv.Atoi(mm[1]); err == nil {
					current.Quantity = domain.Scored(q, e.Confidence, domain.SourceNER)
				}
			}

		case e.Type == domain.EntityMoney || e.Type == domain.EntityPrice:
			if current == nil {
				continue
			}
			if mm := reMoney.FindStringSubmatch(text); mm != nil {
				if p, err := strconv.ParseFloat(mm[1], 64); err == nil {
					current.Price = domain.Scored(p, e.Confidence, domain.SourceNER)
					current.FillDefaults()
					order.LineItems = append(order.LineItems, *current)
					current = nil
				}
			}
		}
	}

	if current != nil {
		current.FillDefaults()
		order.LineItems = append(order.LineItems, *current)
	}
	return order
}

// appendAddress concatenates a LOC entity and keeps a running average of the confidences.
func appendAddress(f *domain.ScoredField[string], text string, confidence float64) {
	if f.Value == "" {
		*f = domain.Scored(text, confidence, domain.SourceNER)
		return
	}
	f.Value += ", " + text
	f.Confidence = (f.Confidence + confidence) / 2
}
