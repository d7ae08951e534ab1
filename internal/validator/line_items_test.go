package validator_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/domain"
	"orderparse/internal/validator"
)

func item(sku string, qty int, price, confidence float64) domain.LineItem {
	return domain.LineItem{
		SKU:      domain.Scored(sku, confidence, domain.SourceRegex),
		Quantity: domain.Scored(qty, confidence, domain.SourceRegex),
		Price:    domain.Scored(price, confidence, domain.SourceRegex),
	}
}

func TestValidSKU_PrimaryShapeAlwaysAccepted(t *testing.T) {
	letters := []string{"AB", "axl", "Htp", "ZZZZZ", "qRsTuV"}
	digits := []string{"00", "12", "9920", "123456", "0001"}
	for _, l := range letters {
		for _, d := range digits {
			sku := l + "-" + d
			assert.Equal(t, "letters-hyphen-digits", validator.MatchSKUShape(sku), sku)
		}
	}
	for n := 2; n <= 8; n++ {
		sku := strings.Repeat("Q", n) + "-" + fmt.Sprintf("%0*d", n, n)
		assert.True(t, validator.ValidSKU(sku), sku)
	}
}

func TestValidSKU_BannedRejected(t *testing.T) {
	for _, sku := range []string{"s", "S", "x", "X", "0", "1", "2", "12", "123"} {
		assert.False(t, validator.ValidSKU(sku), sku)
	}
}

func TestMatchSKUShape(t *testing.T) {
	tests := []struct {
		sku  string
		want string
	}{
		{"AXL-9920", "letters-hyphen-digits"},
		{"AXL9920", "letters-digits"},
		{"ABC-X10", "letters-hyphen-alnum"},
		{"LMN-300X", "letters-hyphen-alnum"},
		{"Widget", "lenient"},
		{"AB", ""},
		{"7", ""},
		{"99", ""},
		{"123-456", ""},
		{"1ABC", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.sku, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.MatchSKUShape(tt.sku))
		})
	}
}

func TestValidateLineItems_DedupKeepsHigherConfidence(t *testing.T) {
	items := []domain.LineItem{
		item("HTP-2000", 5, 125, 0.8),
		item("HTP-2000", 5, 125, 0.95),
	}

	out := validator.ValidateLineItems(items)

	require.Len(t, out, 1)
	assert.Equal(t, 0.95, out[0].SKU.Confidence)
}

func TestValidateLineItems_DedupOrderIndependent(t *testing.T) {
	a := []domain.LineItem{item("HTP-2000", 5, 125, 0.95), item("HTP-2000", 5, 125, 0.8)}
	b := []domain.LineItem{item("HTP-2000", 5, 125, 0.8), item("HTP-2000", 5, 125, 0.95)}

	assert.Equal(t, validator.ValidateLineItems(a), validator.ValidateLineItems(b))
}

func TestValidateLineItems_DifferentKeysKept(t *testing.T) {
	items := []domain.LineItem{
		item("HTP-2000", 5, 125, 0.9),
		item("HTP-2000", 6, 125, 0.9),
		item("HTP-2000", 5, 120, 0.9),
	}

	assert.Len(t, validator.ValidateLineItems(items), 3)
}

func TestValidateLineItems_FiltersJunk(t *testing.T) {
	items := []domain.LineItem{
		item("s", 5, 0, 0.8),
		item("12", 1, 0, 0.8),
		item("LMN-300X", 2, 45.5, 0.95),
	}

	out := validator.ValidateLineItems(items)

	require.Len(t, out, 1)
	assert.Equal(t, "LMN-300X", out[0].SKU.Value)
}

func TestValidateLineItems_Empty(t *testing.T) {
	assert.Empty(t, validator.ValidateLineItems(nil))
}
