package parser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-sommer/stick"
)

// OrderSystemPrompt is the system message sent with every order extraction request.
const OrderSystemPrompt = `You extract structured purchase order data from plain text. You answer with a single JSON object and nothing else.`

var promptEnv = sync.OnceValue(func() *stick.Env { return stick.New(nil) })

// BuildOrderPrompt renders the user message for extracting an order from documentText.
func BuildOrderPrompt(documentText string) (string, error) {
	var out strings.Builder
	ctx := map[string]stick.Value{
		"document": documentText,
	}
	if err := promptEnv().Execute(orderPromptTemplate, &out, ctx); err != nil {
		return "", fmt.Errorf("render order prompt: %w", err)
	}
	return out.String(), nil
}

const orderPromptTemplate = `Read the order document at the end of this message and extract the order into this JSON structure:

{
  "order_id": "",
  "customer": "",
  "shipping_address": "",
  "line_items": [
    {"sku": "", "quantity": 0, "price": 0.0}
  ]
}

Field rules:
- order_id is the purchase order or order number exactly as printed (for example "PO-4471" or "SO-20931").
- customer is the ordering company or person, not the seller and not a street.
- shipping_address is the delivery address on one line, its parts joined with ", ". Do not include section headers such as "Ship to:", sign-offs such as "Thanks", or reference numbers.
- Every address part starts with a capital letter or a digit.
- line_items holds one entry per ordered product. quantity is an integer and price is the unit price as a number without currency symbols.

SKU rules:
- A SKU looks like a product code: letters and digits, usually with a hyphen (for example "AXL-9920", "BRK40", "VLV-20A").
- Never use generic words or fragments as a SKU: single letters, one or two digit numbers, "x", "s", "item", "product", "part", "sku", "qty".
- Skip a line item when you cannot find a real SKU for it.

Use "" for a text field you cannot find and [] when there are no line items. Return only the JSON object, without markdown fences or commentary.

Example document:
PURCHASE ORDER
Order number: SO-20931
Ship to:
Northwind Traders
48 Harbour Road
Unit 7
Portland, OR 97205

1. VLV-20A | Qty: 12 | $8.40 each
2. BRK40 | Qty: 3 | $112.00 each

Thanks, Ref #: 5521

Example answer:
{"order_id": "SO-20931", "customer": "Northwind Traders", "shipping_address": "48 Harbour Road, Unit 7, Portland, OR 97205", "line_items": [{"sku": "VLV-20A", "quantity": 12, "price": 8.4}, {"sku": "BRK40", "quantity": 3, "price": 112.0}]}

Document:
{{ document }}
`
