package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// orderReplySchema describes what an order completion may contain. Numbers are accepted as
// strings too because models often echo "$12.50" or "5".
const orderReplySchema = `{
  "type": "object",
  "properties": {
    "order_id": {"type": ["string", "null"]},
    "customer": {"type": ["string", "null"]},
    "shipping_address": {"type": ["string", "null"]},
    "line_items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "sku": {"type": ["string", "null"]},
          "quantity": {"type": ["integer", "number", "string", "null"]},
          "price": {"type": ["number", "string", "null"]}
        }
      }
    }
  }
}`

var compileOrderSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("order.json", strings.NewReader(orderReplySchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("order.json")
})

// ValidateOrderReply checks that data is a JSON object shaped like an order reply.
func ValidateOrderReply(data []byte) error {
	schema, err := compileOrderSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal reply: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("reply does not match schema: %w", err)
	}
	return nil
}
