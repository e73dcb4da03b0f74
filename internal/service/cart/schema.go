package cart

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchemaURL = "https://storefront.local/schemas/cart.schema.json"

// documentSchema describes the items of a posted cart document. Identifier
// and items presence are checked before the schema so each gets its own error.
const documentSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "string"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["productId", "variantId", "quantity"],
        "properties": {
          "productId": {"type": "integer"},
          "variantId": {"type": "integer"},
          "quantity": {"type": "integer", "minimum": 1},
          "product": {"type": ["object", "null"]},
          "variant": {
            "type": ["object", "null"],
            "properties": {
              "price": {"type": ["string", "number", "null"]}
            }
          },
          "addedAt": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

func compileDocumentSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(documentSchemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("cart schema load failed: %w", err)
	}
	compiled, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("cart schema compile failed: %w", err)
	}
	return compiled, nil
}
