package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"inventory-reconciler/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// ReportSchema returns the JSON Schema of the report written by --format json.
func ReportSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(decimal.Decimal{}) {
				return &jsonschema.Schema{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?$`}
			}
			return nil
		},
	}
	var r core.Report
	return reflector.Reflect(r)
}

// WriteSchema writes ReportSchema as indented JSON.
func WriteSchema(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ReportSchema()); err != nil {
		return fmt.Errorf("failed to encode report schema: %w", err)
	}
	return nil
}
