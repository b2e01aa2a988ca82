package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID identifies the published record schema.
const SchemaID = "https://modsuite.dev/schemas/ams-manifest-0.1.json"

// JSONSchema returns the JSON Schema describing Record, indented for display.
func JSONSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(&Record{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "AMS provenance manifest"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest schema: %w", err)
	}
	return data, nil
}
