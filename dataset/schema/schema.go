// Package schema publishes JSON Schemas for the export files instascribe accepts.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Generate reflects T into a JSON Schema document. Fields tagged `jsonschema:"required"` are
// listed as required; everything else is optional and unknown fields are allowed, since
// exports carry many fields the pipeline ignores.
func Generate[T any](title, description string) map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Title = title
	schema.Description = description

	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	dropEmptyRequired(schemaObj)
	return schemaObj
}

// MarshalIndent renders a generated schema for printing.
func MarshalIndent(schemaObj map[string]interface{}) ([]byte, error) {
	b, err := json.MarshalIndent(schemaObj, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

const (
	propertiesKey = "properties"
	requiredKey   = "required"
	itemsKey      = "items"
)

func dropEmptyRequired(schema map[string]interface{}) {
	if req, ok := schema[requiredKey].([]interface{}); ok && len(req) == 0 {
		delete(schema, requiredKey)
	}

	if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				dropEmptyRequired(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]interface{}); ok {
		dropEmptyRequired(items)
	}
}
