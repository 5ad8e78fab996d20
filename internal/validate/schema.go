// Package validate compiles JSON schemas and checks raw JSON payloads against them.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile turns a schema expressed as a generic map into a reusable compiled schema.
func Compile(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// MustCompile is Compile for package-level schemas; it panics on error.
func MustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	s, err := Compile(name, schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}

// JSON validates data against a compiled schema.
func JSON(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// JSONAgainstMap compiles schemaMap and validates data in one step.
func JSONAgainstMap(schemaMap map[string]any, data []byte) error {
	schema, err := Compile("schema.json", schemaMap)
	if err != nil {
		return err
	}
	return JSON(schema, data)
}
