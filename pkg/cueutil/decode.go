// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds manifest files; anything larger is not a
// hand-written manifest.
const DefaultMaxFileSize int64 = 1 << 20

// DecodeToMap validates data against the definition (e.g. "#Config") of the
// given schema and decodes the unified value to a map.
//
// Validation is non-concrete: optional fields may be left out, so the map
// only holds what the user wrote.
func DecodeToMap(schema string, data []byte, definition, filename string) (map[string]any, error) {
	if err := CheckFileSize(data, DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, newSchemaError(userValue.Err(), filename)
	}

	def := schemaValue.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return nil, fmt.Errorf("internal error: schema has no %s definition", definition)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, newSchemaError(err, filename)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, newSchemaError(err, filename)
	}
	return out, nil
}

// ValidateMap validates an already-decoded document (e.g. a TOML manifest)
// against the same schema definition DecodeToMap uses, and returns the
// unified map.
func ValidateMap(schema string, doc map[string]any, definition, filename string) (map[string]any, error) {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	def := schemaValue.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return nil, fmt.Errorf("internal error: schema has no %s definition", definition)
	}

	userValue := ctx.Encode(doc)
	if userValue.Err() != nil {
		return nil, newSchemaError(userValue.Err(), filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, newSchemaError(err, filename)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, newSchemaError(err, filename)
	}
	return out, nil
}
