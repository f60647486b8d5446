package fuzzy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed model.schema.json
var modelSchemaJSON string

const modelSchemaURL = "https://fuzzyflock.local/model.schema.json"

var (
	modelSchemaOnce sync.Once
	modelSchema     *jsonschema.Schema
	modelSchemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	modelSchemaOnce.Do(func() {
		modelSchema, modelSchemaErr = jsonschema.CompileString(modelSchemaURL, modelSchemaJSON)
	})
	return modelSchema, modelSchemaErr
}

// ValidateSchema checks the structure of a YAML or JSON model document
// before it is decoded.
func ValidateSchema(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile model schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	// Round-trip through JSON so numbers and maps have the shapes the
	// validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("model schema: %w", err)
	}
	return nil
}
