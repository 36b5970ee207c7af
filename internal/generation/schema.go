package generation

import (
	"encoding/json"
	"fmt"
	"sync"

	"vjezbajmo/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

type schema struct {
	Name       string
	Definition map[string]any
}

var answerList = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items":    map[string]any{"type": "string", "minLength": 1},
}

var paragraphSchema = &schema{
	Name: "croatian-paragraph-exercise",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":     map[string]any{"type": "string"},
			"paragraph": map[string]any{"type": "string", "description": "Text with numbered blanks written as ___1___, ___2___, ..."},
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"blankNumber":   map[string]any{"type": "integer", "minimum": 1},
						"baseForm":      map[string]any{"type": "string"},
						"correctAnswer": answerList,
						"explanation":   map[string]any{"type": "string"},
						"isPlural":      map[string]any{"type": "boolean"},
					},
					"required":             []any{"blankNumber", "baseForm", "correctAnswer", "explanation", "isPlural"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "paragraph", "questions"},
		"additionalProperties": false,
	},
}

var sentenceSchema = &schema{
	Name: "croatian-sentence-exercise",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"exercises": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":          map[string]any{"type": "string"},
						"correctAnswer": answerList,
						"explanation":   map[string]any{"type": "string"},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctChoice": map[string]any{"type": "string", "enum": []any{"", model.AspectImperfective, model.AspectPerfective}},
					},
					"required":             []any{"text", "correctAnswer", "explanation", "options", "correctChoice"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "exercises"},
		"additionalProperties": false,
	},
}

func schemaFor(shape model.ExerciseShape) *schema {
	if shape == model.ShapeParagraph {
		return paragraphSchema
	}
	return sentenceSchema
}

// compiled schemas by name
var schemaCache sync.Map

func compiledSchema(s *schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded JSON value, not Go maps with typed slices.
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(defBytes, &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	schemaCache.Store(s.Name, compiled)
	return compiled, nil
}

// validateContent checks raw model output against s.
func validateContent(s *schema, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	compiled, err := compiledSchema(s)
	if err != nil {
		return fmt.Errorf("schema %q: %w", s.Name, err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
