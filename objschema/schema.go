package objschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind is the closed set of field types a target schema may use.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "integer"
	KindFloat  Kind = "number"
	KindBool   Kind = "boolean"
	KindObject Kind = "object"
	KindArray  Kind = "array"
)

// Field is one named member of an object schema.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	Object   *Schema // child schema when Kind is KindObject
	Elem     *Field  // element shape when Kind is KindArray (Name ignored)
}

// Schema is a structural description of a target object: the fields it must
// have, their types, and their optionality. It intentionally carries no
// domain meaning; callers hand it to the pipeline as an opaque target shape.
type Schema struct {
	Name   string
	Fields []Field

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
}

// Issue is a single schema violation, recorded for audit logging.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// defaultPrinter formats validator error messages.
var defaultPrinter = message.NewPrinter(language.English)

// New creates a Schema with the given name and fields.
func New(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// JSONSchema renders the structural description as a draft 2020-12 JSON
// Schema document. The rendering is deterministic for a given Schema.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		props[f.Name] = f.jsonSchema()
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func (f Field) jsonSchema() map[string]any {
	switch f.Kind {
	case KindObject:
		if f.Object != nil {
			return f.Object.JSONSchema()
		}
		return map[string]any{"type": "object"}
	case KindArray:
		items := map[string]any{}
		if f.Elem != nil {
			items = f.Elem.jsonSchema()
		}
		return map[string]any{"type": "array", "items": items}
	default:
		return map[string]any{"type": string(f.Kind)}
	}
}

// Compile builds the validator once. Subsequent calls are free.
func (s *Schema) Compile() error {
	s.compileOnce.Do(func() {
		// Round-trip through JSON so the compiler sees plain decoded types.
		raw, err := json.Marshal(s.JSONSchema())
		if err != nil {
			s.compileErr = fmt.Errorf("serialize schema %q: %w", s.Name, err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.compileErr = fmt.Errorf("parse schema %q: %w", s.Name, err)
			return
		}

		name := s.Name
		if name == "" {
			name = "target"
		}
		resource := name + ".schema.json"

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(resource, doc); err != nil {
			s.compileErr = fmt.Errorf("add schema resource %q: %w", resource, err)
			return
		}
		s.compiled, s.compileErr = compiler.Compile(resource)
	})
	return s.compileErr
}

// Validate checks a candidate value against the schema and returns every
// violation found. A nil slice means the value conforms.
func (s *Schema) Validate(v any) []Issue {
	if err := s.Compile(); err != nil {
		return []Issue{{Path: "/", Message: err.Error()}}
	}

	err := s.compiled.Validate(v)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Issue{{Path: "/", Message: err.Error()}}
	}
	var issues []Issue
	collectIssues(ve, &issues)
	return issues
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*issues = append(*issues, Issue{
			Path:    loc,
			Message: ve.ErrorKind.LocalizedString(defaultPrinter),
		})
		return
	}
	for _, c := range ve.Causes {
		collectIssues(c, issues)
	}
}
