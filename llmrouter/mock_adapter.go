package llmrouter

import (
	"context"
	"encoding/json"
	"sort"
)

// MockAdapter is a deterministic in-process adapter. The "mock" model
// resolves to it so route code and e2e harnesses can exercise the full
// pipeline without network calls or credentials.
//
// Given a json_schema response format it emits a canned object with one
// sample value per schema property; otherwise it echoes a fixed string.
type MockAdapter struct{}

// NewMockAdapter creates a MockAdapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// Name returns the provider identifier.
func (m *MockAdapter) Name() string { return "mock" }

// Complete returns a deterministic canned response. The same request always
// produces the same text.
func (m *MockAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderTimeoutError{
			PipelineError: PipelineError{Message: "generation deadline exceeded", Cause: err},
			ModelID:       req.Model,
		}
	}

	text := `{"ok": true}`
	if rf := req.ResponseFormat; rf != nil && rf.JSONSchema != nil {
		sample := sampleFromSchema(rf.JSONSchema)
		if raw, err := json.Marshal(sample); err == nil {
			text = string(raw)
		}
	}

	return &Response{
		ID:       "mock_resp",
		Model:    MockModelID,
		Provider: "mock",
		Text:     text,
		Usage:    Usage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2},
	}, nil
}

// sampleFromSchema builds a canned instance of a JSON Schema object. Keys are
// visited in sorted order so output is stable across runs.
func sampleFromSchema(schema map[string]any) any {
	typ, _ := schema["type"].(string)
	switch typ {
	case "object":
		props, _ := schema["properties"].(map[string]any)
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(map[string]any, len(keys))
		for _, k := range keys {
			child, _ := props[k].(map[string]any)
			obj[k] = sampleFromSchema(child)
		}
		return obj
	case "array":
		items, _ := schema["items"].(map[string]any)
		return []any{sampleFromSchema(items)}
	case "string":
		return "sample"
	case "integer":
		return 1
	case "number":
		return 1.0
	case "boolean":
		return true
	default:
		return nil
	}
}
