package genpipe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lessonforge/coursegen/llmrouter"
	"github.com/lessonforge/coursegen/objschema"
)

// repackSystemPrompt instructs the repack model. The malformed output and
// the schema travel in the user message.
const repackSystemPrompt = "You fix malformed JSON. You receive a JSON schema and a model response " +
	"that failed validation against it. Re-emit the response as valid JSON conforming " +
	"exactly to the schema. Preserve the original content; do not invent new values. " +
	"Respond ONLY with the JSON object, no other text."

// Repacker runs Layer 2: it sends the primary model's raw text together with
// the target schema to a cheap model and validates the re-emitted JSON with
// the same unwrap and coercion logic as Layer 1. It never recurses into a
// second repack.
type Repacker struct {
	retry     llmrouter.RetryPolicy
	maxTokens *int
}

// NewRepacker creates a Repacker. A zero retry policy falls back to the
// default policy.
func NewRepacker(retry llmrouter.RetryPolicy, maxTokens *int) *Repacker {
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = llmrouter.DefaultRetryPolicy()
	}
	return &Repacker{retry: retry, maxTokens: maxTokens}
}

// Repack asks the cheap model to re-emit rawText as schema-conforming JSON.
// The returned issues cover whatever the validation of the repacked value
// found; on success they are the applied coercions.
func (r *Repacker) Repack(ctx context.Context, handle *llmrouter.ModelHandle, rawText string, schema *objschema.Schema) (map[string]any, []objschema.Issue, error) {
	schemaJSON, err := json.MarshalIndent(schema.JSONSchema(), "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("serialize target schema: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"JSON schema:\n```json\n%s\n```\n\nMalformed response:\n```\n%s\n```",
		string(schemaJSON), rawText,
	)

	req := llmrouter.Request{
		Model: handle.Info.ID,
		Messages: []llmrouter.Message{
			llmrouter.SystemMessage(repackSystemPrompt),
			llmrouter.UserMessage(userPrompt),
		},
		ResponseFormat: &llmrouter.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: schema.JSONSchema(),
			Strict:     true,
		},
		MaxTokens: r.maxTokens,
	}

	resp, err := llmrouter.Retry(ctx, r.retry, func(ctx context.Context) (*llmrouter.Response, error) {
		return handle.Adapter.Complete(ctx, req)
	})
	if err != nil {
		return nil, nil, err
	}

	// Same treatment as Layer 1, but no further repack on failure.
	text := resp.Text
	obj, parsed := parseObject(text)
	if !parsed {
		if repaired, changed := RepairText(text); changed {
			obj, parsed = parseObject(repaired)
		}
	}
	if !parsed {
		return nil, nil, &llmrouter.NoStructuredOutputError{
			PipelineError: llmrouter.PipelineError{Message: "repack response is not a JSON object"},
			ModelID:       handle.Info.ID,
			RawText:       text,
		}
	}

	unwrapped, _, _ := Unwrap(obj)
	if issues := schema.Validate(unwrapped); len(issues) == 0 {
		result, _ := unwrapped.(map[string]any)
		return result, nil, nil
	}
	coerced, issues, ok := schema.Coerce(unwrapped)
	if !ok {
		return nil, issues, &llmrouter.NoStructuredOutputError{
			PipelineError: llmrouter.PipelineError{Message: "repack response failed schema validation"},
			ModelID:       handle.Info.ID,
			RawText:       text,
		}
	}
	result, _ := coerced.(map[string]any)
	return result, issues, nil
}
