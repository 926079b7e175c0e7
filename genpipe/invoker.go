package genpipe

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lessonforge/coursegen/llmrouter"
	"github.com/lessonforge/coursegen/objschema"
)

// InvokeState tags the outcome of a primary generation call.
type InvokeState int

const (
	// InvokeOK: the provider returned a schema-valid object.
	InvokeOK InvokeState = iota
	// InvokeRecoverable: the provider responded but the text did not yield a
	// valid object; Err is *llmrouter.NoStructuredOutputError carrying the
	// raw text and the recovery pipeline takes over.
	InvokeRecoverable
	// InvokeFatal: a provider-level failure unrelated to output shape
	// (auth, network, timeout). The recovery pipeline never runs.
	InvokeFatal
)

// Invocation is the tagged result of Invoker.Invoke.
type Invocation struct {
	State   InvokeState
	Object  map[string]any // set when State is InvokeOK
	RawText string         // provider text, when a response arrived
	Err     error          // set unless State is InvokeOK
	Tracker RepairTracker  // Layer 0 hook activity
}

// InvokerOptions configures the primary generation call.
type InvokerOptions struct {
	// Deadline bounds the whole call including transport retries. Zero
	// means the caller's context is the only bound.
	Deadline time.Duration
	// DisableTextRepair turns the Layer 0 hook off.
	DisableTextRepair bool
	// Retry governs transient provider errors (429/5xx) within the deadline.
	Retry       llmrouter.RetryPolicy
	Temperature *float64
	MaxTokens   *int
}

// Invoker issues the primary structured-generation call against a target
// schema with the Layer 0 text-repair hook active.
type Invoker struct {
	opts InvokerOptions
}

// NewInvoker creates an Invoker. A zero Retry policy falls back to the
// default policy.
func NewInvoker(opts InvokerOptions) *Invoker {
	if opts.Retry.MaxRetries == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = llmrouter.DefaultRetryPolicy()
	}
	return &Invoker{opts: opts}
}

// Invoke runs the structured-generation call. The provider receives the
// schema both as a response format and (for providers without native
// support) as a system instruction; the adapter decides.
func (inv *Invoker) Invoke(ctx context.Context, handle *llmrouter.ModelHandle, prompt string, schema *objschema.Schema) Invocation {
	tracker := NewRepairTracker()

	if inv.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.opts.Deadline)
		defer cancel()
	}

	req := llmrouter.Request{
		Model:    handle.Info.ID,
		Messages: []llmrouter.Message{llmrouter.UserMessage(prompt)},
		ResponseFormat: &llmrouter.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: schema.JSONSchema(),
			Strict:     true,
		},
		Temperature: inv.opts.Temperature,
		MaxTokens:   inv.opts.MaxTokens,
	}

	resp, err := llmrouter.Retry(ctx, inv.opts.Retry, func(ctx context.Context) (*llmrouter.Response, error) {
		return handle.Adapter.Complete(ctx, req)
	})
	if err != nil {
		if ctx.Err() != nil {
			if _, ok := err.(*llmrouter.ProviderTimeoutError); !ok {
				err = &llmrouter.ProviderTimeoutError{
					PipelineError: llmrouter.PipelineError{Message: "generation deadline exceeded", Cause: err},
					ModelID:       handle.Info.ID,
				}
			}
		}
		return Invocation{State: InvokeFatal, Err: err, Tracker: tracker}
	}

	rawText := resp.Text
	obj, parsed := parseObject(rawText)
	if !parsed && !inv.opts.DisableTextRepair {
		tracker.Attempted = true
		if repaired, changed := RepairText(rawText); changed {
			if obj, parsed = parseObject(repaired); parsed {
				tracker.Result = RepairOK
			}
		}
		if !parsed {
			tracker.Result = RepairFailed
		}
	}

	if parsed {
		if issues := schema.Validate(obj); len(issues) == 0 {
			return Invocation{State: InvokeOK, Object: obj, RawText: rawText, Tracker: tracker}
		}
	}

	return Invocation{
		State:   InvokeRecoverable,
		RawText: rawText,
		Tracker: tracker,
		Err: &llmrouter.NoStructuredOutputError{
			PipelineError: llmrouter.PipelineError{Message: "response did not contain a schema-valid object"},
			ModelID:       handle.Info.ID,
			RawText:       rawText,
		},
	}
}

// parseObject attempts to parse text as a JSON object.
func parseObject(text string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}
