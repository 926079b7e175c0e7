package genpipe

import (
	"context"
	"encoding/json"

	"github.com/lessonforge/coursegen/llmrouter"
	"github.com/lessonforge/coursegen/objschema"
)

// Outcome tags how a generation request finally produced (or failed to
// produce) a valid object. Exactly one holds per request.
type Outcome string

const (
	OutcomeSuccessLayer0  Outcome = "success_layer0"
	OutcomeRepairedLayer1 Outcome = "repaired_layer1"
	OutcomeRepairedLayer2 Outcome = "repaired_layer2"
	OutcomeFailed         Outcome = "failed"
)

// Layer1Report carries what the unwrap/coerce stage did, for audit logging.
type Layer1Report struct {
	RawText    string
	HadWrapper bool
	Wrapper    WrapperType
	Success    bool
	Issues     []objschema.Issue
}

// Layer2Report carries what the repack stage did.
type Layer2Report struct {
	ModelID string
	Success bool
}

// Recorder observes each pipeline stage. The audit logger implements it;
// NopRecorder discards everything.
type Recorder interface {
	RecordLayer0(tracker RepairTracker)
	RecordLayer1(report Layer1Report)
	RecordLayer2(report Layer2Report)
	RecordFailure(message string)
}

// NopRecorder is a Recorder that discards all observations.
type NopRecorder struct{}

func (NopRecorder) RecordLayer0(RepairTracker) {}
func (NopRecorder) RecordLayer1(Layer1Report)  {}
func (NopRecorder) RecordLayer2(Layer2Report)  {}
func (NopRecorder) RecordFailure(string)       {}

// Result is a schema-valid object plus the outcome tag describing which
// layer produced it. Callers cannot distinguish a repaired object from a
// first-try success except by the tag.
type Result struct {
	Object  map[string]any
	Outcome Outcome
	ModelID string
	RawText string
}

// Pipeline runs the full generation flow: resolve, invoke, and on
// recoverable failure the layered recovery protocol.
type Pipeline struct {
	resolver *llmrouter.Resolver
	invoker  *Invoker
	repacker *Repacker
	events   *EventEmitter
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithInvoker replaces the default invoker.
func WithInvoker(inv *Invoker) PipelineOption {
	return func(p *Pipeline) { p.invoker = inv }
}

// WithRepacker replaces the default repacker.
func WithRepacker(r *Repacker) PipelineOption {
	return func(p *Pipeline) { p.repacker = r }
}

// WithEvents attaches an event emitter for host-application observability.
func WithEvents(e *EventEmitter) PipelineOption {
	return func(p *Pipeline) { p.events = e }
}

// NewPipeline creates a Pipeline over the given resolver.
func NewPipeline(resolver *llmrouter.Resolver, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		invoker:  NewInvoker(InvokerOptions{}),
		repacker: NewRepacker(llmrouter.RetryPolicy{}, nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes a generation request end to end. On success the returned
// object is schema-valid; on failure the error is one of the terminal
// types: *ProviderAuthError, *ProviderTimeoutError, or
// *RecoveryExhaustedError. Intermediate stage failures are recorded on rec
// and swallowed until exhaustion.
func (p *Pipeline) Run(ctx context.Context, modelID, prompt string, schema *objschema.Schema, rec Recorder) (*Result, error) {
	if rec == nil {
		rec = NopRecorder{}
	}

	handle, err := p.resolver.Resolve(modelID)
	if err != nil {
		rec.RecordFailure(err.Error())
		p.events.Emit(EventPipelineFailed, map[string]any{"error": err.Error()})
		return nil, err
	}

	p.events.Emit(EventInvokeStart, map[string]any{"model": handle.Info.ID})
	inv := p.invoker.Invoke(ctx, handle, prompt, schema)
	rec.RecordLayer0(inv.Tracker)
	if inv.Tracker.Attempted {
		p.events.Emit(EventLayer0Repair, map[string]any{"result": string(inv.Tracker.Result)})
	}

	switch inv.State {
	case InvokeOK:
		p.events.Emit(EventPipelineSuccess, map[string]any{"outcome": string(OutcomeSuccessLayer0)})
		return &Result{Object: inv.Object, Outcome: OutcomeSuccessLayer0, ModelID: handle.Info.ID, RawText: inv.RawText}, nil

	case InvokeFatal:
		rec.RecordFailure(inv.Err.Error())
		p.events.Emit(EventPipelineFailed, map[string]any{"error": inv.Err.Error()})
		return nil, inv.Err

	case InvokeRecoverable:
		orig, _ := inv.Err.(*llmrouter.NoStructuredOutputError)
		return p.recover(ctx, handle, orig, schema, rec)
	}

	// Unreachable unless a new state is added without handling.
	rec.RecordFailure("invoker returned unknown state")
	return nil, inv.Err
}

// recover runs Layers 1 and 2 in strict order. orig is the primary model's
// failure; it is the error surfaced when every layer fails.
func (p *Pipeline) recover(ctx context.Context, primary *llmrouter.ModelHandle, orig *llmrouter.NoStructuredOutputError, schema *objschema.Schema, rec Recorder) (*Result, error) {
	p.events.Emit(EventRecoverable, map[string]any{"model": primary.Info.ID})
	rawText := orig.RawText

	// Layer 1: direct parse, unwrap, coerce.
	if result := p.runLayer1(rawText, primary.Info.ID, schema, rec); result != nil {
		p.events.Emit(EventPipelineSuccess, map[string]any{"outcome": string(OutcomeRepairedLayer1)})
		return result, nil
	}

	// Layer 2: AI repack with the cheapest credentialed model.
	if cheap := p.resolver.CheapestAvailable(); cheap != nil {
		p.events.Emit(EventRepackStart, map[string]any{"model": cheap.Info.ID})
		obj, _, err := p.repacker.Repack(ctx, cheap, rawText, schema)
		rec.RecordLayer2(Layer2Report{ModelID: cheap.Info.ID, Success: err == nil})
		if err == nil {
			p.events.Emit(EventPipelineSuccess, map[string]any{"outcome": string(OutcomeRepairedLayer2)})
			return &Result{Object: obj, Outcome: OutcomeRepairedLayer2, ModelID: cheap.Info.ID, RawText: rawText}, nil
		}
		// The repack model's failure is recorded but never surfaced; the
		// original failure is the one worth showing operators.
	}

	rec.RecordFailure(orig.Error())
	p.events.Emit(EventPipelineFailed, map[string]any{"error": orig.Error()})
	return nil, &llmrouter.RecoveryExhaustedError{PipelineError: llmrouter.PipelineError{
		Message: "all recovery layers failed",
		Cause:   orig,
	}}
}

// runLayer1 attempts local recovery: parse the raw text, strip any known
// wrapper, validate, and coerce near-misses. Returns nil when the layer
// cannot produce a valid object; its report lands on rec either way.
func (p *Pipeline) runLayer1(rawText, modelID string, schema *objschema.Schema, rec Recorder) *Result {
	report := Layer1Report{RawText: rawText, Wrapper: WrapperNone}

	var parsed any
	if err := json.Unmarshal([]byte(rawText), &parsed); err != nil {
		// Not valid JSON: silent fall-through to Layer 2.
		rec.RecordLayer1(report)
		return nil
	}

	unwrapped, wasWrapped, wrapperType := Unwrap(parsed)
	report.HadWrapper = wasWrapped
	report.Wrapper = wrapperType
	if wasWrapped {
		p.events.Emit(EventWrapperDetected, map[string]any{"wrapper": string(wrapperType)})
	}

	issues := schema.Validate(unwrapped)
	if len(issues) == 0 {
		report.Success = true
		rec.RecordLayer1(report)
		obj, _ := unwrapped.(map[string]any)
		return &Result{Object: obj, Outcome: OutcomeRepairedLayer1, ModelID: modelID, RawText: rawText}
	}
	report.Issues = issues

	coerced, coerceIssues, ok := schema.Coerce(unwrapped)
	report.Issues = append(report.Issues, coerceIssues...)
	report.Success = ok
	rec.RecordLayer1(report)
	if !ok {
		return nil
	}

	p.events.Emit(EventCoercionOK, nil)
	obj, _ := coerced.(map[string]any)
	return &Result{Object: obj, Outcome: OutcomeRepairedLayer1, ModelID: modelID, RawText: rawText}
}
