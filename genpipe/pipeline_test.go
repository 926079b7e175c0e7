package genpipe

import (
	"context"
	"reflect"
	"testing"

	"github.com/lessonforge/coursegen/llmrouter"
	"github.com/lessonforge/coursegen/objschema"
)

// scriptedAdapter returns canned texts in order, one per Complete call.
type scriptedAdapter struct {
	name  string
	texts []string
	err   error
	calls int
}

func (s *scriptedAdapter) Name() string { return s.name }

func (s *scriptedAdapter) Complete(ctx context.Context, req llmrouter.Request) (*llmrouter.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.texts) {
		idx = len(s.texts) - 1
	}
	text := s.texts[idx]
	return &llmrouter.Response{
		ID:       "scripted",
		Model:    req.Model,
		Provider: s.name,
		Text:     text,
	}, nil
}

// captureRecorder records everything the pipeline reports.
type captureRecorder struct {
	layer0   []RepairTracker
	layer1   []Layer1Report
	layer2   []Layer2Report
	failures []string
}

func (c *captureRecorder) RecordLayer0(t RepairTracker) { c.layer0 = append(c.layer0, t) }
func (c *captureRecorder) RecordLayer1(r Layer1Report)  { c.layer1 = append(c.layer1, r) }
func (c *captureRecorder) RecordLayer2(r Layer2Report)  { c.layer2 = append(c.layer2, r) }
func (c *captureRecorder) RecordFailure(msg string)     { c.failures = append(c.failures, msg) }

func testSchema() *objschema.Schema {
	return objschema.New("lesson",
		objschema.Field{Name: "title", Kind: objschema.KindString},
		objschema.Field{Name: "duration", Kind: objschema.KindInt, Optional: true},
	)
}

// testPipeline builds a pipeline whose openai adapter is the given script.
func testPipeline(adapter *scriptedAdapter, creds llmrouter.Credentials) *Pipeline {
	resolver := llmrouter.NewResolver(creds, llmrouter.WithAdapterFactory(
		func(provider, apiKey string) (llmrouter.ProviderAdapter, error) {
			return adapter, nil
		},
	))
	return NewPipeline(resolver,
		WithInvoker(NewInvoker(InvokerOptions{Retry: llmrouter.RetryPolicy{MaxRetries: 0, BaseDelay: 0.001}})),
		WithRepacker(NewRepacker(llmrouter.RetryPolicy{MaxRetries: 0, BaseDelay: 0.001}, nil)),
	)
}

func TestRunFirstTrySuccess(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai", texts: []string{`{"title": "Intro"}`}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	result, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSuccessLayer0 {
		t.Errorf("expected success_layer0, got %q", result.Outcome)
	}
	if result.Object["title"] != "Intro" {
		t.Errorf("unexpected object %#v", result.Object)
	}
	if adapter.calls != 1 {
		t.Errorf("layers 1-2 must not run on first-try success, got %d calls", adapter.calls)
	}
	if len(rec.layer1) != 0 || len(rec.layer2) != 0 {
		t.Error("layer 1/2 must not be recorded on first-try success")
	}
	if len(rec.layer0) != 1 || rec.layer0[0].Attempted {
		t.Errorf("expected one not-attempted layer0 record, got %#v", rec.layer0)
	}
}

func TestRunCoercionOnly(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai", texts: []string{`{"title": "Intro", "duration": "5"}`}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	result, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeRepairedLayer1 {
		t.Errorf("expected repaired_layer1, got %q", result.Outcome)
	}

	// The returned object deep-equals the response with the numeric string
	// replaced by the number.
	want := map[string]any{"title": "Intro", "duration": float64(5)}
	if !reflect.DeepEqual(result.Object, want) {
		t.Errorf("coerced object:\n got %#v\nwant %#v", result.Object, want)
	}

	if len(rec.layer1) != 1 {
		t.Fatalf("expected one layer1 record, got %d", len(rec.layer1))
	}
	if !rec.layer1[0].Success {
		t.Error("layer1 must report success")
	}
	if rec.layer1[0].HadWrapper {
		t.Error("no wrapper in this response")
	}
	if len(rec.layer1[0].Issues) == 0 {
		t.Error("schema violations must be collected for logging")
	}
	if adapter.calls != 1 {
		t.Errorf("repack must not run when coercion succeeds, got %d calls", adapter.calls)
	}
}

func TestRunUnwrapsParametersWrapper(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai", texts: []string{`{"parameters": {"title": "Intro"}}`}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	result, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeRepairedLayer1 {
		t.Errorf("expected repaired_layer1, got %q", result.Outcome)
	}
	if result.Object["title"] != "Intro" {
		t.Errorf("unexpected unwrapped object %#v", result.Object)
	}
	if len(rec.layer1) != 1 {
		t.Fatalf("expected one layer1 record, got %d", len(rec.layer1))
	}
	if !rec.layer1[0].HadWrapper || rec.layer1[0].Wrapper != WrapperParameters {
		t.Errorf("expected parameters wrapper detection, got %#v", rec.layer1[0])
	}
}

func TestRunExhaustedPreservesOriginalError(t *testing.T) {
	// Both the primary model and the repack model return prose. The error
	// surfaced after exhaustion wraps the primary model's failure with its
	// raw text intact.
	adapter := &scriptedAdapter{name: "openai", texts: []string{
		"I will not produce JSON today.",
		"Still not JSON.",
	}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	result, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	if result != nil {
		t.Fatal("expected no result")
	}
	exhausted, ok := err.(*llmrouter.RecoveryExhaustedError)
	if !ok {
		t.Fatalf("expected *RecoveryExhaustedError, got %T: %v", err, err)
	}

	// The original provider text is preserved unchanged.
	orig := exhausted.Original()
	if orig == nil {
		t.Fatal("expected original NoStructuredOutputError")
	}
	if orig.RawText != "I will not produce JSON today." {
		t.Errorf("original raw text changed: %q", orig.RawText)
	}

	if len(rec.layer2) != 1 || rec.layer2[0].Success {
		t.Errorf("expected one failed layer2 record, got %#v", rec.layer2)
	}
	if len(rec.failures) != 1 {
		t.Errorf("expected one failure record, got %v", rec.failures)
	}
}

func TestRunRepackSuccess(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai", texts: []string{
		"Sure! The lesson is titled Intro.", // primary: no JSON at all
		`{"title": "Intro"}`,                // repack: valid
	}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	result, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeRepairedLayer2 {
		t.Errorf("expected repaired_layer2, got %q", result.Outcome)
	}
	if result.Object["title"] != "Intro" {
		t.Errorf("unexpected object %#v", result.Object)
	}
	if result.ModelID != "gpt-5.2-mini" {
		t.Errorf("expected cheapest openai model for repack, got %q", result.ModelID)
	}
	if len(rec.layer2) != 1 || !rec.layer2[0].Success {
		t.Errorf("expected one successful layer2 record, got %#v", rec.layer2)
	}
	if adapter.calls != 2 {
		t.Errorf("expected exactly 2 provider calls, got %d", adapter.calls)
	}
}

func TestRunNoRecursiveRepack(t *testing.T) {
	// The repack model's own output is also malformed: recovery must not
	// loop, and the surfaced error is the primary model's.
	adapter := &scriptedAdapter{name: "openai", texts: []string{
		"primary prose output",
		"repack prose output",
	}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	_, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	exhausted, ok := err.(*llmrouter.RecoveryExhaustedError)
	if !ok {
		t.Fatalf("expected *RecoveryExhaustedError, got %T", err)
	}
	if exhausted.Original().RawText != "primary prose output" {
		t.Errorf("surfaced error must be the primary model's, got %q", exhausted.Original().RawText)
	}
	if adapter.calls != 2 {
		t.Errorf("repack must run at most once, got %d calls", adapter.calls)
	}
}

func TestRunAuthErrorIsTerminal(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai"}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	_, err := p.Run(context.Background(), "claude-opus-4-6", "outline please", testSchema(), rec)
	if _, ok := err.(*llmrouter.ProviderAuthError); !ok {
		t.Fatalf("expected *ProviderAuthError, got %T", err)
	}
	if adapter.calls != 0 {
		t.Error("no provider call may happen without a credential")
	}
	if len(rec.failures) != 1 {
		t.Errorf("expected one failure record, got %v", rec.failures)
	}
}

func TestRunFatalProviderErrorSkipsRecovery(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai", err: &llmrouter.InvalidRequestError{}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})
	rec := &captureRecorder{}

	_, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), rec)
	if _, ok := err.(*llmrouter.InvalidRequestError); !ok {
		t.Fatalf("expected *InvalidRequestError, got %T", err)
	}
	if len(rec.layer1) != 0 || len(rec.layer2) != 0 {
		t.Error("recovery must not run on provider-level failures")
	}
}

func TestRunMockModelEndToEnd(t *testing.T) {
	// The mock model needs no credentials and no adapter factory.
	p := NewPipeline(llmrouter.NewResolver(llmrouter.Credentials{}))
	rec := &captureRecorder{}

	result, err := p.Run(context.Background(), llmrouter.MockModelID, "anything", testSchema(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeSuccessLayer0 {
		t.Errorf("expected success_layer0 from the mock model, got %q", result.Outcome)
	}
	want := map[string]any{"title": "sample", "duration": float64(1)}
	if !reflect.DeepEqual(result.Object, want) {
		t.Errorf("mock object:\n got %#v\nwant %#v", result.Object, want)
	}

	// Deterministic across runs.
	again, err := p.Run(context.Background(), llmrouter.MockModelID, "anything", testSchema(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Object, again.Object) {
		t.Error("mock model output must be deterministic")
	}
}

func TestRunNilRecorder(t *testing.T) {
	adapter := &scriptedAdapter{name: "openai", texts: []string{`{"title": "Intro"}`}}
	p := testPipeline(adapter, llmrouter.Credentials{"openai": "k"})

	result, err := p.Run(context.Background(), "gpt-5.2", "outline please", testSchema(), nil)
	if err != nil {
		t.Fatalf("nil recorder must be tolerated: %v", err)
	}
	if result.Outcome != OutcomeSuccessLayer0 {
		t.Errorf("expected success_layer0, got %q", result.Outcome)
	}
}
