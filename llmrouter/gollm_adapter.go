package llmrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmAdapter wraps a gollm.LLM instance and implements ProviderAdapter.
// It translates between the pipeline's request/response types and gollm's API.
type GollmAdapter struct {
	provider string
	llm      gollm.LLM
	model    string
}

// GollmAdapterOption configures a GollmAdapter.
type GollmAdapterOption func(*gollmAdapterConfig)

type gollmAdapterConfig struct {
	model       string
	maxTokens   int
	temperature float64
	extraOpts   []gollm.ConfigOption
}

// WithModel sets the default model for the adapter.
func WithModel(model string) GollmAdapterOption {
	return func(c *gollmAdapterConfig) {
		c.model = model
	}
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) GollmAdapterOption {
	return func(c *gollmAdapterConfig) {
		c.maxTokens = n
	}
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmAdapterOption {
	return func(c *gollmAdapterConfig) {
		c.extraOpts = append(c.extraOpts, opts...)
	}
}

// NewGollmAdapter creates a new GollmAdapter for the given provider.
// If apiKey is empty, gollm will attempt to read it from environment variables.
func NewGollmAdapter(provider string, apiKey string, opts ...GollmAdapterOption) (*GollmAdapter, error) {
	cfg := &gollmAdapterConfig{
		maxTokens:   4096,
		temperature: 0.2, // structured output wants low variance
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		if models := ListModels(provider); len(models) > 0 {
			model = models[0].ID
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // the invoker owns retry policy
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gollm LLM for provider %s: %w", provider, err)
	}

	return &GollmAdapter{
		provider: provider,
		llm:      llm,
		model:    model,
	}, nil
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string {
	return a.provider
}

// Complete sends a blocking request and returns the full response.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := a.translateRequest(req)
	a.applyRequestOptions(req)

	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ProviderTimeoutError{
				PipelineError: PipelineError{Message: "generation deadline exceeded", Cause: ctx.Err()},
				ModelID:       req.Model,
			}
		}
		return nil, a.translateError(err)
	}

	model := req.Model
	if model == "" {
		model = a.model
	}
	return &Response{
		ID:       "resp_" + uuid.New().String()[:8],
		Model:    model,
		Provider: a.provider,
		Text:     text,
		Usage: Usage{
			// gollm doesn't expose detailed usage; estimate from text length.
			InputTokens:  len(req.UserText()) / 4,
			OutputTokens: len(text) / 4,
			TotalTokens:  (len(req.UserText()) + len(text)) / 4,
		},
	}, nil
}

// translateRequest converts a Request into a gollm Prompt. Structured-output
// requests carry the JSON schema as a system instruction because gollm has no
// native response_format support.
func (a *GollmAdapter) translateRequest(req Request) *gollm.Prompt {
	systemPrompt := req.SystemText()
	promptText := req.UserText()
	if promptText == "" {
		promptText = "Hello"
	}

	if rf := req.ResponseFormat; rf != nil && rf.Type == "json_schema" && rf.JSONSchema != nil {
		schemaJSON, _ := json.MarshalIndent(rf.JSONSchema, "", "  ")
		instruction := fmt.Sprintf(
			"You must respond with valid JSON matching this schema:\n```json\n%s\n```\nRespond ONLY with the JSON object, no other text.",
			string(schemaJSON),
		)
		if systemPrompt != "" {
			systemPrompt += "\n" + instruction
		} else {
			systemPrompt = instruction
		}
	}

	promptOpts := []gollm.PromptOption{}
	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(systemPrompt, gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies request-level parameters to the gollm LLM.
func (a *GollmAdapter) applyRequestOptions(req Request) {
	if req.Model != "" {
		a.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens != nil {
		a.llm.SetOption("max_tokens", *req.MaxTokens)
	}
}

// translateError converts a gollm error into the pipeline error hierarchy.
// gollm flattens provider errors into strings, so classification is by
// message content.
func (a *GollmAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	msgLower := strings.ToLower(msg)

	pe := PipelineError{Message: msg, Cause: err}
	switch {
	case strings.Contains(msgLower, "401") || strings.Contains(msgLower, "unauthorized") ||
		strings.Contains(msgLower, "invalid key") || strings.Contains(msgLower, "invalid api key"):
		return &ProviderAuthError{PipelineError: pe, Provider: a.provider}
	case strings.Contains(msgLower, "429") || strings.Contains(msgLower, "rate limit"):
		return &RateLimitError{ProviderError: ProviderError{
			PipelineError: pe, Provider: a.provider, StatusCode: 429, Retryable: true,
		}}
	case strings.Contains(msgLower, "400") || strings.Contains(msgLower, "invalid request"):
		return &InvalidRequestError{ProviderError: ProviderError{
			PipelineError: pe, Provider: a.provider, StatusCode: 400,
		}}
	case strings.Contains(msgLower, "content filter") || strings.Contains(msgLower, "safety"):
		return &ContentFilterError{ProviderError: ProviderError{
			PipelineError: pe, Provider: a.provider, StatusCode: 422,
		}}
	case strings.Contains(msgLower, "500") || strings.Contains(msgLower, "502") ||
		strings.Contains(msgLower, "503") || strings.Contains(msgLower, "internal server") ||
		strings.Contains(msgLower, "overloaded"):
		return &ServerError{ProviderError: ProviderError{
			PipelineError: pe, Provider: a.provider, StatusCode: 500, Retryable: true,
		}}
	case strings.Contains(msgLower, "timeout") || strings.Contains(msgLower, "deadline"):
		return &ProviderTimeoutError{PipelineError: pe}
	case strings.Contains(msgLower, "connection") || strings.Contains(msgLower, "no such host"):
		return &NetworkError{PipelineError: pe}
	default:
		return &ProviderError{PipelineError: pe, Provider: a.provider, Retryable: true}
	}
}
