package llmrouter

import "context"

// ProviderAdapter is the interface every provider backend must implement.
// Complete is the only blocking operation the generation pipeline needs;
// streaming is deliberately not part of the contract because structured
// output is validated as a whole.
type ProviderAdapter interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic", "gemini").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Closer is implemented by adapters that hold resources.
type Closer interface {
	Close() error
}
