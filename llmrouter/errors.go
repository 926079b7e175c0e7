package llmrouter

import "fmt"

// PipelineError is the base error type for the generation pipeline.
type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ProviderAuthError means the provider implied by a requested model has no
// matching credential. Fatal; the recovery pipeline never runs.
type ProviderAuthError struct {
	PipelineError
	Provider string
	ModelID  string
}

func (e *ProviderAuthError) Error() string {
	return fmt.Sprintf("no credential for provider %q (model %q)", e.Provider, e.ModelID)
}

// ProviderTimeoutError means the overall generation deadline was exceeded.
// Fatal; distinct from malformed-output failures by construction.
type ProviderTimeoutError struct {
	PipelineError
	ModelID string
}

// NoStructuredOutputError means the provider responded but the response did
// not yield a schema-valid object. It carries the raw text so the recovery
// pipeline can attempt unwrap, coercion, and repack.
type NoStructuredOutputError struct {
	PipelineError
	ModelID string
	RawText string
}

// RecoveryExhaustedError means every recovery stage failed. Cause is always
// the original *NoStructuredOutputError from the primary model, never the
// repack model's error.
type RecoveryExhaustedError struct {
	PipelineError
}

// Original returns the primary model's failure that started recovery.
func (e *RecoveryExhaustedError) Original() *NoStructuredOutputError {
	if orig, ok := e.Cause.(*NoStructuredOutputError); ok {
		return orig
	}
	return nil
}

// PersistenceError means the audit row could not be written. It is always
// caught inside the logger and never reaches the generation caller.
type PersistenceError struct {
	PipelineError
}

// ProviderError represents a transport-level error returned by a provider.
// Retryable errors may be retried within the request deadline.
type ProviderError struct {
	PipelineError
	Provider   string
	StatusCode int
	Retryable  bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

// Concrete provider error types.

type RateLimitError struct{ ProviderError }
type ServerError struct{ ProviderError }
type InvalidRequestError struct{ ProviderError }
type ContentFilterError struct{ ProviderError }
type NetworkError struct{ PipelineError }

// IsRetryable returns true if the error is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *ProviderAuthError:
		return false
	case *ProviderTimeoutError:
		return false
	case *NoStructuredOutputError:
		return false
	case *RecoveryExhaustedError:
		return false
	case *InvalidRequestError:
		return false
	case *ContentFilterError:
		return false
	case *RateLimitError:
		return true
	case *ServerError:
		return true
	case *NetworkError:
		return true
	case *ProviderError:
		return e.Retryable
	default:
		return false
	}
}
