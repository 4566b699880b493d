package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider or store type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the completion provider is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Neither indexing nor retrieval can run without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrInvalidVector indicates an empty vector or one with NaN/Inf components.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrSessionClosed indicates a conversation session has been terminated.
	ErrSessionClosed = errors.New("session closed")

	// ErrRateLimited indicates the provider rejected a call for rate reasons.
	ErrRateLimited = errors.New("rate limited")
)

// ConfigurationError reports missing or inconsistent configuration.
// It is fatal at startup: nothing serves traffic when one is returned.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// ValidationError reports malformed caller input.
// It is raised before any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ProviderError wraps a failed or malformed call to an embedding provider,
// vector store or completion provider.
type ProviderError struct {
	// Provider names the remote service, e.g. "openai" or "pinecone".
	Provider string

	// Op is the operation that failed, e.g. "embed" or "upsert".
	Op string

	// StatusCode is the HTTP status when one was received, 0 otherwise.
	StatusCode int

	// Message is the provider's own error message, if any.
	Message string

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IndexNotReadyError reports that a vector index did not become queryable
// within the readiness polling window.
type IndexNotReadyError struct {
	Index    string
	Attempts int
	Waited   time.Duration
}

func (e *IndexNotReadyError) Error() string {
	return fmt.Sprintf("index %q not ready after %d attempts (%s)", e.Index, e.Attempts, e.Waited)
}

// IsProviderError reports whether err wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
