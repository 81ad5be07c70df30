// Package llm holds the generation providers and the orchestrator that
// walks them in priority order with validation and deterministic
// fallback.
package llm

import (
	"context"
	"errors"
)

// Provider is the narrow contract a generation backend implements.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, instruction, data string) (string, error)
	Close() error
}

var (
	// ErrAllProvidersFailed reports that every configured provider was
	// unavailable or returned an invalid response.
	ErrAllProvidersFailed = errors.New("llm: all providers failed")

	// ErrEmptyResponse reports a response with no usable content.
	ErrEmptyResponse = errors.New("llm: empty response from model")
)

// FallbackProviderName tags results produced without any provider.
const FallbackProviderName = "fallback"
