package ai

import (
	"context"
	"errors"
)

var (
	// ErrProviderDisabled is returned by providers without credentials
	ErrProviderDisabled = errors.New("ai provider disabled")
	// ErrEmptyCompletion is returned when the model produced no content
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrRateLimited is returned when no request slot was available before the caller gave up
	ErrRateLimited = errors.New("ai rate limit wait")
)

// CompletionRequest is a single system+user chat completion
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
	// JSON asks the model for a single JSON object
	JSON bool
}

// Provider represents AI provider interface
type Provider interface {
	// Complete runs one chat completion and returns the message content
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// GetName returns provider name
	GetName() string

	// IsEnabled returns whether provider is enabled
	IsEnabled() bool
}
