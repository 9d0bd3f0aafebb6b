package domain

import "context"

// Generator is the shared text-generation contract between layers.
// It is capability-optional: callers must check Configured (or handle
// ErrGenerationNotConfigured) and apply their own fallback value.
type Generator interface {
	// Configured reports whether the provider has credentials.
	Configured() bool
	// Generate returns a single text completion.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GenerationRequest carries one completion call's parameters.
type GenerationRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}
