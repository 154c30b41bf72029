package ai

import (
	"context"
	"errors"
)

// Sentinel errors for generation.
var (
	// ErrNoProviders indicates no generation provider could be initialized.
	ErrNoProviders = errors.New("no generation providers available")

	// ErrEmptyPrompt indicates the prompt was empty after trimming.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// StreamFunc receives one generated text delta. Returning an error aborts
// the stream; the error is propagated to the Stream caller.
type StreamFunc func(delta string) error

// Provider streams generated text for a prompt.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// Stream generates text for the prompt, invoking fn once per delta.
	// Stream returns after the model finishes or the context is canceled.
	Stream(ctx context.Context, prompt string, fn StreamFunc) error
}
