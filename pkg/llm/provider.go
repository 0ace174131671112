package llm

import (
	"context"
	"errors"
)

// ErrGenerationFailed marks any failure raised by a model backend while
// producing text. Callers match it with errors.Is.
var ErrGenerationFailed = errors.New("llm: generation failed")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Delta is one increment of a streamed completion. Exactly one of Content
// or Err is meaningful; a provider closes the channel after the final delta.
type Delta struct {
	Content string
	Err     error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Invoke sends a single prompt to the model (convenience method)
	Invoke(ctx context.Context, prompt string, options ...Option) (string, error)

	// Stream sends a chat history and emits the response incrementally.
	// The returned channel is closed once the model finishes or fails;
	// a failure is delivered as the last Delta with Err set.
	Stream(ctx context.Context, history []Message, options ...Option) (<-chan Delta, error)

	// Model reports the identifier used to tag responses
	Model() string
}
