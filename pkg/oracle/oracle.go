// Package oracle wraps the hosted text-generation provider used for
// narrative enrichment. Scoring code depends only on Generator and must keep
// working when it returns an error.
package oracle

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no provider is configured or the circuit
// breaker is open.
var ErrUnavailable = errors.New("oracle unavailable")

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Noop is the Generator used when no provider is configured.
type Noop struct{}

func (Noop) Generate(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt, systemPrompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return f(ctx, prompt, systemPrompt)
}
