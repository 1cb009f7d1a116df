// Package ai wraps the generative completion providers used when an answer
// cannot be served from the archive.
package ai

import (
	"context"
	"errors"
)

// ErrProvider marks failures of the upstream completion call, including
// empty completions.
var ErrProvider = errors.New("completion provider error")

// Completer performs a single system+user completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}
