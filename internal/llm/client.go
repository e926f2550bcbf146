// Package llm adapts language-model providers to the two shapes the lookup
// pipeline needs: a plain completion and a web-grounded contact search.
package llm

import "context"

// Prompt is a single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Client completes a prompt and returns the model's text reply.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Name() string
}
