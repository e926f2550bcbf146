package llm

import (
	"context"

	"github.com/sells-group/clinic-phone/pkg/anthropic"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// Anthropic completes prompts with the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic wraps an Anthropic client.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{client: client, model: model}
}

func (a *Anthropic) Name() string { return "anthropic" }

// Complete sends one message and returns the concatenated text reply.
func (a *Anthropic) Complete(ctx context.Context, p Prompt) (string, error) {
	maxTokens := int64(p.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 256
	}
	temp := p.Temperature

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      p.System,
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(a.model, "complete")
	return resp.Text(), nil
}
