// Package anthropic implements ai.CompletionProvider for Claude models via
// the langchaingo Anthropic client.
package anthropic

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/pitchroom/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "claude-3-5-sonnet-20241022"

var usageKeys = ai.UsageKeys{Prompt: "InputTokens", Completion: "OutputTokens"}

// Provider answers chat requests with Claude. The system prompt is sent as a
// system message, which the client lifts into the request's system parameter.
type Provider struct {
	llm    llms.Model
	logger *slog.Logger
}

var _ ai.CompletionProvider = (*Provider)(nil)

// New creates a Claude completion provider from config.AnthropicKey.
func New(config *ai.Config) (ai.CompletionProvider, error) {
	if config.AnthropicKey == "" {
		return nil, errors.New("anthropic: AnthropicKey is required")
	}

	client, err := anthropic.New(
		anthropic.WithToken(config.AnthropicKey),
		anthropic.WithModel(DefaultModel),
	)
	if err != nil {
		return nil, err
	}
	return &Provider{
		llm:    client,
		logger: slog.Default().With("component", "anthropic-chat"),
	}, nil
}

// Family reports ai.FamilyClaude.
func (p *Provider) Family() ai.Family {
	return ai.FamilyClaude
}

// Complete sends one Messages API request.
func (p *Provider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	p.logger.Debug("requesting completion", "model", req.Model, "messages", len(req.Messages))
	c, err := ai.Generate(ctx, p.llm, p.Family(), req, ai.MessageContents(req.System, req.Messages), usageKeys)
	if err != nil {
		p.logger.Error("completion failed", "model", req.Model, "err", err)
		return nil, err
	}
	return c, nil
}
