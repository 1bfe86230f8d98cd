// Package googleai implements ai.CompletionProvider for Gemini models via
// the langchaingo Google AI client.
package googleai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gemini-1.5-flash"

var usageKeys = ai.UsageKeys{Prompt: "input_tokens", Completion: "output_tokens"}

// Provider answers chat requests with Gemini.
type Provider struct {
	llm    llms.Model
	logger *slog.Logger
}

var _ ai.CompletionProvider = (*Provider)(nil)

// New creates a Gemini completion provider from config.GoogleKey.
func New(ctx context.Context, config *ai.Config) (ai.CompletionProvider, error) {
	if config.GoogleKey == "" {
		return nil, errors.New("googleai: GoogleKey is required")
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(config.GoogleKey),
		googleai.WithDefaultModel(DefaultModel),
	)
	if err != nil {
		return nil, err
	}
	return &Provider{
		llm:    client,
		logger: slog.Default().With("component", "googleai-chat"),
	}, nil
}

// Family reports ai.FamilyGemini.
func (p *Provider) Family() ai.Family {
	return ai.FamilyGemini
}

// Complete sends one generateContent request.
func (p *Provider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	p.logger.Debug("requesting completion", "model", req.Model, "messages", len(req.Messages))
	c, err := ai.Generate(ctx, p.llm, p.Family(), req, messageContents(req), usageKeys)
	if err != nil {
		p.logger.Error("completion failed", "model", req.Model, "err", err)
		return nil, err
	}
	return c, nil
}

// messageContents folds the system prompt into the first user turn; the
// client sends assistant turns with the model role.
func messageContents(req ai.CompletionRequest) []llms.MessageContent {
	history := make([]ai.ChatMessage, len(req.Messages))
	copy(history, req.Messages)

	if req.System != "" {
		folded := false
		for i, m := range history {
			if m.Role == core.RoleUser {
				history[i].Content = req.System + "\n\n" + m.Content
				folded = true
				break
			}
		}
		if !folded {
			history = append([]ai.ChatMessage{{Role: core.RoleUser, Content: req.System}}, history...)
		}
	}
	return ai.MessageContents("", history)
}
