package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/pitchroom/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultChatModel is used when a request does not name a model.
const DefaultChatModel = "gpt-4o-mini"

var usageKeys = ai.UsageKeys{Prompt: "PromptTokens", Completion: "CompletionTokens"}

// ChatProvider implements ai.CompletionProvider for the OpenAI family.
// The system prompt travels as a system message.
type ChatProvider struct {
	llm    llms.Model
	logger *slog.Logger
}

var _ ai.CompletionProvider = (*ChatProvider)(nil)

func newChatProvider(config *ai.Config) (*ChatProvider, error) {
	if config.OpenAIKey == "" {
		return nil, errors.New("openai: OpenAIKey is required for chat")
	}
	config.Normalize()

	client, err := openai.New(
		openai.WithBaseURL(config.OpenAIHost),
		openai.WithToken(config.OpenAIKey),
		openai.WithModel(DefaultChatModel),
	)
	if err != nil {
		return nil, err
	}
	return &ChatProvider{
		llm:    client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatProvider creates an OpenAI completion provider.
func NewChatProvider(config *ai.Config) (ai.CompletionProvider, error) {
	return newChatProvider(config)
}

// Family reports ai.FamilyOpenAI.
func (p *ChatProvider) Family() ai.Family {
	return ai.FamilyOpenAI
}

// Complete sends the system prompt and history to the chat completions API.
func (p *ChatProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	p.logger.Debug("requesting completion", "model", req.Model, "messages", len(req.Messages))
	c, err := ai.Generate(ctx, p.llm, p.Family(), req, ai.MessageContents(req.System, req.Messages), usageKeys)
	if err != nil {
		p.logger.Error("completion failed", "model", req.Model, "err", err)
		return nil, err
	}
	return c, nil
}
