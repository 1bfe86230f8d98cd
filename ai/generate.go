package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/pitchroom/core"
	"github.com/tmc/langchaingo/llms"
)

// UsageKeys names the GenerationInfo entries in which a langchaingo backend
// reports token usage.
type UsageKeys struct {
	Prompt     string
	Completion string
}

// MessageContents converts a history into langchaingo messages, with the
// system prompt as a leading system message when non-empty.
func MessageContents(system string, history []ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(history)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range history {
		out = append(out, llms.TextParts(chatMessageType(m.Role), m.Content))
	}
	return out
}

func chatMessageType(role core.Role) llms.ChatMessageType {
	if role == core.RoleAssistant {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}

// Generate runs one GenerateContent call and maps the first choice and its
// usage into a Completion. Failures are wrapped in ErrCompletionProvider.
func Generate(ctx context.Context, llm llms.Model, family Family, req CompletionRequest, messages []llms.MessageContent, keys UsageKeys) (*Completion, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	resp, err := llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompletionProvider, family, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s: empty response", ErrCompletionProvider, family)
	}

	choice := resp.Choices[0]
	c := &Completion{Content: strings.TrimSpace(choice.Content)}
	prompt, okPrompt := intFromInfo(choice.GenerationInfo, keys.Prompt)
	completion, okCompletion := intFromInfo(choice.GenerationInfo, keys.Completion)
	if okPrompt && okCompletion {
		c.PromptTokens = prompt
		c.CompletionTokens = completion
		c.UsageReported = true
	}
	EstimateUsage(c, req)
	return c, nil
}

// intFromInfo reads a token count that backends report with varying numeric types.
func intFromInfo(info map[string]any, key string) (int, bool) {
	if info == nil || key == "" {
		return 0, false
	}
	switch v := info[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
