package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/pitchroom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestMessageContents(t *testing.T) {
	msgs := MessageContents("be brief", []ChatMessage{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, msgs[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[2].Role)

	assert.Len(t, MessageContents("", nil), 0)
}

func TestGenerate_ReportedUsage(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        " Our ARR is $2.4M. ",
		GenerationInfo: map[string]any{"PromptTokens": 120, "CompletionTokens": 8},
	}}}}
	req := CompletionRequest{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 1024}

	c, err := Generate(context.Background(), model, FamilyOpenAI, req, nil,
		UsageKeys{Prompt: "PromptTokens", Completion: "CompletionTokens"})
	require.NoError(t, err)
	assert.Equal(t, "Our ARR is $2.4M.", c.Content)
	assert.Equal(t, 120, c.PromptTokens)
	assert.Equal(t, 8, c.CompletionTokens)
	assert.True(t, c.UsageReported)

	assert.Equal(t, "gpt-4o", model.opts.Model)
	assert.Equal(t, 1024, model.opts.MaxTokens)
	assert.InDelta(t, 0.7, model.opts.Temperature, 1e-9)
}

func TestGenerate_EstimatesMissingUsage(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "abcdefgh"}}}}
	req := CompletionRequest{System: "abcd", Messages: []ChatMessage{{Role: core.RoleUser, Content: "abcd"}}}

	c, err := Generate(context.Background(), model, FamilyGemini, req, nil,
		UsageKeys{Prompt: "input_tokens", Completion: "output_tokens"})
	require.NoError(t, err)
	assert.False(t, c.UsageReported)
	assert.Equal(t, 2, c.PromptTokens)
	assert.Equal(t, 2, c.CompletionTokens)
}

func TestGenerate_WrapsFailures(t *testing.T) {
	cause := errors.New("rate limited")
	_, err := Generate(context.Background(), &fakeModel{err: cause}, FamilyClaude, CompletionRequest{}, nil, UsageKeys{})
	assert.ErrorIs(t, err, ErrCompletionProvider)
	assert.ErrorIs(t, err, cause)

	_, err = Generate(context.Background(), &fakeModel{resp: &llms.ContentResponse{}}, FamilyClaude, CompletionRequest{}, nil, UsageKeys{})
	assert.ErrorIs(t, err, ErrCompletionProvider)
}
