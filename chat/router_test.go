package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/ai/mock"
	"github.com/poiesic/pitchroom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	r, err := c.Lookup("claude-3-5-sonnet")
	require.NoError(t, err)
	assert.Equal(t, ai.FamilyClaude, r.Family)
	assert.Equal(t, "claude-3-5-sonnet-20241022", r.ProviderModel)

	r, err = c.Lookup(" Gemini-1.5-Flash ")
	require.NoError(t, err)
	assert.Equal(t, ai.FamilyGemini, r.Family)

	_, err = c.Lookup("llama-3")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRouter_DispatchesByFamily(t *testing.T) {
	openai := mock.NewMockCompleter(ai.FamilyOpenAI, "from openai")
	claude := mock.NewMockCompleter(ai.FamilyClaude, "from claude")
	gemini := mock.NewMockCompleter(ai.FamilyGemini, "from gemini")

	r := NewRouter(nil, nil)
	r.Register(openai)
	r.Register(claude)
	r.Register(gemini)
	assert.Equal(t, []ai.Family{ai.FamilyOpenAI, ai.FamilyClaude, ai.FamilyGemini}, r.Families())

	tests := []struct {
		model string
		want  string
		used  *mock.MockCompleter
	}{
		{"gpt-4o-mini", "from openai", openai},
		{"claude-3-haiku", "from claude", claude},
		{"gemini-1.5-pro", "from gemini", gemini},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			reply, err := r.Complete(context.Background(), RouteRequest{
				ModelID: tt.model,
				History: []ai.ChatMessage{{Role: core.RoleUser, Content: "Hi"}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Content)

			req := tt.used.LastRequest()
			assert.Equal(t, DefaultCatalog()[tt.model].ProviderModel, req.Model)
			assert.Equal(t, Temperature, req.Temperature)
			assert.Equal(t, MaxOutputTokens, req.MaxTokens)
			assert.Contains(t, req.System, NoDocumentsContext)
		})
	}
}

func TestRouter_Errors(t *testing.T) {
	r := NewRouter(nil, nil)

	_, err := r.Complete(context.Background(), RouteRequest{ModelID: "nope"})
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = r.Complete(context.Background(), RouteRequest{ModelID: "gpt-4o"})
	assert.ErrorIs(t, err, ErrProviderNotRegistered)

	failing := mock.NewMockCompleter(ai.FamilyOpenAI, "")
	failing.CompleteFunc = func(context.Context, ai.CompletionRequest) (*ai.Completion, error) {
		return nil, errors.New("429 too many requests")
	}
	r.Register(failing)

	_, err = r.Complete(context.Background(), RouteRequest{ModelID: "gpt-4o"})
	assert.ErrorIs(t, err, ai.ErrCompletionProvider)
	assert.Equal(t, 1, failing.CallCount(), "provider errors are not retried")
}

func TestRouter_UsesReportedUsage(t *testing.T) {
	c := mock.NewMockCompleter(ai.FamilyOpenAI, "")
	c.CompleteFunc = func(context.Context, ai.CompletionRequest) (*ai.Completion, error) {
		return &ai.Completion{Content: "ok", PromptTokens: 321, CompletionTokens: 12, UsageReported: true}, nil
	}
	r := NewRouter(nil, nil)
	r.Register(c)

	reply, err := r.Complete(context.Background(), RouteRequest{ModelID: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, 12, reply.TokenCount)
	assert.Equal(t, 321, reply.PromptTokens)
}

func TestCite(t *testing.T) {
	long := strings.Repeat("é", 250)
	sources := []*core.ScoredChunk{
		scored("decks/Pitch-Deck.pdf", 2, "", long),
		scored("Pitch-Deck.pdf", 2, "", "duplicate page"),
		scored("Pitch-Deck.pdf", 5, "", "other page"),
		scored("metrics.xlsx", 0, "KPIs", "ARR | 2.4M"),
		scored("a.md", 0, "", "short stem"),
		scored("unmentioned.txt", 0, "", "never cited"),
	}

	got := Cite("Per the pitch-deck and METRICS, ARR is $2.4M (see a).", sources)
	require.Len(t, got, 4)

	assert.Equal(t, "decks/Pitch-Deck.pdf", got[0].Source)
	assert.Equal(t, 2, got[0].Page)
	assert.Equal(t, strings.Repeat("é", 200), got[0].Excerpt)

	assert.Equal(t, "Pitch-Deck.pdf", got[1].Source)
	assert.Equal(t, 2, got[1].Page)
	assert.Equal(t, "duplicate page", got[1].Excerpt)

	assert.Equal(t, 5, got[2].Page)
	assert.Equal(t, "metrics.xlsx", got[3].Source)

	assert.Empty(t, Cite("nothing relevant", sources))

	// Short stems only match through the full file name.
	byName := Cite("Details are in A.md.", sources)
	require.Len(t, byName, 1)
	assert.Equal(t, "a.md", byName[0].Source)
	assert.Equal(t, "short stem", byName[0].Excerpt)
}
