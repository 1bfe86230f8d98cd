package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "none", cfg.EmbeddingKey)
	assert.Empty(t, cfg.Families())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Zero(t, cfg.EmbeddingRPS)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingKey("sk-embed"),
			WithOpenAIKey("sk-openai"),
			WithGoogleKey("g-key"),
			WithEmbeddingRPS(5),
		)

		assert.Equal(t, "http://embed:8080", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "sk-embed", cfg.EmbeddingKey)
		assert.Equal(t, 5.0, cfg.EmbeddingRPS)
		assert.Equal(t, []Family{FamilyOpenAI, FamilyGemini}, cfg.Families())
	})

	t.Run("anthropic key enables claude", func(t *testing.T) {
		cfg := NewConfig(WithAnthropicKey("a-key"))

		assert.Equal(t, []Family{FamilyClaude}, cfg.Families())
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{
			name:     "already has /v1",
			host:     "http://localhost:11434/v1",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "missing /v1",
			host:     "http://localhost:11434",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "has trailing slash",
			host:     "http://localhost:11434/",
			expected: "http://localhost:11434/v1",
		},
		{
			name:     "empty host",
			host:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, OpenAIHost: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.OpenAIHost)
			assert.Equal(t, "none", cfg.EmbeddingKey)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{
			EmbeddingHost:  "http://localhost:11434",
			EmbeddingModel: "embeddinggemma",
		}

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := &Config{EmbeddingModel: "embeddinggemma"}

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "EmbeddingHost")
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434/v1"}

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})

	t.Run("negative rate", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingRPS(-1))

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("openai key without host", func(t *testing.T) {
		cfg := NewConfig(WithOpenAIKey("sk"), WithOpenAIHost(""))

		err := cfg.Validate()
		assert.Contains(t, err.Error(), "OpenAIHost")
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())
}

func TestParseFamily(t *testing.T) {
	for _, f := range []Family{FamilyOpenAI, FamilyClaude, FamilyGemini} {
		got, err := ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseFamily("Anthropic")
	require.NoError(t, err)
	assert.Equal(t, FamilyClaude, got)

	_, err = ParseFamily("mistral")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestEstimateUsage(t *testing.T) {
	req := CompletionRequest{
		System:   "abcdefgh",
		Messages: []ChatMessage{{Content: "abcde"}},
	}

	c := &Completion{Content: "abc"}
	EstimateUsage(c, req)
	assert.Equal(t, 4, c.PromptTokens)
	assert.Equal(t, 1, c.CompletionTokens)

	reported := &Completion{Content: "abc", PromptTokens: 99, CompletionTokens: 7, UsageReported: true}
	EstimateUsage(reported, req)
	assert.Equal(t, 99, reported.PromptTokens)
}
