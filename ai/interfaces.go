package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/pitchroom/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Family identifies a completion vendor. Every model the platform offers
// belongs to exactly one family.
type Family int

const (
	FamilyOpenAI Family = iota + 1
	FamilyClaude
	FamilyGemini
)

// String returns the lowercase family name.
func (f Family) String() string {
	switch f {
	case FamilyOpenAI:
		return "openai"
	case FamilyClaude:
		return "claude"
	case FamilyGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// ParseFamily parses a family name as produced by String.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return FamilyOpenAI, nil
	case "claude", "anthropic":
		return FamilyClaude, nil
	case "gemini", "google", "googleai":
		return FamilyGemini, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
	}
}

// ChatMessage is one turn of the history sent to a completion provider.
type ChatMessage struct {
	Role    core.Role
	Content string
}

// CompletionRequest carries everything a provider needs for one reply.
type CompletionRequest struct {
	// Model is the vendor's model identifier.
	Model       string
	System      string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Completion is a provider's reply with its usage.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	// UsageReported is false when the token counts are estimates.
	UsageReported bool
}

// CompletionProvider answers chat requests for a single model family.
// Implementations must be thread-safe for concurrent use.
type CompletionProvider interface {
	Family() Family
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Provider aggregates AI services that share one client and configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the chat completion service.
	Completer() CompletionProvider

	// Close releases resources held by the provider and its services.
	Close() error
}

// EstimateUsage fills in token counts from the 4 chars per token heuristic
// when the vendor did not report them.
func EstimateUsage(c *Completion, req CompletionRequest) {
	if c.UsageReported {
		return
	}
	prompt := core.EstimateTokens(req.System)
	for _, m := range req.Messages {
		prompt += core.EstimateTokens(m.Content)
	}
	c.PromptTokens = prompt
	c.CompletionTokens = core.EstimateTokens(c.Content)
}
