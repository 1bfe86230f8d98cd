package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return []float32{1}, nil
}

func (c *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestNewRateLimitedEmbedder_Disabled(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, NewRateLimitedEmbedder(inner, 0, 1))
}

func TestRateLimitedEmbedder_Delegates(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewRateLimitedEmbedder(inner, 1000, 10)

	_, err := e.EmbedText(context.Background(), "a")
	require.NoError(t, err)
	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 2, inner.calls)
}

func TestRateLimitedEmbedder_CancelledContext(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewRateLimitedEmbedder(inner, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EmbedText(ctx, "a")
	assert.Error(t, err)
	assert.Zero(t, inner.calls)
}
