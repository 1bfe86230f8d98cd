package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
)

// BatchProcessor re-embeds one batch of chunks and writes them back.
type BatchProcessor struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	backoff  Backoff
}

// NewBatchProcessor creates a processor that retries embedding per backoff.
func NewBatchProcessor(chunks storage.ChunkRepository, embedder ai.Embedder, backoff Backoff) *BatchProcessor {
	return &BatchProcessor{chunks: chunks, embedder: embedder, backoff: backoff}
}

// Process embeds the batch contents in one provider call and stores the
// normalized vectors.
func (bp *BatchProcessor) Process(ctx context.Context, batch []*core.Chunk) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	var vectors [][]float32
	err := bp.backoff.Do(ctx, func(ctx context.Context) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %d attempts: %w", ai.ErrEmbeddingProvider, bp.backoff.Attempts, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(vectors))
	}

	for i, c := range batch {
		c.Embedding = Normalize(vectors[i])
	}
	if err := bp.chunks.UpdateChunks(ctx, batch...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
