package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/chunk"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/extract"
	"github.com/poiesic/pitchroom/storage"
)

// indexer chunks extracted text, embeds each chunk and persists it.
type indexer struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	chunker  *chunk.Chunker
	logger   *slog.Logger
}

// indexResult summarizes what was written for a document.
type indexResult struct {
	chunks int
	tokens int64
}

// index embeds and stores chunks one at a time so that chunk i+1 is only
// requested once chunk i is persisted. Chunk indices run 0..n-1 across all
// sections of the extraction.
func (ix *indexer) index(ctx context.Context, doc *core.Document, ext *extract.Extraction) (indexResult, error) {
	var res indexResult
	for _, section := range ext.Sections {
		for _, content := range ix.chunker.Split(section.Text) {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			vector, err := ix.embedder.EmbedText(ctx, content)
			if err != nil {
				return res, fmt.Errorf("%w: chunk %d: %w", ai.ErrEmbeddingProvider, res.chunks, err)
			}

			tokens := core.EstimateTokens(content)
			c := &core.Chunk{
				DocumentId: doc.Id,
				ProjectId:  doc.ProjectId,
				Content:    content,
				Embedding:  vector,
				Metadata: core.ChunkMetadata{
					SourceFilename: doc.OriginalName,
					Page:           section.Page,
					Sheet:          section.Sheet,
					ChunkIndex:     res.chunks,
				},
				TokenCount: tokens,
				ChunkIndex: res.chunks,
			}
			if _, err := ix.chunks.AddChunks(ctx, c); err != nil {
				return res, fmt.Errorf("failed to store chunk %d: %w", res.chunks, err)
			}

			res.chunks++
			res.tokens += int64(tokens)
		}
	}

	ix.logger.Debug("indexed document", "document_id", doc.Id, "chunks", res.chunks, "tokens", res.tokens)
	return res, nil
}
