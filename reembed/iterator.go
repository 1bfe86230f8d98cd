package reembed

import (
	"context"

	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
)

// DefaultBatchSize is the number of chunks handed to each callback.
const DefaultBatchSize = 100

// ChunkIterator walks the chunks of every completed document in batches.
type ChunkIterator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates an iterator. Non-positive batch sizes use DefaultBatchSize.
func NewChunkIterator(documents storage.DocumentRepository, chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{documents: documents, chunks: chunks, batchSize: batchSize}
}

// Count returns the number of completed documents and their chunks.
func (it *ChunkIterator) Count(ctx context.Context) (documents, chunks int, err error) {
	docs, err := it.documents.ListDocumentsByStatus(ctx, core.StatusCompleted)
	if err != nil {
		return 0, 0, err
	}
	for _, doc := range docs {
		n, err := it.chunks.CountChunks(ctx, doc.Id)
		if err != nil {
			return 0, 0, err
		}
		chunks += n
	}
	return len(docs), chunks, nil
}

// ForEach calls fn with consecutive batches of at most batchSize chunks.
// A batch may span documents. Iteration stops at the first error from fn
// or when ctx is done.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	docs, err := it.documents.ListDocumentsByStatus(ctx, core.StatusCompleted)
	if err != nil {
		return err
	}

	batch := make([]*core.Chunk, 0, it.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.Chunk, 0, it.batchSize)
		return ctx.Err()
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunks, err := it.chunks.GetChunks(ctx, doc.Id)
		if err != nil {
			return err
		}
		for _, c := range chunks {
			batch = append(batch, c)
			if len(batch) == it.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}
