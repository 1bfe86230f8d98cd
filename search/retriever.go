// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
)

// Retriever finds the chunks of a project most similar to a query.
type Retriever struct {
	documents     storage.DocumentRepository
	chunks        storage.ChunkRepository
	embedder      ai.Embedder
	minSimilarity float32
	hasMin        bool
	logger        *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMinSimilarity drops chunks scoring below min.
// By default no threshold is applied.
func WithMinSimilarity(min float32) Option {
	return func(r *Retriever) error {
		if min < -1 || min > 1 {
			return fmt.Errorf("min similarity %v outside [-1, 1]", min)
		}
		r.minSimilarity = min
		r.hasMin = true
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Retriever, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		documents: documents,
		chunks:    chunks,
		embedder:  embedder,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")
	return r, nil
}

// Retrieve returns up to k chunks of projectID's completed documents,
// most similar to query first.
func (r *Retriever) Retrieve(ctx context.Context, projectID core.ID, query string, k int) ([]*core.ScoredChunk, error) {
	return r.RetrieveWithMonitor(ctx, projectID, query, k, nil)
}

// RetrieveWithMonitor is Retrieve with stage callbacks.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, projectID core.ID, query string, k int, monitor Monitor) ([]*core.ScoredChunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(projectID, query)

	if k <= 0 {
		monitor.Finish(nil)
		return []*core.ScoredChunk{}, nil
	}

	docs, err := r.documents.ListCompletedDocuments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		r.logger.Debug("no completed documents", "project_id", projectID)
		monitor.Finish(nil)
		return []*core.ScoredChunk{}, nil
	}

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingProvider, err)
	}
	monitor.AfterQueryEmbedding(len(queryVec))
	queryNorm := norm(queryVec)

	var scored []*core.ScoredChunk
	candidates := 0
	for _, doc := range docs {
		chunks, err := r.chunks.GetChunks(ctx, doc.Id)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if len(c.Embedding) != len(queryVec) {
				r.logger.Warn("skipping chunk with mismatched dimensions",
					"chunk_id", c.Id, "want", len(queryVec), "got", len(c.Embedding))
				continue
			}
			candidates++
			score := cosine(queryVec, c.Embedding, queryNorm)
			if r.hasMin && score < r.minSimilarity {
				continue
			}
			scored = append(scored, &core.ScoredChunk{Chunk: c, Score: score})
		}
	}
	monitor.AfterDocumentScan(len(docs), candidates)

	slices.SortFunc(scored, compareScored)
	if len(scored) > k {
		scored = scored[:k]
	}
	if scored == nil {
		scored = []*core.ScoredChunk{}
	}

	monitor.Finish(scored)
	return scored, nil
}

// compareScored orders by score descending, then document ID and chunk
// index ascending.
func compareScored(a, b *core.ScoredChunk) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.Chunk.DocumentId != b.Chunk.DocumentId:
		if a.Chunk.DocumentId < b.Chunk.DocumentId {
			return -1
		}
		return 1
	default:
		return a.Chunk.ChunkIndex - b.Chunk.ChunkIndex
	}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a and b given the norm of a.
// Zero vectors score 0.
func cosine(a, b []float32, normA float64) float32 {
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	s := dot / (normA * normB)
	return float32(math.Max(-1, math.Min(1, s)))
}
