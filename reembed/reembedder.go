package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
)

// Config controls a re-embedding run.
type Config struct {
	// BatchSize is the number of chunks embedded per provider call.
	BatchSize int

	// ReportInterval is how many chunks pass between progress lines.
	ReportInterval int

	// MaxAttempts bounds provider calls per batch.
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns the default run settings.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxAttempts:    3,
		RetryDelay:     time.Second,
	}
}

// Result summarizes a finished run.
type Result struct {
	Documents int
	Chunks    int
	Elapsed   time.Duration
}

// Reembedder re-embeds every chunk of every completed document.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	iterator  *ChunkIterator
	processor *BatchProcessor
	logger    *slog.Logger
}

// NewReembedder creates a Reembedder. A nil config uses DefaultConfig and a
// nil progress writer discards progress output.
func NewReembedder(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
	logger *slog.Logger,
) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reembed")

	return &Reembedder{
		config:   config,
		progress: progress,
		iterator: NewChunkIterator(documents, chunks, config.BatchSize),
		processor: NewBatchProcessor(chunks, embedder, Backoff{
			Attempts:  config.MaxAttempts,
			BaseDelay: config.RetryDelay,
			Logger:    logger,
		}),
		logger: logger,
	}
}

// Run re-embeds all chunks. A failed batch stops the run; batches already
// written keep their new vectors.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	docs, total, err := r.iterator.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintln(r.progress, "No chunks to re-embed")
		return &Result{Documents: docs}, nil
	}

	fmt.Fprintf(r.progress, "Re-embedding %d chunks from %d documents (batch size %d)\n",
		total, docs, r.iterator.batchSize)
	tracker := NewProgress(r.progress, total, r.config.ReportInterval, "chunks")

	err = r.iterator.ForEach(ctx, func(batch []*core.Chunk) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return err
		}
		tracker.Add(len(batch))
		return nil
	})
	if err != nil {
		r.logger.Error("re-embedding stopped", "done", tracker.Done(), "total", total, "err", err)
		return &Result{Documents: docs, Chunks: tracker.Done(), Elapsed: tracker.Elapsed()}, err
	}
	tracker.Finish()

	res := &Result{Documents: docs, Chunks: tracker.Done(), Elapsed: tracker.Elapsed()}
	fmt.Fprintf(r.progress, "Re-embedding complete: %d chunks in %v\n", res.Chunks, res.Elapsed.Round(time.Millisecond))
	return res, nil
}
