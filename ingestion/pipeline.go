package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/chunk"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/extract"
	"github.com/poiesic/pitchroom/notify"
	"github.com/poiesic/pitchroom/storage"
)

// Pipeline processes uploaded documents on a worker pool.
type Pipeline struct {
	documents storage.DocumentRepository
	pool      *ants.Pool
	proc      processor

	poolSize      int
	maxChunkChars int
	extractor     *extract.Extractor
	notifier      notify.Notifier
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[core.ID]struct{}
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many documents are processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithMaxChunkChars sets the chunk size bound in characters.
// Default is chunk.DefaultMaxChunkChars.
func WithMaxChunkChars(n int) Option {
	return func(p *Pipeline) error {
		p.maxChunkChars = n
		return nil
	}
}

// WithExtractor sets the text extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Pipeline) error {
		p.extractor = e
		return nil
	}
}

// WithNotifier sets where "document.processed" events go.
// Default discards them.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) error {
		p.notifier = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	files FileReader,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if files == nil {
		return nil, ErrFileReaderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	p := &Pipeline{
		documents:     documents,
		poolSize:      poolSize,
		maxChunkChars: chunk.DefaultMaxChunkChars,
		notifier:      notify.Discard{},
		logger:        slog.Default(),
		inflight:      make(map[core.ID]struct{}),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.extractor == nil {
		e, err := extract.New(extract.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.extractor = e
	}
	if p.notifier == nil {
		p.notifier = notify.Discard{}
	}
	p.logger = p.logger.With("component", "ingestion")

	pool, err := ants.NewPool(p.poolSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.proc = &documentProcessor{
		files:     files,
		extractor: p.extractor,
		indexer: &indexer{
			chunks:   chunks,
			embedder: embedder,
			chunker:  chunk.New(p.maxChunkChars),
			logger:   p.logger,
		},
		lifecycle: &lifecycle{
			documents: documents,
			chunks:    chunks,
			notifier:  p.notifier,
			logger:    p.logger,
		},
	}

	return p, nil
}

// Submit queues a document for processing and returns immediately.
// Errors during processing are recorded on the document and logged.
func (p *Pipeline) Submit(id core.ID) error {
	if err := p.acquire(id); err != nil {
		return err
	}
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		defer p.release(id)
		if _, err := p.proc.process(p.ctx, id); err != nil {
			p.logger.Error("error processing document", "document_id", id, "err", err)
		}
	})
	if err != nil {
		p.wg.Done()
		p.release(id)
		return err
	}
	p.logger.Debug("queued document", "document_id", id)
	return nil
}

// Process runs a document to completion on the calling goroutine and
// returns its final state.
func (p *Pipeline) Process(ctx context.Context, id core.ID) (*core.Document, error) {
	if err := p.acquire(id); err != nil {
		return nil, err
	}
	defer p.release(id)
	return p.proc.process(ctx, id)
}

// Recover queues every document still marked processing, such as those
// interrupted by a crash, and returns how many were queued.
func (p *Pipeline) Recover(ctx context.Context) (int, error) {
	docs, err := p.documents.ListDocumentsByStatus(ctx, core.StatusProcessing)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, doc := range docs {
		if err := p.Submit(doc.Id); err != nil {
			p.logger.Warn("skipping recovery", "document_id", doc.Id, "err", err)
			continue
		}
		queued++
	}
	if queued > 0 {
		p.logger.Info("recovering documents", "count", queued)
	}
	return queued, nil
}

// Wait blocks until every submitted document has been processed.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release cancels running work and frees the worker pool. Documents that
// were interrupted stay in processing until the next Recover.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) acquire(id core.ID) error {
	if p.ctx.Err() != nil {
		return ErrPipelineReleased
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inflight[id]; busy {
		return ErrAlreadyProcessing
	}
	p.inflight[id] = struct{}{}
	return nil
}

func (p *Pipeline) release(id core.ID) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.mu.Unlock()
}
