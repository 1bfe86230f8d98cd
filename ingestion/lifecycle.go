package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/notify"
	"github.com/poiesic/pitchroom/storage"
)

const (
	charsPerWord = 5
	wordsPerPage = 500
)

// PageEstimate approximates the page count of a text of chars characters.
func PageEstimate(chars int) int {
	return int(math.Ceil(float64(chars) / charsPerWord / wordsPerPage))
}

// lifecycle owns the status transitions of a document.
type lifecycle struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	notifier  notify.Notifier
	logger    *slog.Logger
}

// begin loads a document and clears chunks left by an interrupted run.
// It reports false when the document already reached a terminal state.
func (l *lifecycle) begin(ctx context.Context, id core.ID) (*core.Document, bool, error) {
	doc, err := l.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if doc.Status.Terminal() {
		return doc, false, nil
	}
	if n, err := l.chunks.DeleteChunks(ctx, id); err != nil {
		return nil, false, fmt.Errorf("failed to purge chunks: %w", err)
	} else if n > 0 {
		l.logger.Info("purged chunks from earlier run", "document_id", id, "chunks", n)
	}
	return doc, true, nil
}

// complete records aggregate stats and marks the document completed.
func (l *lifecycle) complete(ctx context.Context, doc *core.Document, res indexResult, chars int) (*core.Document, error) {
	done, err := l.documents.CompleteDocument(ctx, doc.Id, res.tokens, PageEstimate(chars))
	if err != nil {
		return nil, err
	}
	l.logger.Info("document completed",
		"document_id", done.Id, "chunks", res.chunks, "tokens", done.TokenCount, "pages", done.PageEstimate)
	l.notify(ctx, done)
	return done, nil
}

// fail purges every chunk of the document before flipping it to failed, so a
// failed document never exposes partial content.
func (l *lifecycle) fail(ctx context.Context, doc *core.Document, cause error) (*core.Document, error) {
	if _, err := l.chunks.DeleteChunks(ctx, doc.Id); err != nil {
		return nil, fmt.Errorf("failed to purge chunks: %w", err)
	}
	failed, err := l.documents.SetDocumentStatus(ctx, doc.Id, core.StatusFailed, cause.Error())
	if err != nil {
		return nil, err
	}
	l.logger.Warn("document failed", "document_id", doc.Id, "err", cause)
	l.notify(ctx, failed)
	return failed, nil
}

func (l *lifecycle) notify(ctx context.Context, doc *core.Document) {
	err := l.notifier.Notify(ctx, notify.EventDocumentProcessed, notify.Payload{
		"document_id": uint64(doc.Id),
		"project_id":  uint64(doc.ProjectId),
		"filename":    doc.OriginalName,
		"status":      doc.Status.String(),
		"token_count": doc.TokenCount,
	})
	if err != nil {
		l.logger.Warn("notification failed", "document_id", doc.Id, "err", err)
	}
}
