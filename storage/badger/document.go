package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocument stores a new document with a freshly generated ID.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc != nil && doc.Status == 0 {
		doc.Status = core.StatusProcessing
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		doc.Id = core.ID(id)

		doc.CreatedAt = time.Now().UTC()
		doc.UpdatedAt = doc.CreatedAt

		if err := r.writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
		return err
	}, false)
	return result, err
}

// ListDocuments returns every document of a project, ordered by ID.
func (r *DocumentRepository) ListDocuments(ctx context.Context, projectID core.ID) ([]*core.Document, error) {
	return r.listByIndex(makePartialDocumentProjectKey(projectID), nil)
}

// ListCompletedDocuments returns the project's completed documents.
func (r *DocumentRepository) ListCompletedDocuments(ctx context.Context, projectID core.ID) ([]*core.Document, error) {
	return r.listByIndex(makePartialDocumentProjectKey(projectID), func(doc *core.Document) bool {
		return doc.Status == core.StatusCompleted
	})
}

// ListDocumentsByStatus returns documents across all projects with the given status.
func (r *DocumentRepository) ListDocumentsByStatus(ctx context.Context, status core.DocumentStatus) ([]*core.Document, error) {
	return r.listByIndex(makePartialDocumentStatusKey(status), nil)
}

// SetDocumentStatus moves a document to status.
func (r *DocumentRepository) SetDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, reason string) (*core.Document, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}
	return r.update(id, func(doc *core.Document) (bool, error) {
		if doc.Status == status && doc.Status.Terminal() {
			return false, nil
		}
		if doc.Status.Terminal() {
			return false, fmt.Errorf("%w: %s -> %s", storage.ErrInvalidTransition, doc.Status, status)
		}
		doc.Status = status
		if status == core.StatusFailed {
			doc.Error = reason
		}
		return true, nil
	})
}

// CompleteDocument marks a processing document completed with its totals.
func (r *DocumentRepository) CompleteDocument(ctx context.Context, id core.ID, tokenCount int64, pageEstimate int) (*core.Document, error) {
	return r.update(id, func(doc *core.Document) (bool, error) {
		if doc.Status == core.StatusCompleted {
			return false, nil
		}
		if doc.Status.Terminal() {
			return false, fmt.Errorf("%w: %s -> %s", storage.ErrInvalidTransition, doc.Status, core.StatusCompleted)
		}
		doc.Status = core.StatusCompleted
		doc.TokenCount = tokenCount
		doc.PageEstimate = pageEstimate
		doc.Error = ""
		return true, nil
	})
}

// DeleteDocument removes a document, its indices and every chunk stored
// under it. All deletes share one transaction, so a completed document never
// loses its chunks while it is still listed.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) (int, error) {
	removed := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialChunkKey(id)
		iter := tx.NewIterator(opts)
		var chunkKeys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunkKeys = append(chunkKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()
		for _, key := range chunkKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeDocumentStatusKey(doc.Status, doc.Id)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentProjectKey(doc.ProjectId, doc.Id)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentKey(doc.Id)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		removed = len(chunkKeys)
		return nil
	}, true)
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// update applies fn to the stored document under optimistic concurrency.
// fn reports whether it changed the document; unchanged documents are not rewritten.
func (r *DocumentRepository) update(id core.ID, fn func(doc *core.Document) (bool, error)) (*core.Document, error) {
	var result *core.Document
	err := r.backend.UpdateWithRetry(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		oldStatus := doc.Status

		changed, err := fn(doc)
		if err != nil {
			return err
		}
		result = doc
		if !changed {
			return nil
		}

		doc.UpdatedAt = time.Now().UTC()
		if oldStatus != doc.Status {
			if err := tx.Delete(makeDocumentStatusKey(oldStatus, doc.Id)); err != nil {
				return err
			}
		}
		return r.writeDocument(tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// writeDocument stores the primary record and its project and status indices.
func (r *DocumentRepository) writeDocument(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
		return err
	}
	if err := tx.Set(makeDocumentProjectKey(doc.ProjectId, doc.Id), nil); err != nil {
		return err
	}
	return tx.Set(makeDocumentStatusKey(doc.Status, doc.Id), nil)
}

// listByIndex resolves every document ID under an index prefix.
func (r *DocumentRepository) listByIndex(prefix []byte, keep func(*core.Document) bool) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			doc, err := readDocument(tx, lastID(iter.Item().Key()))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if keep == nil || keep(doc) {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", storage.ErrDocumentNotFound, id)
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
