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

// LinkRepository implements storage.LinkRepository for BadgerDB.
type LinkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.LinkRepository = (*LinkRepository)(nil)

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(backend *Backend) (*LinkRepository, error) {
	idSeq, err := backend.GetSequence(linkIDSeq)
	if err != nil {
		return nil, err
	}
	return &LinkRepository{backend: backend, idSeq: idSeq}, nil
}

// Close releases the ID sequence.
func (r *LinkRepository) Close() error {
	return r.idSeq.Release()
}

func (r *LinkRepository) AddLink(ctx context.Context, link *core.Link) (*core.Link, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		link.Id = core.ID(id)
		if link.CreatedAt.IsZero() {
			link.CreatedAt = time.Now().UTC()
		}
		if err := tx.Set(makeLinkKey(link.Id), storage.MarshalLink(link)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *LinkRepository) GetLink(ctx context.Context, id core.ID) (*core.Link, error) {
	var link *core.Link
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		link, err = readLink(tx, id)
		return err
	}, false)
	return link, err
}

func (r *LinkRepository) SetLinkActive(ctx context.Context, id core.ID, active bool) (*core.Link, error) {
	var link *core.Link
	err := r.backend.UpdateWithRetry(func(tx *badger.Txn) error {
		var err error
		link, err = readLink(tx, id)
		if err != nil {
			return err
		}
		link.Active = active
		return tx.Set(makeLinkKey(id), storage.MarshalLink(link))
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func readLink(tx *badger.Txn, id core.ID) (*core.Link, error) {
	item, err := tx.Get(makeLinkKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", storage.ErrLinkNotFound, id)
		}
		return nil, err
	}
	var link *core.Link
	err = item.Value(func(val []byte) error {
		var err error
		link, err = storage.UnmarshalLink(val)
		return err
	})
	return link, err
}
