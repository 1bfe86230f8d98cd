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

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend  *Backend
	idSeq    *badger.Sequence
	messages *MessageRepository
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository. Exchanges
// draw message IDs from the messages repository's sequence.
func NewConversationRepository(backend *Backend, messages *MessageRepository) (*ConversationRepository, error) {
	if messages == nil {
		return nil, fmt.Errorf("%w: message repository is required", storage.ErrInvalidQuery)
	}
	idSeq, err := backend.GetSequence(conversationIDSeq)
	if err != nil {
		return nil, err
	}
	return &ConversationRepository{backend: backend, idSeq: idSeq, messages: messages}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// CreateConversation stores a new conversation with a freshly generated ID.
func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		conv.Id = core.ID(id)
		if conv.StartedAt.IsZero() {
			conv.StartedAt = time.Now().UTC()
		}
		if err := tx.Set(makeConversationKey(conv.Id), storage.MarshalConversation(conv)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// GetConversation retrieves a conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	var conv *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		conv, err = readConversation(tx, id)
		return err
	}, false)
	return conv, err
}

// AppendExchange writes the messages, the conversation and its new totals
// in one transaction. IDs are drawn before the transaction starts, so a failed
// append may leave gaps in the sequences but never a partial exchange. The
// conversation read and write share the transaction; a commit that races
// another exchange fails with badger.ErrConflict and is retried.
func (r *ConversationRepository) AppendExchange(ctx context.Context, conv *core.Conversation, msgs []*core.Message, tokens int64, costUSD float64) (*core.Conversation, error) {
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation is nil", storage.ErrInvalidQuery)
	}
	if tokens < 0 || costUSD < 0 {
		return nil, fmt.Errorf("%w: negative increment", storage.ErrInvalidQuery)
	}

	now := time.Now().UTC()
	for _, msg := range msgs {
		if msg != nil && msg.Timestamp.IsZero() {
			msg.Timestamp = now
		}
		if err := core.ValidateMessage(msg); err != nil {
			return nil, err
		}
	}

	convID := conv.Id
	if convID == 0 {
		id, err := nextID(r.idSeq)
		if err != nil {
			return nil, err
		}
		convID = core.ID(id)
	}
	for _, msg := range msgs {
		id, err := nextID(r.messages.idSeq)
		if err != nil {
			return nil, err
		}
		msg.Id = core.ID(id)
		msg.ConversationId = convID
	}

	var updated *core.Conversation
	err := r.backend.UpdateWithRetry(func(tx *badger.Txn) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if conv.Id == 0 {
			fresh := *conv
			fresh.Id = convID
			if fresh.StartedAt.IsZero() {
				fresh.StartedAt = now
			}
			updated = &fresh
		} else {
			var err error
			updated, err = readConversation(tx, convID)
			if err != nil {
				return err
			}
		}
		updated.TotalTokens += tokens
		updated.CostUSD += costUSD
		if err := tx.Set(makeConversationKey(convID), storage.MarshalConversation(updated)); err != nil {
			return err
		}
		for _, msg := range msgs {
			key := makeMessageKey(convID, msg.Timestamp, msg.Id)
			if err := tx.Set(key, storage.MarshalMessage(msg)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func readConversation(tx *badger.Txn, id core.ID) (*core.Conversation, error) {
	item, err := tx.Get(makeConversationKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %d", storage.ErrConversationNotFound, id)
		}
		return nil, err
	}
	var conv *core.Conversation
	err = item.Value(func(val []byte) error {
		var err error
		conv, err = storage.UnmarshalConversation(val)
		return err
	})
	return conv, err
}
