package badger

import (
	"errors"
	"log/slog"
)

// Repositories bundles every BadgerDB repository sharing one Backend.
type Repositories struct {
	Backend       *Backend
	Documents     *DocumentRepository
	Chunks        *ChunkRepository
	Links         *LinkRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
}

// OpenRepositories opens the database at path and creates all repositories on it.
// Caller must Close the result when done.
func OpenRepositories(path string, logger *slog.Logger) (*Repositories, error) {
	backend, err := OpenBackend(path, false, logger)
	if err != nil {
		return nil, err
	}
	return newRepositories(backend)
}

func newRepositories(backend *Backend) (*Repositories, error) {
	repos := &Repositories{Backend: backend}
	var err error

	if repos.Documents, err = NewDocumentRepository(backend); err != nil {
		return nil, repos.closeAfter(err)
	}
	if repos.Chunks, err = NewChunkRepository(backend); err != nil {
		return nil, repos.closeAfter(err)
	}
	if repos.Links, err = NewLinkRepository(backend); err != nil {
		return nil, repos.closeAfter(err)
	}
	if repos.Messages, err = NewMessageRepository(backend); err != nil {
		return nil, repos.closeAfter(err)
	}
	if repos.Conversations, err = NewConversationRepository(backend, repos.Messages); err != nil {
		return nil, repos.closeAfter(err)
	}
	return repos, nil
}

func (r *Repositories) closeAfter(err error) error {
	return errors.Join(err, r.Close())
}

// Close releases every repository's sequence, then closes the backend.
func (r *Repositories) Close() error {
	var errs []error
	if r.Documents != nil {
		errs = append(errs, r.Documents.Close())
	}
	if r.Chunks != nil {
		errs = append(errs, r.Chunks.Close())
	}
	if r.Links != nil {
		errs = append(errs, r.Links.Close())
	}
	if r.Conversations != nil {
		errs = append(errs, r.Conversations.Close())
	}
	if r.Messages != nil {
		errs = append(errs, r.Messages.Close())
	}
	if r.Backend != nil && !r.Backend.IsClosed() {
		errs = append(errs, r.Backend.Close())
	}
	return errors.Join(errs...)
}
