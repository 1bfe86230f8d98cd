package storage

import (
	"context"

	"github.com/poiesic/pitchroom/core"
)

// DocumentRepository provides operations for managing uploaded documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument stores a new document.
	// Generates a new ID from sequence and sets CreatedAt/UpdatedAt.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments returns every document of a project, ordered by ID.
	ListDocuments(ctx context.Context, projectID core.ID) ([]*core.Document, error)

	// ListCompletedDocuments returns the project's documents in StatusCompleted.
	ListCompletedDocuments(ctx context.Context, projectID core.ID) ([]*core.Document, error)

	// ListDocumentsByStatus returns documents across all projects with the given status.
	ListDocumentsByStatus(ctx context.Context, status core.DocumentStatus) ([]*core.Document, error)

	// SetDocumentStatus moves a document to status, recording reason for failures.
	// Setting a terminal document to the status it already has is a no-op.
	// Moving a terminal document to a different status returns ErrInvalidTransition.
	SetDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, reason string) (*core.Document, error)

	// CompleteDocument marks a document completed and records its totals.
	CompleteDocument(ctx context.Context, id core.ID, tokenCount int64, pageEstimate int) (*core.Document, error)

	// DeleteDocument removes a document, its indices and its chunks in one
	// transaction and returns how many chunks went with it.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) (int, error)

	// Close releases repository resources.
	Close() error
}

// ChunkRepository provides operations for managing embedded chunks.
type ChunkRepository interface {
	// AddChunks appends chunks, generating IDs. Chunks of a document are
	// kept in ChunkIndex order regardless of insertion order.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks overwrites existing chunks in place, e.g. after re-embedding.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) error

	// GetChunks returns a document's chunks ordered by ChunkIndex.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// CountChunks returns the number of chunks stored for a document.
	CountChunks(ctx context.Context, documentID core.ID) (int, error)

	// DeleteChunks removes every chunk of a document and returns how many were removed.
	// Deleting the chunks of a document that has none is not an error.
	DeleteChunks(ctx context.Context, documentID core.ID) (int, error)

	// Close releases repository resources.
	Close() error
}

// LinkRepository provides operations for managing shareable links.
type LinkRepository interface {
	// AddLink stores a new link, generating its ID.
	AddLink(ctx context.Context, link *core.Link) (*core.Link, error)

	// GetLink retrieves a link by ID.
	// Returns ErrLinkNotFound if the link doesn't exist.
	GetLink(ctx context.Context, id core.ID) (*core.Link, error)

	// SetLinkActive enables or disables a link.
	SetLinkActive(ctx context.Context, id core.ID, active bool) (*core.Link, error)

	// Close releases repository resources.
	Close() error
}

// ConversationRepository provides operations for managing conversations.
type ConversationRepository interface {
	// CreateConversation stores a new conversation, generating its ID.
	// StartedAt is set if not already set.
	CreateConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error)

	// GetConversation retrieves a conversation by ID.
	// Returns ErrConversationNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error)

	// AppendExchange stores msgs under the conversation and adds tokens and
	// cost to its totals in one transaction, so either all of it is written or
	// none of it is. A conversation with a zero Id is created in the same
	// transaction. Message IDs are generated in argument order and Timestamp
	// is set if not already set. Concurrent appends to one conversation never
	// lose an increment.
	AppendExchange(ctx context.Context, conv *core.Conversation, msgs []*core.Message, tokens int64, costUSD float64) (*core.Conversation, error)

	// Close releases repository resources.
	Close() error
}

// MessageRepository provides operations for the message log of conversations.
type MessageRepository interface {
	// GetMessages returns a conversation's messages ordered by timestamp then ID.
	GetMessages(ctx context.Context, conversationID core.ID) ([]*core.Message, error)

	// Close releases repository resources.
	Close() error
}
