package chat

import "errors"

var (
	// ErrConversationMismatch is returned when a conversation does not belong
	// to the referenced link or project.
	ErrConversationMismatch = errors.New("conversation does not belong to this link or project")

	// ErrLinkInactive is returned when chatting through a deactivated link.
	ErrLinkInactive = errors.New("link is inactive")

	// ErrProjectRequired is returned when a request names neither a link nor a project.
	ErrProjectRequired = errors.New("link or project required")

	// ErrEmptyMessage is returned for blank user text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrUnknownModel is returned for model IDs missing from the catalog.
	ErrUnknownModel = errors.New("unknown model")

	// ErrProviderNotRegistered is returned when no provider serves a model's family.
	ErrProviderNotRegistered = errors.New("no provider registered for model family")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrRouterRequired is returned when a router is not provided.
	ErrRouterRequired = errors.New("router required")

	// ErrLedgerRequired is returned when a ledger is not provided.
	ErrLedgerRequired = errors.New("ledger required")

	// ErrRepositoryRequired is returned when a storage repository is not provided.
	ErrRepositoryRequired = errors.New("repository required")
)
