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

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/ledger"
	"github.com/poiesic/pitchroom/notify"
	"github.com/poiesic/pitchroom/storage"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Retriever finds the chunks of a project relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, projectID core.ID, query string, k int) ([]*core.ScoredChunk, error)
}

// Completer produces a cited reply for a routed request.
type Completer interface {
	Complete(ctx context.Context, req RouteRequest) (*Reply, error)
}

// Ledger persists an exchange together with its usage. A conversation with a
// zero Id is created by the same call.
type Ledger interface {
	RecordExchange(ctx context.Context, conv *core.Conversation, ex ledger.Exchange) (*core.Conversation, error)
}

// Request is one investor question.
type Request struct {
	LinkID         core.ID // resolves the project when set
	ProjectID      core.ID // used when LinkID is zero
	ConversationID core.ID // zero starts a new conversation
	InvestorEmail  string
	Text           string
	ModelID        string
}

// Totals are a conversation's accumulated usage.
type Totals struct {
	TotalTokens int64
	CostUSD     float64
}

// Response is the assistant's answer and the updated conversation totals.
type Response struct {
	Message        *core.Message
	ConversationID core.ID
	Totals         Totals
}

// Service runs the synchronous chat flow.
type Service struct {
	links         storage.LinkRepository
	conversations storage.ConversationRepository
	messages      storage.MessageRepository
	retriever     Retriever
	completer     Completer
	ledger        Ledger
	notifier      notify.Notifier
	topK          int
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets how many chunks ground each answer.
func WithTopK(k int) Option {
	return func(s *Service) error {
		if k < 1 {
			return fmt.Errorf("top k must be positive, got %d", k)
		}
		s.topK = k
		return nil
	}
}

// WithNotifier sets where "investor.engaged" events go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) error {
		if n == nil {
			n = notify.Discard{}
		}
		s.notifier = n
		return nil
	}
}

// NewService creates a chat service.
func NewService(
	links storage.LinkRepository,
	conversations storage.ConversationRepository,
	messages storage.MessageRepository,
	retriever Retriever,
	completer Completer,
	ledger Ledger,
	opts ...Option,
) (*Service, error) {
	if links == nil || conversations == nil || messages == nil {
		return nil, ErrRepositoryRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if completer == nil {
		return nil, ErrRouterRequired
	}
	if ledger == nil {
		return nil, ErrLedgerRequired
	}

	s := &Service{
		links:         links,
		conversations: conversations,
		messages:      messages,
		retriever:     retriever,
		completer:     completer,
		ledger:        ledger,
		notifier:      notify.Discard{},
		topK:          DefaultTopK,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "chat")
	return s, nil
}

// Chat answers req. Nothing is persisted unless the completion succeeds:
// a new conversation, both messages and the usage totals are written by one
// ledger call after the provider replied, and a failure there writes nothing.
func (s *Service) Chat(ctx context.Context, req Request) (*Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	projectID, err := s.resolveProject(ctx, req)
	if err != nil {
		return nil, err
	}

	conv, history, err := s.loadConversation(ctx, req, projectID)
	if err != nil {
		return nil, err
	}

	sources, err := s.retriever.Retrieve(ctx, projectID, text, s.topK)
	if err != nil {
		return nil, err
	}

	history = append(history, ai.ChatMessage{Role: core.RoleUser, Content: text})
	reply, err := s.completer.Complete(ctx, RouteRequest{
		ModelID:      req.ModelID,
		History:      history,
		ContextBlock: AssembleContext(sources),
		Sources:      sources,
	})
	if err != nil {
		return nil, err
	}

	started := conv == nil
	if started {
		conv = &core.Conversation{
			LinkId:        req.LinkID,
			ProjectId:     projectID,
			InvestorEmail: req.InvestorEmail,
			IsActive:      true,
		}
	}

	// Both messages share one timestamp; message IDs keep them in order.
	now := time.Now().UTC()
	user := &core.Message{
		Role:       core.RoleUser,
		Content:    text,
		TokenCount: core.EstimateTokens(text),
		Timestamp:  now,
	}
	answer := &core.Message{
		Role:       core.RoleAssistant,
		Content:    reply.Content,
		TokenCount: reply.TokenCount,
		Citations:  reply.Citations,
		Timestamp:  now,
	}
	updated, err := s.ledger.RecordExchange(ctx, conv, ledger.Exchange{
		User:      user,
		Assistant: answer,
		CostModel: req.ModelID,
	})
	if err != nil {
		return nil, err
	}
	if started {
		s.engaged(ctx, updated)
	}

	s.logger.Info("answered question",
		"conversation_id", updated.Id, "project_id", projectID, "model", req.ModelID,
		"sources", len(sources), "citations", len(reply.Citations), "total_tokens", updated.TotalTokens)

	return &Response{
		Message:        answer,
		ConversationID: updated.Id,
		Totals:         Totals{TotalTokens: updated.TotalTokens, CostUSD: updated.CostUSD},
	}, nil
}

func (s *Service) resolveProject(ctx context.Context, req Request) (core.ID, error) {
	if req.LinkID == 0 {
		if req.ProjectID == 0 {
			return 0, ErrProjectRequired
		}
		return req.ProjectID, nil
	}

	link, err := s.links.GetLink(ctx, req.LinkID)
	if err != nil {
		return 0, err
	}
	if !link.Active {
		return 0, fmt.Errorf("%w: %d", ErrLinkInactive, link.Id)
	}
	if req.ProjectID != 0 && req.ProjectID != link.ProjectId {
		return 0, fmt.Errorf("%w: link %d serves project %d, not %d",
			ErrConversationMismatch, link.Id, link.ProjectId, req.ProjectID)
	}
	return link.ProjectId, nil
}

// loadConversation returns the existing conversation and its history, or a
// nil conversation when a new one should be started.
func (s *Service) loadConversation(ctx context.Context, req Request, projectID core.ID) (*core.Conversation, []ai.ChatMessage, error) {
	if req.ConversationID == 0 {
		return nil, nil, nil
	}

	conv, err := s.conversations.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv.ProjectId != projectID || (req.LinkID != 0 && conv.LinkId != req.LinkID) {
		return nil, nil, fmt.Errorf("%w: conversation %d", ErrConversationMismatch, conv.Id)
	}

	msgs, err := s.messages.GetMessages(ctx, conv.Id)
	if err != nil {
		return nil, nil, err
	}
	history := make([]ai.ChatMessage, 0, len(msgs)+1)
	for _, m := range msgs {
		history = append(history, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return conv, history, nil
}

func (s *Service) engaged(ctx context.Context, conv *core.Conversation) {
	err := s.notifier.Notify(ctx, notify.EventInvestorEngaged, notify.Payload{
		"conversation_id": uint64(conv.Id),
		"link_id":         uint64(conv.LinkId),
		"project_id":      uint64(conv.ProjectId),
		"investor_email":  conv.InvestorEmail,
	})
	if err != nil {
		s.logger.Warn("notification failed", "conversation_id", conv.Id, "err", err)
	}
}
