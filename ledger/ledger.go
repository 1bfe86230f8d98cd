// Package ledger accounts for token usage and platform cost per conversation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
)

var (
	// ErrConversationRepositoryRequired is returned when a conversation repository is not provided.
	ErrConversationRepositoryRequired = errors.New("conversation repository required")

	// ErrNegativeTokens is returned for negative token counts.
	ErrNegativeTokens = errors.New("token counts must not be negative")
)

// DefaultRate is charged per thousand tokens for models missing from a RateTable.
const DefaultRate = 0.002

// RateTable maps a platform model ID to its USD price per thousand tokens.
type RateTable map[string]float64

// DefaultRates returns the platform price list.
func DefaultRates() RateTable {
	return RateTable{
		"gpt-4o":            0.01,
		"gpt-4o-mini":       0.0006,
		"claude-3-5-sonnet": 0.015,
		"claude-3-haiku":    0.00125,
		"gemini-1.5-pro":    0.007,
		"gemini-1.5-flash":  0.00035,
	}
}

// Rate returns the per-thousand-token price of model. Lookup ignores case.
func (t RateTable) Rate(model string) float64 {
	if r, ok := t[model]; ok {
		return r
	}
	if r, ok := t[strings.ToLower(strings.TrimSpace(model))]; ok {
		return r
	}
	return DefaultRate
}

// Cost returns the platform cost of tokens charged at model's rate.
func (t RateTable) Cost(model string, tokens int64) float64 {
	return float64(tokens) / 1000 * t.Rate(model)
}

// Ledger adds exchange usage to conversation totals.
type Ledger struct {
	conversations storage.ConversationRepository
	rates         RateTable
	logger        *slog.Logger
}

// New creates a Ledger. A nil rates table uses DefaultRates.
func New(conversations storage.ConversationRepository, rates RateTable, logger *slog.Logger) (*Ledger, error) {
	if conversations == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if rates == nil {
		rates = DefaultRates()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		conversations: conversations,
		rates:         rates,
		logger:        logger.With("component", "ledger"),
	}, nil
}

// Rates returns the table the ledger charges from.
func (l *Ledger) Rates() RateTable {
	return l.rates
}

// Exchange is one investor question and the assistant's answer.
type Exchange struct {
	User      *core.Message
	Assistant *core.Message
	CostModel string // model ID the exchange is charged at
}

// RecordExchange stores the exchange's messages and adds their tokens and
// cost to the conversation totals in one atomic step, then returns the
// updated conversation. A conversation with a zero Id is created by the same
// step. On error nothing has been written.
func (l *Ledger) RecordExchange(ctx context.Context, conv *core.Conversation, ex Exchange) (*core.Conversation, error) {
	if ex.User == nil || ex.Assistant == nil {
		return nil, fmt.Errorf("%w: exchange needs a user and an assistant message", core.ErrInvalidMessage)
	}
	if ex.User.TokenCount < 0 || ex.Assistant.TokenCount < 0 {
		return nil, fmt.Errorf("%w: user=%d assistant=%d", ErrNegativeTokens, ex.User.TokenCount, ex.Assistant.TokenCount)
	}
	tokens := int64(ex.User.TokenCount + ex.Assistant.TokenCount)
	cost := l.rates.Cost(ex.CostModel, tokens)

	updated, err := l.conversations.AppendExchange(ctx, conv, []*core.Message{ex.User, ex.Assistant}, tokens, cost)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("recorded exchange",
		"conversation_id", updated.Id, "tokens", tokens, "cost_usd", cost,
		"total_tokens", updated.TotalTokens, "total_cost_usd", updated.CostUSD)
	return updated, nil
}
