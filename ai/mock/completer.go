package mock

import (
	"context"
	"sync"

	"github.com/poiesic/pitchroom/ai"
)

// MockCompleter is a test double for ai.CompletionProvider.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, replies with Reply and estimated usage.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error)

	// Reply is the default reply content.
	Reply string

	family ai.Family

	mu       sync.Mutex
	requests []ai.CompletionRequest
}

var _ ai.CompletionProvider = (*MockCompleter)(nil)

// NewMockCompleter creates a completer for family that answers with reply.
func NewMockCompleter(family ai.Family, reply string) *MockCompleter {
	return &MockCompleter{family: family, Reply: reply}
}

// Family returns the family given at construction.
func (m *MockCompleter) Family() ai.Family {
	return m.family
}

// Complete records the request and answers it.
func (m *MockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	c := &ai.Completion{Content: m.Reply}
	ai.EstimateUsage(c, req)
	return c, nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockCompleter) LastRequest() ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ai.CompletionRequest{}
	}
	return m.requests[len(m.requests)-1]
}
