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

package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Event names.
const (
	EventDocumentProcessed = "document.processed"
	EventInvestorEngaged   = "investor.engaged"
)

// Payload carries event attributes.
type Payload map[string]any

// Notifier delivers an event.
type Notifier interface {
	Notify(ctx context.Context, event string, payload Payload) error
}

// ErrNotifierRequired is returned when a wrapper is created without a target.
var ErrNotifierRequired = errors.New("notifier required")

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// Notify logs the event at info level.
func (n *LogNotifier) Notify(ctx context.Context, event string, payload Payload) error {
	args := make([]any, 0, 2+2*len(payload))
	args = append(args, "event", event)
	for k, v := range payload {
		args = append(args, k, v)
	}
	n.logger.InfoContext(ctx, "notification", args...)
	return nil
}

// Discard drops every event.
type Discard struct{}

// Notify does nothing.
func (Discard) Notify(context.Context, string, Payload) error { return nil }

// Async delivers events on a worker pool so callers never block on the
// notification service.
type Async struct {
	next   Notifier
	pool   *ants.Pool
	wg     sync.WaitGroup
	logger *slog.Logger
}

var _ Notifier = (*Async)(nil)

// NewAsync wraps next with a pool of size workers.
func NewAsync(next Notifier, size int, logger *slog.Logger) (*Async, error) {
	if next == nil {
		return nil, ErrNotifierRequired
	}
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Async{next: next, pool: pool, logger: logger.With("component", "notifier")}, nil
}

// Notify queues the event and returns immediately. The delivery context is
// detached from ctx so that request cancellation does not drop events.
func (a *Async) Notify(ctx context.Context, event string, payload Payload) error {
	a.wg.Add(1)
	err := a.pool.Submit(func() {
		defer a.wg.Done()
		if err := a.next.Notify(context.WithoutCancel(ctx), event, payload); err != nil {
			a.logger.Warn("notification failed", "event", event, "err", err)
		}
	})
	if err != nil {
		a.wg.Done()
		a.logger.Warn("notification dropped", "event", event, "err", err)
	}
	return nil
}

// Wait blocks until queued events are delivered.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Release waits for queued events and stops the pool.
func (a *Async) Release() {
	a.wg.Wait()
	a.pool.Release()
}

// Recorder keeps every event in memory. It is meant for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// Recorded is an event captured by a Recorder.
type Recorded struct {
	Event   string
	Payload Payload
}

var _ Notifier = (*Recorder)(nil)

// Notify records the event.
func (r *Recorder) Notify(_ context.Context, event string, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Payload: payload})
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}
