// Package audit keeps a trail of verification and mint outcomes.
package audit

import (
	"context"
	"log/slog"
	"time"

	"academia/pkg/requestcontext"
)

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher queues events for the Worker without blocking the caller. A nil
// *Publisher drops every event.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{inbox: make(chan Event, buffer), logger: logger}
}

// Emit stamps the event with the request time and IDs from ctx and queues it.
// A full queue drops the event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.SessionID == "" {
		event.SessionID = requestcontext.SessionID(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit queue full, event dropped",
			"action", string(event.Action),
			"request_id", event.RequestID,
		)
	}
}

// Worker drains a Publisher into a Store.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, p *Publisher, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: p.inbox, logger: logger}
}

// Run persists events until ctx is done, then flushes what is already queued.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to store audit event",
			"action", string(event.Action),
			"error", err,
		)
	}
}
