package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"academia/internal/platform/metrics"
	"academia/internal/upload"
	"academia/pkg/platform/sentinel"
	"academia/pkg/requestcontext"
)

type entry struct {
	Session
	cancel context.CancelFunc
}

// Error Contract:
// - Return ErrNotFound when the session does not exist or has expired
// - Return ErrSuperseded when an attempt is no longer the current one
// InMemoryStore keeps upload sessions in memory. Sessions idle longer than
// the TTL are dropped by Sweep.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewInMemoryStore constructs an empty store. m may be nil.
func NewInMemoryStore(ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *InMemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		metrics:  m,
		logger:   logger,
	}
}

// Get returns a copy of the session, creating an empty one on first use.
func (s *InMemoryStore) Get(ctx context.Context, id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookupLocked(ctx, id)
	return e.Session
}

// Select records a newly accepted file. The previous response is cleared, the
// attempt rotates and any in-flight verification is cancelled.
func (s *InMemoryStore) Select(ctx context.Context, id string, file upload.File, preview upload.Preview) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookupLocked(ctx, id)
	e.cancelInFlight()
	e.File = &file
	e.Preview = &preview
	e.Response = nil
	e.AttemptID = uuid.NewString()
	return e.Session
}

// Reset discards the session's file and response and cancels any in-flight
// verification.
func (s *InMemoryStore) Reset(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.cancelInFlight()
		delete(s.sessions, id)
	}
	s.metrics.SetActiveSessions(len(s.sessions))
	s.logger.DebugContext(ctx, "session reset", "session_id", id)
}

// Begin starts a verification attempt for the selected file. The returned
// context is cancelled when the attempt is superseded. The caller must call
// Complete with the returned session's AttemptID.
func (s *InMemoryStore) Begin(ctx context.Context, id string) (context.Context, Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookupLocked(ctx, id)
	if e.File == nil {
		return nil, Session{}, fmt.Errorf("session %s has no file: %w", id, sentinel.ErrNotFound)
	}
	e.cancelInFlight()

	attemptCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.InFlight = true
	e.Response = nil
	e.AttemptID = uuid.NewString()
	return attemptCtx, e.Session, nil
}

// Complete applies resp if attemptID is still current. A stale attempt leaves
// the session untouched and returns ErrSuperseded.
func (s *InMemoryStore) Complete(ctx context.Context, id, attemptID string, resp Response) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	if e.AttemptID != attemptID {
		return Session{}, fmt.Errorf("attempt %s: %w", attemptID, sentinel.ErrSuperseded)
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.InFlight = false
	e.Response = &resp
	e.TouchedAt = requestcontext.Now(ctx)
	return e.Session, nil
}

// Sweep removes sessions idle since before now-ttl and returns how many it dropped.
func (s *InMemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.TouchedAt.Before(cutoff) {
			e.cancelInFlight()
			delete(s.sessions, id)
			removed++
		}
	}
	s.metrics.SetActiveSessions(len(s.sessions))
	return removed
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *InMemoryStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				s.logger.InfoContext(ctx, "expired sessions swept", "count", n)
			}
		}
	}
}

func (s *InMemoryStore) lookupLocked(ctx context.Context, id string) *entry {
	now := requestcontext.Now(ctx)
	e, ok := s.sessions[id]
	if ok && now.Sub(e.TouchedAt) > s.ttl {
		e.cancelInFlight()
		delete(s.sessions, id)
		ok = false
	}
	if !ok {
		e = &entry{Session: Session{ID: id, AttemptID: uuid.NewString(), CreatedAt: now}}
		s.sessions[id] = e
		s.metrics.SetActiveSessions(len(s.sessions))
	}
	e.TouchedAt = now
	return e
}

func (e *entry) cancelInFlight() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.InFlight = false
}
