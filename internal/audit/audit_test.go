package audit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academia/pkg/requestcontext"
	"academia/pkg/testutil"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestInMemoryStoreKeepsNewestFirst(t *testing.T) {
	s := NewInMemoryStore(2)
	ctx := context.Background()
	for _, subject := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(ctx, Event{Action: ActionAssetMinted, Subject: subject}))
	}

	events, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Subject)
	assert.Equal(t, "b", events[1].Subject)

	events, err = s.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisherStampsContext(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithSessionID(ctx, "sess-1")

	p := NewPublisher(4, discard())
	p.Emit(ctx, Event{Action: ActionDocumentVerified, Decision: "all_match"})

	event := <-p.inbox
	assert.Equal(t, at, event.Timestamp)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "sess-1", event.SessionID)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := NewPublisher(1, discard())
	p.Emit(context.Background(), Event{Action: ActionAssetMinted})
	p.Emit(context.Background(), Event{Action: ActionMintFailed})
	assert.Len(t, p.inbox, 1)

	var nilPublisher *Publisher
	assert.NotPanics(t, func() { nilPublisher.Emit(context.Background(), Event{}) })
}

func TestWorkerPersistsAndFlushesOnStop(t *testing.T) {
	store := NewInMemoryStore(10)
	p := NewPublisher(10, discard())
	for range 3 {
		p.Emit(context.Background(), Event{Action: ActionAssetMinted})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, NewWorker(store, p, discard()).Run(ctx))

	events, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestHandlerList(t *testing.T) {
	store := NewInMemoryStore(10)
	for _, subject := range []string{"0.0.1", "0.0.2", "0.0.3"} {
		require.NoError(t, store.Append(context.Background(), Event{Action: ActionAssetMinted, Subject: subject}))
	}
	r := chi.NewRouter()
	NewHandler(store, discard()).Register(r)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/audit?limit=2"))
	testutil.AssertStatusOK(t, rr)
	body := testutil.UnmarshalResponse[struct {
		Events []Event `json:"events"`
	}](t, rr)
	require.Len(t, body.Events, 2)
	assert.Equal(t, "0.0.3", body.Events[0].Subject)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/audit?limit=zero"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}
