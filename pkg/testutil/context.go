package testutil

import (
	"context"
	"net/http"

	"academia/pkg/requestcontext"
)

// WithSessionID adds a session ID to the request context.
// This simulates what the session middleware would do for a browser request.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	if sessionID == "" {
		return req
	}
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
