package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"academia/internal/ratelimit"
	"academia/internal/session"
	"academia/internal/upload"
	"academia/internal/verification/compare"
	dErrors "academia/pkg/domain-errors"
	"academia/pkg/platform/httputil"
	"academia/pkg/requestcontext"
)

// multipart framing allowance on top of the file limit
const formOverhead = 1 << 20

// Service is the authenticate flow as seen by HTTP.
type Service interface {
	Expected() compare.Expected
	Current(ctx context.Context, sessionID string) session.View
	Select(ctx context.Context, sessionID string, file upload.File) (session.View, error)
	Reset(ctx context.Context, sessionID string)
	Verify(ctx context.Context, sessionID string) (session.Response, error)
}

// Handler serves the authenticate screen API.
type Handler struct {
	svc      Service
	maxBytes int64
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimiter limits file selection and verification per client.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// New creates a new verification Handler.
func New(svc Service, maxBytes int64, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, maxBytes: maxBytes, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the authenticate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/session", h.handleGetSession)
	r.Delete("/api/session", h.handleResetSession)
	r.With(h.limiter.Limit(ratelimit.ClassUpload)).Post("/api/session/file", h.handleSelectFile)
	r.With(h.limiter.Limit(ratelimit.ClassVerify)).Post("/api/verify", h.handleVerify)
	r.Get("/api/expected", h.handleExpected)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.svc.Current(ctx, sessionID))
}

func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.svc.Reset(r.Context(), sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	part, err := httputil.ReadFormFile(r, "file", h.maxBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid file upload",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	view, err := h.svc.Select(ctx, sessionID, upload.File{
		Name:        part.Name,
		ContentType: part.ContentType,
		Data:        part.Data,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "file rejected",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"file_name", part.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.Verify(ctx, sessionID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "verification failed",
				"request_id", requestcontext.RequestID(ctx),
				"session_id", sessionID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExpected(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"fields": h.svc.Expected().Fields(),
	})
}

// sessionID reads the session assigned by the cookie middleware.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := requestcontext.SessionID(r.Context())
	if id == "" {
		// only reachable when the session middleware is not mounted
		h.logger.ErrorContext(r.Context(), "session missing from context",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session context error"))
		return "", false
	}
	return id, true
}
