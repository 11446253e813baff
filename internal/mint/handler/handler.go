package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"academia/internal/mint"
	"academia/internal/ratelimit"
	"academia/internal/upload"
	"academia/internal/wallet"
	dErrors "academia/pkg/domain-errors"
	"academia/pkg/platform/httputil"
	"academia/pkg/requestcontext"
)

const formOverhead = 1 << 20

// Service mints assets for the mint screen.
type Service interface {
	Mint(ctx context.Context, req mint.Request) (mint.Result, error)
}

// WalletStatus reports the signing wallet shown in the navbar.
type WalletStatus interface {
	Status() wallet.Status
}

// Handler serves the mint screen API.
type Handler struct {
	svc      Service
	wallet   WalletStatus
	maxBytes int64
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimiter limits mint attempts per client.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// New creates a new mint Handler.
func New(svc Service, walletStatus WalletStatus, maxBytes int64, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, wallet: walletStatus, maxBytes: maxBytes, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the mint routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.limiter.Limit(ratelimit.ClassMint)).Post("/api/mint", h.handleMint)
	r.Get("/api/wallet", h.handleWallet)
}

// handleMint pins the uploaded file and its metadata and mints an asset for
// the recipient form field. Pinning and mint failures still carry the
// partial result so the page can show how far the attempt got.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	part, err := httputil.ReadFormFile(r, "file", h.maxBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid mint upload",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Mint(ctx, mint.Request{
		File: upload.File{
			Name:        part.Name,
			ContentType: part.ContentType,
			Data:        part.Data,
		},
		Recipient: r.FormValue("recipient"),
	})
	if err != nil {
		if hasProgress(result) {
			httputil.WriteJSON(w, dErrors.ToHTTPStatus(dErrors.CodeOf(err)), result)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleWallet(w http.ResponseWriter, r *http.Request) {
	var status wallet.Status
	if h.wallet != nil {
		status = h.wallet.Status()
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func hasProgress(r mint.Result) bool {
	switch r.Stage {
	case mint.StagePinFile, mint.StagePinMetadata, mint.StageMint:
		return true
	}
	return false
}
