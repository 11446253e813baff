package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"academia/internal/platform/config"
	dErrors "academia/pkg/domain-errors"
	"academia/pkg/platform/httputil"
	"academia/pkg/requestcontext"
)

// Class groups endpoints that share a limit.
type Class string

const (
	ClassUpload Class = "upload"
	ClassVerify Class = "verify"
	ClassMint   Class = "mint"
)

// Limiter applies per-class limits keyed by client IP. A nil *Limiter lets
// every request through.
type Limiter struct {
	store  *WindowStore
	window time.Duration
	limits map[Class]int
	logger *slog.Logger
}

// New returns nil when rate limiting is disabled.
func New(cfg config.RateLimit, logger *slog.Logger) *Limiter {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:  NewWindowStore(),
		window: cfg.Window,
		limits: map[Class]int{
			ClassUpload: cfg.Upload,
			ClassVerify: cfg.Verify,
			ClassMint:   cfg.Mint,
		},
		logger: logger,
	}
}

// Limit returns middleware enforcing the limit of class.
func (l *Limiter) Limit(class Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		limit, ok := l.limits[class]
		if !ok || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			now := requestcontext.Now(ctx)

			result := l.store.Allow(string(class)+":"+ip, limit, l.window, now)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				l.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"client_ip", ip,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(now)))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RunSweeper drops idle windows every interval until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) error {
	if l == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := l.store.Sweep(now); n > 0 {
				l.logger.Debug("rate limit windows swept", "removed", n)
			}
		}
	}
}
