// Package httptransport assembles the HTTP surface: shared middleware, the
// screen APIs registered by each domain handler, health and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"academia/internal/platform/middleware"
	"academia/pkg/platform/httputil"
	"academia/pkg/platform/middleware/metadata"
	"academia/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig holds the transport level settings.
type RouterConfig struct {
	Logger       *slog.Logger
	Gatherer     prometheus.Gatherer
	CookieSecure bool
	SessionTTL   time.Duration
}

// NewRouter wires all public endpoints. Health and metrics sit outside the
// session group so probes never receive a session cookie.
func NewRouter(cfg RouterConfig, routes ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionCookie(cfg.CookieSecure, cfg.SessionTTL))
		r.Use(middleware.AccessLog(cfg.Logger))
		r.Use(chimw.Recoverer)
		for _, route := range routes {
			route.Register(r)
		}
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
