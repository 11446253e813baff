package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"academia/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}

// Browser is the parsed form of a User-Agent header, used for log context.
type Browser struct {
	Name    string
	Version string
	OS      string
	Mobile  bool
	Bot     bool
}

// ParseBrowser summarizes a User-Agent string. An empty header yields a zero Browser.
func ParseBrowser(userAgent string) Browser {
	if strings.TrimSpace(userAgent) == "" {
		return Browser{}
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	return Browser{
		Name:    name,
		Version: version,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// String renders the browser as "name version (os)".
func (b Browser) String() string {
	if b.Name == "" {
		return "unknown"
	}
	s := b.Name
	if b.Version != "" {
		s += " " + b.Version
	}
	if b.OS != "" {
		s += " (" + b.OS + ")"
	}
	return s
}
