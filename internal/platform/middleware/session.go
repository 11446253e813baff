package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"academia/pkg/requestcontext"
)

// SessionCookieName is the cookie that identifies an upload session.
const SessionCookieName = "academia_session"

// SessionCookie makes sure every request carries a session ID. A missing or
// malformed cookie is replaced by a fresh random ID. The session itself is
// created lazily by the session store.
func SessionCookie(secure bool, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			// Refreshed on every request so the cookie outlives the idle TTL.
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(r.Context(), id)))
		})
	}
}
