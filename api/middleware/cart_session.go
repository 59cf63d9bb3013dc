package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/primefit/storefront/pkg/config"
	"github.com/primefit/storefront/pkg/logger"
)

// CartSession binds every request to a cart session. The identifier lives in
// a cookie; a missing or malformed cookie starts a new session. With a
// session TTL the cookie is re-issued on every request so its max age slides
// along with the server-side idle TTL; without one it is a browser-session
// cookie set once.
func CartSession(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.TrimSpace(cfg.CookieName)
	if name == "" {
		name = "pf_cart_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(name); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = id.String()
				}
			}

			fresh := sessionID == ""
			if fresh {
				sessionID = uuid.NewString()
			}
			if fresh || cfg.SessionTTL > 0 {
				cookie := &http.Cookie{
					Name:     name,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				}
				if cfg.SessionTTL > 0 {
					cookie.MaxAge = int(cfg.SessionTTL.Seconds())
				}
				http.SetCookie(w, cookie)
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
