package middleware

import (
	"net/http"
	"strings"

	"github.com/marosten/authcore/internal/auth"
	"github.com/marosten/authcore/internal/store"
)

// SessionCookieName is the fallback token carrier for browser callers; API
// callers send Authorization: Bearer <token>.
const SessionCookieName = "authcore_session"

// RequireAuth validates the presented session token and populates
// AuthContext before the wrapped handler runs. Missing, unknown, and expired
// tokens all produce the same 401; a storage fault produces the same 401 so
// a probing caller learns nothing from the response shape.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(tok)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				AccountID: sess.AccountID,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the session token from the Authorization header,
// falling back to the session cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
