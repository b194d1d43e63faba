package server

import (
	"context"
	"net/http"
	"strings"
)

// SessionStore resolves an opaque session token to a user ID.
type SessionStore interface {
	UserID(token string) (string, bool)
}

// StaticSessions is a fixed token->user map. It backs local development
// and tests; production deployments plug in their own SessionStore.
type StaticSessions map[string]string

func (s StaticSessions) UserID(token string) (string, bool) {
	uid, ok := s[token]
	return uid, ok
}

// DefaultSessions is the out-of-the-box single-user session store.
func DefaultSessions() StaticSessions {
	return StaticSessions{"dev-token": "dev-user"}
}

type contextKey string

const userIDKey contextKey = "userID"

// userIDFrom returns the authenticated user ID placed on the context by
// requireSession.
func userIDFrom(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

// sessionToken pulls the token from the Authorization header or, as a
// browser fallback, the session cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return strings.TrimSpace(h)
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

// requireSession rejects unauthenticated requests and stores the
// resolved user ID on the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		uid, ok := s.sessions.UserID(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
