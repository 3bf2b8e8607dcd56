package middleware

import (
	"context"
	"net/http"

	"toolshub/internal/session"
)

type ctxKey string

const CtxUserID ctxKey = "user_id"

// WithAuth puts the subject of a valid session cookie on the request
// context. It does not consult the user store; the header does that.
func WithAuth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if uid := sessions.Subject(r); uid != "" {
				ctx := context.WithValue(r.Context(), CtxUserID, uid)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := UserID(r); uid != "" {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func UserID(r *http.Request) string {
	if v, ok := r.Context().Value(CtxUserID).(string); ok {
		return v
	}
	return ""
}
