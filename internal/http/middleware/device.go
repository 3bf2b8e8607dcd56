package middleware

import (
	"context"
	"net/http"
	"time"

	"toolshub/internal/logging"

	"github.com/google/uuid"
)

const (
	deviceCookie         = "device"
	CtxDevice     ctxKey = "device"
	deviceLifetime       = 365 * 24 * time.Hour
)

// WithDevice tags every browser with a long-lived random id. Headers mounted
// for the same device share one notification bus.
func WithDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(deviceCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     deviceCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(deviceLifetime),
			})
		}
		ctx := context.WithValue(r.Context(), CtxDevice, id)
		ctx = logging.WithLogger(ctx, logging.From(ctx).With("device", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceID returns the id set by WithDevice, or "" outside it.
func DeviceID(r *http.Request) string {
	if v, ok := r.Context().Value(CtxDevice).(string); ok {
		return v
	}
	return ""
}
