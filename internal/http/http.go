package http

import (
	"log/slog"
	"net/http"
	"time"

	"toolshub/internal/events"
	"toolshub/internal/header"
	"toolshub/internal/http/middleware"
	"toolshub/internal/logging"
	"toolshub/internal/menu"
	"toolshub/internal/session"
	"toolshub/internal/users"
	"toolshub/internal/web"

	"github.com/jonboulle/clockwork"
)

// Site is what every header-bearing handler shares.
type Site struct {
	Menu                menu.Config
	Sessions            *session.Manager
	Buses               *events.Registry
	TPL                 *web.Renderer
	Clock               clockwork.Clock
	SessionCheckTimeout time.Duration
}

type Options struct {
	Site
	Users           users.Store
	LoginLimiter    *middleware.RateLimiter
	StreamKeepAlive time.Duration
}

func NewMux(opts Options) (*http.ServeMux, error) {
	if opts.TPL == nil {
		rend, err := web.NewRenderer()
		if err != nil {
			return nil, err
		}
		opts.TPL = rend
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.SessionCheckTimeout <= 0 {
		opts.SessionCheckTimeout = header.DefaultSessionCheckTimeout
	}
	site := &opts.Site

	mux := http.NewServeMux()

	mux.Handle("GET /", &PageHandler{Site: site})
	mux.Handle("GET /header", &HeaderFragmentHandler{Site: site})
	mux.Handle("GET /header/stream", &HeaderStreamHandler{Site: site, KeepAlive: opts.StreamKeepAlive})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	ah := &AuthHandler{Site: site, Users: opts.Users, LoginLimiter: opts.LoginLimiter}
	ah.Routes(mux)

	return mux, nil
}

func WithStandardMiddleware(next http.Handler, sessions *session.Manager) http.Handler {
	return requestLogger(securityHeaders(middleware.WithDevice(middleware.WithAuth(sessions)(next))))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		l := slog.Default().With("method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), l)))
		l.Info("http.request",
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach Flush and deadlines.
func (w *wrapWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
