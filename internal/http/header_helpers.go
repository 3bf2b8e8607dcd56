package http

import (
	"context"
	"net/http"
	"time"

	"toolshub/internal/header"
	"toolshub/internal/http/middleware"
	"toolshub/internal/logging"
)

// newHeader builds a header bound to this request's device bus and session.
// w may be nil when the header will never log out. The returned release
// gives the device bus back and must run once the header is done.
func (s *Site) newHeader(w http.ResponseWriter, r *http.Request, onChange func(header.State)) (*header.Header, func()) {
	device := middleware.DeviceID(r)
	h := header.New(header.Options{
		Menu:                s.Menu,
		Bus:                 s.Buses.Acquire(device),
		Sessions:            s.Sessions.ForRequest(w, r, device),
		Clock:               s.Clock,
		SessionCheckTimeout: s.SessionCheckTimeout,
		OnChange:            onChange,
	})
	return h, func() { s.Buses.Release(device) }
}

// mountHeader mounts a header for r. The returned release must run on every
// exit path; it unmounts the header and gives the device bus back.
func (s *Site) mountHeader(w http.ResponseWriter, r *http.Request, onChange func(header.State)) (*header.Header, func(), error) {
	h, done := s.newHeader(w, r, onChange)
	if err := h.Mount(r.Context()); err != nil {
		return nil, done, err
	}
	return h, func() {
		h.Unmount()
		done()
	}, nil
}

// loadHeader mounts a header for one render, waits for its session check
// and applies ?menu=open. The header is unmounted before it returns.
func (s *Site) loadHeader(r *http.Request, currentPath string) (header.View, error) {
	h, release, err := s.mountHeader(nil, r, nil)
	defer release()
	if err != nil {
		return header.View{}, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.SessionCheckTimeout+time.Second)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		logging.From(ctx).Warn("header.wait", "err", err)
	}
	if r.URL.Query().Get("menu") == "open" {
		h.ToggleMobileMenu()
	}
	return h.View(currentPath), nil
}
