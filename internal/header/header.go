// Package header holds the navigation header component: branding, the
// configured menu, the apps dropdown and the login/logout control.
//
// A Header lives between Mount and Unmount. While mounted it listens for
// sign-in and sign-out on its bus and runs one session check. State is
// transient; every mount starts logged out with the mobile menu closed.
//
// Notifications win over the mount-time check: if either channel fires
// while the check is in flight, the check's result is discarded. A check
// that fails or times out leaves the header logged out and is reported by
// Err.
package header

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"toolshub/internal/events"
	"toolshub/internal/logging"
	"toolshub/internal/menu"
	"toolshub/internal/session"

	"github.com/jonboulle/clockwork"
)

const DefaultSessionCheckTimeout = 3 * time.Second

var (
	ErrMounted      = errors.New("header: already mounted")
	ErrCheckTimeout = errors.New("header: session check timed out")
)

type State struct {
	LoggedIn       bool
	MobileMenuOpen bool
}

// Bus is the part of events.Bus a header uses.
type Bus interface {
	Subscribe(ch events.Channel, fn events.Handler) events.Handle
	Unsubscribe(h events.Handle)
}

type Options struct {
	Menu     menu.Config
	Bus      Bus
	Sessions session.Provider
	Clock    clockwork.Clock
	// SessionCheckTimeout bounds the mount-time check. Zero means
	// DefaultSessionCheckTimeout.
	SessionCheckTimeout time.Duration
	// OnChange runs after every state change, without the header's lock.
	OnChange func(State)
}

type Header struct {
	opts Options

	mu      sync.Mutex
	state   State
	mounted bool
	// seq counts notifications; a check started at one value is stale once
	// it changes.
	seq     uint64
	handles []events.Handle
	cancel  context.CancelFunc
	ready   chan struct{}
	err     error
	log     *slog.Logger

	wg sync.WaitGroup
}

func New(opts Options) *Header {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.SessionCheckTimeout <= 0 {
		opts.SessionCheckTimeout = DefaultSessionCheckTimeout
	}
	ready := make(chan struct{})
	close(ready)
	return &Header{opts: opts, ready: ready, log: slog.Default()}
}

// Mount subscribes to both channels and starts the session check. The
// check runs on its own goroutine; use Ready or Wait to observe it.
func (h *Header) Mount(ctx context.Context) error {
	h.mu.Lock()
	if h.mounted {
		h.mu.Unlock()
		return ErrMounted
	}
	h.mounted = true
	h.state = State{}
	h.err = nil
	h.log = logging.From(ctx)
	h.ready = make(chan struct{})
	h.handles = []events.Handle{
		h.opts.Bus.Subscribe(events.SignedIn, h.onSignedIn),
		h.opts.Bus.Subscribe(events.SignedOut, h.onSignedOut),
	}
	checkCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	seq, ready := h.seq, h.ready
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		defer close(ready)
		sess, err := h.checkSession(checkCtx)
		h.applySession(seq, sess, err)
	}()
	return nil
}

func (h *Header) checkSession(ctx context.Context) (session.Session, error) {
	if h.opts.Sessions == nil {
		return session.Session{}, nil
	}
	type result struct {
		sess session.Session
		err  error
	}
	done := make(chan result, 1)
	go func() {
		s, err := h.opts.Sessions.CurrentSession(ctx)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		return r.sess, r.err
	case <-h.opts.Clock.After(h.opts.SessionCheckTimeout):
		return session.Session{}, ErrCheckTimeout
	case <-ctx.Done():
		return session.Session{}, ctx.Err()
	}
}

func (h *Header) applySession(seq uint64, sess session.Session, err error) {
	h.mu.Lock()
	log := h.log
	switch {
	case !h.mounted:
		h.mu.Unlock()
		return
	case h.seq != seq:
		h.mu.Unlock()
		log.Debug("header.session_check_superseded")
		return
	case err != nil:
		h.err = fmt.Errorf("session check: %w", err)
		h.state.LoggedIn = false
		h.mu.Unlock()
		log.Warn("header.session_check_failed", "err", err)
		return
	case !sess.Authenticated():
		h.mu.Unlock()
		return
	}
	h.state.LoggedIn = true
	st := h.state
	h.mu.Unlock()
	h.changed(st)
}

func (h *Header) onSignedIn(context.Context, events.Event)  { h.notified(true) }
func (h *Header) onSignedOut(context.Context, events.Event) { h.notified(false) }

func (h *Header) notified(loggedIn bool) {
	h.mu.Lock()
	if !h.mounted {
		h.mu.Unlock()
		return
	}
	h.seq++
	h.state.LoggedIn = loggedIn
	st := h.state
	h.mu.Unlock()
	h.changed(st)
}

// Unmount releases both registrations and abandons an in-flight check.
// It is safe to call more than once.
func (h *Header) Unmount() {
	h.mu.Lock()
	if !h.mounted {
		h.mu.Unlock()
		return
	}
	h.mounted = false
	for _, hd := range h.handles {
		h.opts.Bus.Unsubscribe(hd)
	}
	h.handles = nil
	h.cancel()
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Header) ToggleMobileMenu() State {
	h.mu.Lock()
	h.state.MobileMenuOpen = !h.state.MobileMenuOpen
	st := h.state
	h.mu.Unlock()
	h.changed(st)
	return st
}

// Logout ends the session through the provider. On success the header
// shows logged out without waiting for the provider's SignedOut
// notification; on failure the state is left alone.
func (h *Header) Logout(ctx context.Context) error {
	if h.opts.Sessions == nil {
		return errors.New("header: no session provider")
	}
	if err := h.opts.Sessions.Terminate(ctx); err != nil {
		return fmt.Errorf("header: terminate session: %w", err)
	}
	h.mu.Lock()
	h.seq++
	h.state.LoggedIn = false
	st := h.state
	h.mu.Unlock()
	h.changed(st)
	return nil
}

func (h *Header) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Header) Mounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mounted
}

// Err returns the failure of the last mount-time check, if any.
func (h *Header) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Ready is closed once the current mount's session check has resolved.
func (h *Header) Ready() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

func (h *Header) Wait(ctx context.Context) error {
	select {
	case <-h.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Header) changed(st State) {
	if h.opts.OnChange != nil {
		h.opts.OnChange(st)
	}
}
