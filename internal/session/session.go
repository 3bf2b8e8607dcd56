// Package session backs the header's session provider with a signed
// cookie and announces sign-in and sign-out on the device's bus.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"toolshub/internal/auth"
	"toolshub/internal/events"
	"toolshub/internal/logging"
	"toolshub/internal/notify"
	"toolshub/internal/users"
)

type Session struct {
	Subject  string
	Username string
}

func (s Session) Authenticated() bool { return s.Subject != "" }

// Provider is what a header needs to learn and end the current session.
type Provider interface {
	CurrentSession(ctx context.Context) (Session, error)
	Terminate(ctx context.Context) error
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type UserLookup interface {
	Lookup(ctx context.Context, id string) (users.User, error)
}

type Manager struct {
	Tokens   *auth.Tokens
	Users    UserLookup
	Buses    *events.Registry
	Notifier notify.Notifier
	Cookie   CookieConfig
	// BaseURL is appended to admin notices as a link back to the site.
	BaseURL string
}

func (m *Manager) cookieName() string {
	if m.Cookie.Name == "" {
		return "session"
	}
	return m.Cookie.Name
}

// Subject returns the subject of the request's cookie without touching the
// user store, or "" when there is no valid cookie.
func (m *Manager) Subject(r *http.Request) string {
	c, err := r.Cookie(m.cookieName())
	if err != nil || c.Value == "" {
		return ""
	}
	sub, err := m.Tokens.Parse(c.Value)
	if err != nil {
		return ""
	}
	return sub
}

// SignIn sets the session cookie and publishes SignedIn on the device's bus.
func (m *Manager) SignIn(ctx context.Context, w http.ResponseWriter, device string, u users.User) error {
	token, err := m.Tokens.Issue(u.ID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.Tokens.TTL()),
	})
	m.Buses.Publish(ctx, device, events.Event{Channel: events.SignedIn, Subject: u.ID})
	if m.Notifier != nil {
		msg := fmt.Sprintf("%s (%s) signed in", u.DisplayName, u.Username)
		if m.BaseURL != "" {
			msg += "\n" + strings.TrimRight(m.BaseURL, "/") + "/"
		}
		m.Notifier.NotifyAdmins(ctx, msg)
	}
	return nil
}

// ForRequest binds a Provider to one request. w may be nil for providers
// that will never terminate, such as the live header stream.
func (m *Manager) ForRequest(w http.ResponseWriter, r *http.Request, device string) *RequestProvider {
	return &RequestProvider{m: m, w: w, r: r, device: device}
}

type RequestProvider struct {
	m      *Manager
	w      http.ResponseWriter
	r      *http.Request
	device string
}

var ErrNoResponse = errors.New("session: provider has no response writer")

// CurrentSession reports an empty session for a missing or invalid cookie
// and for a subject that no longer exists. Only store failures are errors.
func (p *RequestProvider) CurrentSession(ctx context.Context) (Session, error) {
	sub := p.m.Subject(p.r)
	if sub == "" {
		return Session{}, nil
	}
	if p.m.Users == nil {
		return Session{Subject: sub}, nil
	}
	u, err := p.m.Users.Lookup(ctx, sub)
	if errors.Is(err, users.ErrNotFound) {
		logging.From(ctx).Info("session.unknown_subject", "subject", sub)
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup %s: %w", sub, err)
	}
	return Session{Subject: u.ID, Username: u.Username}, nil
}

// Terminate clears the cookie and publishes SignedOut on the device's bus so
// every header mounted for this browser follows.
func (p *RequestProvider) Terminate(ctx context.Context) error {
	if p.w == nil {
		return ErrNoResponse
	}
	sub := p.m.Subject(p.r)
	http.SetCookie(p.w, &http.Cookie{
		Name:     p.m.cookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   p.m.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	p.m.Buses.Publish(ctx, p.device, events.Event{Channel: events.SignedOut, Subject: sub})
	return nil
}
