package header

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"toolshub/internal/events"
	"toolshub/internal/menu"
	"toolshub/internal/session"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	sess session.Session
	err  error
	// gate, when set, holds CurrentSession until closed or ctx is done.
	gate    chan struct{}
	started chan struct{}

	mu           sync.Mutex
	checkCtxErr  error
	terminateErr error
	onTerminate  func(ctx context.Context)
	terminated   int
}

func (f *fakeProvider) CurrentSession(ctx context.Context) (session.Session, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			f.mu.Lock()
			f.checkCtxErr = ctx.Err()
			f.mu.Unlock()
			return session.Session{}, ctx.Err()
		}
	}
	return f.sess, f.err
}

func (f *fakeProvider) Terminate(ctx context.Context) error {
	f.mu.Lock()
	f.terminated++
	f.mu.Unlock()
	if f.terminateErr != nil {
		return f.terminateErr
	}
	if f.onTerminate != nil {
		f.onTerminate(ctx)
	}
	return nil
}

func mountWait(t *testing.T, h *Header) {
	t.Helper()
	require.NoError(t, h.Mount(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
}

func publish(bus *events.Bus, ch events.Channel) {
	bus.Publish(context.Background(), events.Event{Channel: ch})
}

func TestMount_SessionWithSubjectLogsIn(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{sess: session.Session{Subject: "u1"}}})
	defer h.Unmount()

	mountWait(t, h)

	assert.Equal(t, State{LoggedIn: true}, h.State())
	assert.NoError(t, h.Err())
}

func TestMount_SessionWithoutSubjectStaysLoggedOut(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{}})
	defer h.Unmount()

	mountWait(t, h)

	assert.False(t, h.State().LoggedIn)
}

func TestNotifications_FlipLoggedIn(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{}})
	defer h.Unmount()
	mountWait(t, h)

	publish(bus, events.SignedIn)
	assert.True(t, h.State().LoggedIn)
	publish(bus, events.SignedIn)
	assert.True(t, h.State().LoggedIn)

	publish(bus, events.SignedOut)
	assert.False(t, h.State().LoggedIn)
	publish(bus, events.SignedOut)
	assert.False(t, h.State().LoggedIn)
}

func TestUnmount_ReleasesBothRegistrations(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{}})
	mountWait(t, h)
	require.Equal(t, 2, bus.Len())

	h.Unmount()
	assert.Equal(t, 0, bus.Len())
	assert.False(t, h.Mounted())

	publish(bus, events.SignedIn)
	assert.False(t, h.State().LoggedIn)

	// a second unmount must not release anything twice
	other := bus.Subscribe(events.SignedIn, func(context.Context, events.Event) {})
	h.Unmount()
	assert.Equal(t, 1, bus.Len())
	bus.Unsubscribe(other)
}

func TestMount_Twice(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{}})
	mountWait(t, h)
	assert.ErrorIs(t, h.Mount(context.Background()), ErrMounted)
	assert.Equal(t, 2, bus.Len())
	h.Unmount()
}

func TestRemount_StartsFresh(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{}})
	mountWait(t, h)
	publish(bus, events.SignedIn)
	h.ToggleMobileMenu()
	h.Unmount()

	mountWait(t, h)
	defer h.Unmount()
	assert.Equal(t, State{}, h.State())
	assert.Equal(t, 2, bus.Len())
}

func TestToggleMobileMenu_PairIsIdentity(t *testing.T) {
	h := New(Options{Bus: events.NewBus()})
	before := h.State()

	assert.True(t, h.ToggleMobileMenu().MobileMenuOpen)
	assert.False(t, h.ToggleMobileMenu().MobileMenuOpen)
	assert.Equal(t, before, h.State())
}

func TestNotificationSupersedesInFlightCheck(t *testing.T) {
	bus := events.NewBus()
	p := &fakeProvider{
		sess:    session.Session{Subject: "u1"},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	h := New(Options{Bus: bus, Sessions: p})
	defer h.Unmount()

	require.NoError(t, h.Mount(context.Background()))
	<-p.started
	publish(bus, events.SignedOut)
	close(p.gate)
	require.NoError(t, h.Wait(context.Background()))

	assert.False(t, h.State().LoggedIn)
}

func TestCheckFailureTreatedAsLoggedOut(t *testing.T) {
	bus := events.NewBus()
	h := New(Options{Bus: bus, Sessions: &fakeProvider{err: errors.New("store down")}})
	defer h.Unmount()

	mountWait(t, h)

	assert.False(t, h.State().LoggedIn)
	require.Error(t, h.Err())
	assert.Contains(t, h.Err().Error(), "store down")
	assert.NotEmpty(t, h.View("/").Error)
}

func TestCheckTimeout(t *testing.T) {
	bus := events.NewBus()
	clock := clockwork.NewFakeClock()
	p := &fakeProvider{sess: session.Session{Subject: "u1"}, gate: make(chan struct{})}
	h := New(Options{Bus: bus, Sessions: p, Clock: clock, SessionCheckTimeout: time.Second})
	defer func() {
		close(p.gate)
		h.Unmount()
	}()

	require.NoError(t, h.Mount(context.Background()))
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.NoError(t, h.Wait(context.Background()))

	assert.False(t, h.State().LoggedIn)
	assert.ErrorIs(t, h.Err(), ErrCheckTimeout)
}

func TestUnmountBeforeCheckResolves(t *testing.T) {
	bus := events.NewBus()
	p := &fakeProvider{
		sess:    session.Session{Subject: "u1"},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	var changes int
	h := New(Options{Bus: bus, Sessions: p, OnChange: func(State) { changes++ }})

	require.NoError(t, h.Mount(context.Background()))
	<-p.started
	h.Unmount()

	assert.False(t, h.State().LoggedIn)
	assert.NoError(t, h.Err())
	assert.Equal(t, 0, changes)
	assert.Equal(t, 0, bus.Len())
}

func TestLogout_SetsLoggedOutItself(t *testing.T) {
	bus := events.NewBus()
	p := &fakeProvider{sess: session.Session{Subject: "u1"}}
	h := New(Options{Bus: bus, Sessions: p})
	defer h.Unmount()
	mountWait(t, h)
	require.True(t, h.State().LoggedIn)

	require.NoError(t, h.Logout(context.Background()))

	assert.False(t, h.State().LoggedIn)
	assert.Equal(t, 1, p.terminated)
}

func TestLogout_ProviderNotificationReachesOtherHeaders(t *testing.T) {
	bus := events.NewBus()
	p := &fakeProvider{sess: session.Session{Subject: "u1"}}
	p.onTerminate = func(ctx context.Context) {
		bus.Publish(ctx, events.Event{Channel: events.SignedOut})
	}
	a := New(Options{Bus: bus, Sessions: p})
	b := New(Options{Bus: bus, Sessions: p})
	defer a.Unmount()
	defer b.Unmount()
	mountWait(t, a)
	mountWait(t, b)

	require.NoError(t, a.Logout(context.Background()))

	assert.False(t, a.State().LoggedIn)
	assert.False(t, b.State().LoggedIn)
}

func TestLogout_FailureLeavesState(t *testing.T) {
	bus := events.NewBus()
	p := &fakeProvider{sess: session.Session{Subject: "u1"}, terminateErr: errors.New("nope")}
	h := New(Options{Bus: bus, Sessions: p})
	defer h.Unmount()
	mountWait(t, h)

	err := h.Logout(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminate session")
	assert.True(t, h.State().LoggedIn)
}

func TestOnChange(t *testing.T) {
	bus := events.NewBus()
	var (
		mu  sync.Mutex
		got []State
	)
	h := New(Options{Bus: bus, Sessions: &fakeProvider{}, OnChange: func(s State) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}})
	defer h.Unmount()
	mountWait(t, h)

	publish(bus, events.SignedIn)
	h.ToggleMobileMenu()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{{LoggedIn: true}, {LoggedIn: true, MobileMenuOpen: true}}, got)
}

func TestView_ActiveRoute(t *testing.T) {
	cfg := menu.Config{
		AppName: "Hub",
		Items:   []menu.Item{{Title: "Docs", Path: "/docs"}, {Title: "Home", Path: "/"}},
		Apps:    []menu.App{{Title: "Chat", Path: "/apps/chat", Description: "talk"}},
	}

	v := BuildView(cfg, State{}, "/docs")
	require.Len(t, v.Items, 2)
	assert.True(t, v.Items[0].Active)
	assert.False(t, v.Items[1].Active)
	assert.False(t, v.Apps[0].Active)
	assert.Equal(t, "/docs?menu=open", v.ToggleHref)
	assert.Equal(t, "/header/stream?path=%2Fdocs", v.StreamHref)

	v = BuildView(cfg, State{MobileMenuOpen: true}, "/home")
	assert.False(t, v.Items[0].Active)
	assert.Equal(t, "/home", v.ToggleHref)
	assert.Equal(t, "/header/stream?menu=open&path=%2Fhome", v.StreamHref)

	v = BuildView(cfg, State{LoggedIn: true}, "/apps/chat")
	assert.True(t, v.Apps[0].Active)
	assert.Equal(t, "talk", v.Apps[0].Description)
	assert.True(t, v.LoggedIn)
	assert.Equal(t, "Hub", v.AppName)
}
