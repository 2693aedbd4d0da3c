package workspace

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-dashboard/internal/auth"
	"student-dashboard/internal/identity"
	"student-dashboard/internal/model"
	"student-dashboard/internal/session"
	"student-dashboard/internal/store"
)

type recordingPublisher struct {
	mu           sync.Mutex
	events       map[string][]Event
	disconnected map[string]bool
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		events:       make(map[string][]Event),
		disconnected: make(map[string]bool),
	}
}

func (p *recordingPublisher) Broadcast(clientID string, message []byte) {
	var ev Event
	if err := json.Unmarshal(message, &ev); err != nil {
		panic(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[clientID] = append(p.events[clientID], ev)
}

func (p *recordingPublisher) Disconnect(clientID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnected[clientID] = true
}

func (p *recordingPublisher) routes(clientID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events[clientID] {
		if ev.Type == EventNavigate {
			out = append(out, ev.Route)
		}
	}
	return out
}

func (p *recordingPublisher) notices(clientID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events[clientID] {
		if ev.Type == EventNotice && ev.Notice != nil {
			out = append(out, ev.Notice.Description)
		}
	}
	return out
}

type fixture struct {
	registry  *Registry
	publisher *recordingPublisher
	clock     *clock
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	tokens := auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	provider := identity.NewProvider(st.Collection(identity.UsersCollection), tokens)
	_, err := provider.CreateUser(context.Background(), "admin@123.com", "admin@123")
	require.NoError(t, err)

	clk := &clock{now: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)}
	pub := newRecordingPublisher()
	reg := NewRegistry(Options{
		Provider:    provider,
		Students:    st.Collection("students"),
		Publisher:   pub,
		IdleTimeout: time.Minute,
		Now:         clk.Now,
	})
	t.Cleanup(reg.Close)
	return &fixture{registry: reg, publisher: pub, clock: clk}
}

func resolved(t *testing.T, ws *Workspace) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ws.Session.WaitResolved(ctx))
}

func TestOpen_WithoutTokenResolvesSignedOut(t *testing.T) {
	f := newFixture(t)
	ws := f.registry.Open("")
	resolved(t, ws)

	assert.Equal(t, session.StateUnauthenticated, ws.Session.State())
	assert.Equal(t, []string{session.RouteEntry}, f.publisher.routes(ws.ID))

	_, err := ws.Records(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogin_StartsRecordListAndPushesEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.registry.Open("")
	resolved(t, ws)

	require.NoError(t, ws.Session.Login(ctx, "admin@123.com", "admin@123"))
	assert.Equal(t, session.StateAuthenticated, ws.Session.State())
	assert.NotEmpty(t, ws.Token())
	assert.Equal(t, []string{session.RouteEntry, session.RouteRecords}, f.publisher.routes(ws.ID))
	assert.Contains(t, f.publisher.notices(ws.ID), "Successfully logged in")

	ctrl, err := ws.Records(ctx)
	require.NoError(t, err)
	_, err = ctrl.Create(ctx, model.Draft{Name: "Ann", Class: "10", RollNumber: "1"})
	require.NoError(t, err)

	again, err := ws.Records(ctx)
	require.NoError(t, err)
	assert.Same(t, ctrl, again)
	assert.Equal(t, 1, again.Count())
}

func TestLogout_DropsRecordList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.registry.Open("")
	resolved(t, ws)
	require.NoError(t, ws.Session.Login(ctx, "admin@123.com", "admin@123"))

	first, err := ws.Records(ctx)
	require.NoError(t, err)

	require.NoError(t, ws.Session.Logout(ctx))
	assert.Equal(t, session.StateUnauthenticated, ws.Session.State())
	assert.Empty(t, ws.Token())
	_, err = ws.Records(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, ws.Session.Login(ctx, "admin@123.com", "admin@123"))
	second, err := ws.Records(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestOpen_RestoresPersistedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.registry.Open("")
	resolved(t, first)
	require.NoError(t, first.Session.Login(ctx, "admin@123.com", "admin@123"))

	restored := f.registry.Open(first.Token())
	resolved(t, restored)

	snap := restored.Session.Snapshot()
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "admin@123.com", snap.Identity.Email)
	assert.Equal(t, []string{session.RouteRecords}, f.publisher.routes(restored.ID))
}

func TestGet_UnknownClient(t *testing.T) {
	f := newFixture(t)
	_, ok := f.registry.Get("missing")
	assert.False(t, ok)
}

func TestSweep_EvictsIdleWorkspaces(t *testing.T) {
	f := newFixture(t)
	idle := f.registry.Open("")
	active := f.registry.Open("")
	resolved(t, idle)
	resolved(t, active)

	f.clock.Advance(45 * time.Second)
	_, ok := f.registry.Get(active.ID)
	require.True(t, ok)
	f.clock.Advance(30 * time.Second)

	assert.Equal(t, 1, f.registry.Sweep())
	assert.Equal(t, 1, f.registry.Len())

	_, ok = f.registry.Get(idle.ID)
	assert.False(t, ok)
	assert.True(t, f.publisher.disconnected[idle.ID])

	err := idle.Session.Login(context.Background(), "admin@123.com", "admin@123")
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestRun_StopsWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.registry.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
