package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"student-dashboard/internal/identity"
	"student-dashboard/internal/model"
)

type fakeIdP struct {
	mu         sync.Mutex
	listener   func(*model.Identity)
	signInErr  error
	signOutErr error
	unsubbed   bool
}

func (f *fakeIdP) SignIn(_ context.Context, email, _ string) (model.Identity, error) {
	if f.signInErr != nil {
		return model.Identity{}, f.signInErr
	}
	id := model.Identity{UID: "uid-1", Email: email}
	f.push(&id)
	return id, nil
}

func (f *fakeIdP) SignOut(context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.push(nil)
	return nil
}

func (f *fakeIdP) Subscribe(fn func(*model.Identity)) func() {
	f.mu.Lock()
	f.listener = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubbed = true
		f.listener = nil
		f.mu.Unlock()
	}
}

func (f *fakeIdP) push(id *model.Identity) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

type recordingNotifier struct {
	successes []string
	failures  []string
}

func (r *recordingNotifier) Success(d string) { r.successes = append(r.successes, d) }
func (r *recordingNotifier) Failure(d string) { r.failures = append(r.failures, d) }

func newTestManager(idp *fakeIdP) (*Manager, *recordingNotifier, *[]string) {
	notes := &recordingNotifier{}
	routes := &[]string{}
	m := NewManager(idp,
		WithNotifier(notes),
		WithNavigator(NavigatorFunc(func(route string) { *routes = append(*routes, route) })),
	)
	return m, notes, routes
}

func TestManager_StartsResolving(t *testing.T) {
	idp := &fakeIdP{}
	m, _, routes := newTestManager(idp)

	assert.Equal(t, StateResolving, m.State())
	assert.True(t, m.Snapshot().Resolving)
	assert.True(t, Gate(m.Snapshot(), RouteRecords).Pending)
	assert.True(t, Gate(m.Snapshot(), RouteEntry).Pending)
	assert.Empty(t, *routes)
	assert.Empty(t, m.Route())
}

func TestManager_InitialResolution(t *testing.T) {
	idp := &fakeIdP{}
	m, _, routes := newTestManager(idp)

	idp.push(nil)
	require.NoError(t, m.WaitResolved(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, []string{RouteEntry}, *routes)
	assert.Equal(t, Decision{Redirect: RouteEntry}, Gate(m.Snapshot(), RouteRecords))
	assert.Equal(t, Decision{}, Gate(m.Snapshot(), RouteEntry))
}

func TestManager_LoginSuccess(t *testing.T) {
	idp := &fakeIdP{}
	m, notes, routes := newTestManager(idp)
	idp.push(nil)

	require.NoError(t, m.Login(context.Background(), "admin@123.com", "admin@123"))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "admin@123.com", m.Snapshot().Identity.Email)
	assert.Equal(t, []string{RouteEntry, RouteRecords}, *routes)
	assert.Equal(t, RouteRecords, m.Route())
	assert.Equal(t, []string{"Successfully logged in"}, notes.successes)
	assert.Equal(t, Decision{Redirect: RouteRecords}, Gate(m.Snapshot(), RouteEntry))
	assert.Equal(t, Decision{}, Gate(m.Snapshot(), RouteRecords))
}

func TestManager_LoginFailureClassified(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&identity.Error{Code: identity.CodeUserNotFound}, "User not found. Please check your email."},
		{&identity.Error{Code: identity.CodeWrongPassword}, "Incorrect password. Please try again."},
		{&identity.Error{Code: identity.CodeInvalidEmail}, "Invalid email format."},
		{&identity.Error{Code: identity.CodeInternal}, "Invalid credentials"},
		{errors.New("network down"), "Invalid credentials"},
	}
	for _, tc := range cases {
		idp := &fakeIdP{signInErr: tc.err}
		m, notes, routes := newTestManager(idp)
		idp.push(nil)

		err := m.Login(context.Background(), "a@b.c", "pw")
		assert.ErrorIs(t, err, tc.err)
		assert.Equal(t, []string{tc.want}, notes.failures)
		assert.Empty(t, notes.successes)
		assert.Equal(t, StateUnauthenticated, m.State())
		assert.Equal(t, []string{RouteEntry}, *routes)
	}
}

func TestManager_LogoutSuccess(t *testing.T) {
	idp := &fakeIdP{}
	m, notes, routes := newTestManager(idp)
	idp.push(&model.Identity{UID: "u", Email: "a@b.c"})

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, []string{RouteRecords, RouteEntry}, *routes)
	assert.Equal(t, []string{"Successfully logged out"}, notes.successes)
}

func TestManager_LogoutFailureKeepsIdentity(t *testing.T) {
	boom := errors.New("boom")
	idp := &fakeIdP{signOutErr: boom}
	m, notes, _ := newTestManager(idp)
	idp.push(&model.Identity{UID: "u", Email: "a@b.c"})

	err := m.Logout(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, []string{"Failed to logout"}, notes.failures)
}

func TestManager_OutOfBandExpiry(t *testing.T) {
	idp := &fakeIdP{}
	m, _, routes := newTestManager(idp)
	idp.push(&model.Identity{UID: "u"})
	idp.push(nil)

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.False(t, m.Snapshot().Resolving)
	assert.Equal(t, []string{RouteRecords, RouteEntry}, *routes)
}

func TestManager_CloseTearsDownSubscription(t *testing.T) {
	idp := &fakeIdP{}
	m, _, routes := newTestManager(idp)
	idp.push(nil)

	m.Close()
	m.Close()
	assert.True(t, idp.unsubbed)

	m.onIdentity(&model.Identity{UID: "late"})
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, []string{RouteEntry}, *routes)
	assert.ErrorIs(t, m.Login(context.Background(), "a@b.c", "pw"), ErrClosed)
	assert.ErrorIs(t, m.Logout(context.Background()), ErrClosed)
}

func TestManager_WaitResolvedHonoursContext(t *testing.T) {
	m, _, _ := newTestManager(&fakeIdP{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.WaitResolved(ctx), context.Canceled)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "resolving", StateResolving.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
}
