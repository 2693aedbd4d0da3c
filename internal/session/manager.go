// Package session tracks who is signed in for one browser client and which
// route that client belongs on.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"student-dashboard/internal/identity"
	"student-dashboard/internal/model"
	"student-dashboard/internal/notify"
)

const (
	RouteEntry   = "/"
	RouteRecords = "/students"
)

const (
	msgLoginSuccess  = "Successfully logged in"
	msgLogoutSuccess = "Successfully logged out"
	msgLogoutFailure = "Failed to logout"
)

var ErrClosed = errors.New("session manager closed")

type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (model.Identity, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(*model.Identity)) (unsubscribe func())
}

type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type State int

const (
	StateResolving State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// StateOf derives the state-machine position from a session snapshot.
func StateOf(s model.Session) State {
	switch {
	case s.Resolving:
		return StateResolving
	case s.Identity != nil:
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

type Manager struct {
	idp       IdentityProvider
	navigator Navigator
	notifier  notify.Notifier
	logger    *slog.Logger

	mu          sync.RWMutex
	identity    *model.Identity
	resolving   bool
	route       string
	closed      bool
	resolved    chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

type Option func(*Manager)

func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.navigator = n }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Failure(string) {}

// NewManager subscribes to idp immediately; the subscription lives until
// Close.
func NewManager(idp IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		idp:       idp,
		navigator: NavigatorFunc(func(string) {}),
		notifier:  discardNotifier{},
		logger:    slog.Default(),
		resolving: true,
		resolved:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	unsubscribe := idp.Subscribe(m.onIdentity)
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
	return m
}

func (m *Manager) onIdentity(id *model.Identity) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.identity = id
	wasResolving := m.resolving
	m.resolving = false
	route := RouteEntry
	if id != nil {
		route = RouteRecords
	}
	m.route = route
	m.mu.Unlock()

	if wasResolving {
		close(m.resolved)
	}
	if id != nil {
		m.logger.Debug("session changed", "uid", id.UID, "route", route)
	} else {
		m.logger.Debug("session changed", "uid", "", "route", route)
	}
	m.navigator.Navigate(route)
}

// Login signs in through the identity provider. The new identity arrives
// through the subscription; failures are surfaced and returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.logger.Info("login attempt", "email", email)

	if _, err := m.idp.SignIn(ctx, email, password); err != nil {
		m.logger.Warn("login failed", "email", email, "error", err)
		m.notifier.Failure(LoginFailureMessage(err))
		return err
	}

	m.notifier.Success(msgLoginSuccess)
	return nil
}

// Logout never clears the identity itself; the subscription does once the
// provider confirms.
func (m *Manager) Logout(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.logger.Info("logout attempt")

	if err := m.idp.SignOut(ctx); err != nil {
		m.logger.Error("logout failed", "error", err)
		m.notifier.Failure(msgLogoutFailure)
		return err
	}

	m.notifier.Success(msgLogoutSuccess)
	return nil
}

// LoginFailureMessage maps identity failures onto user-facing text.
func LoginFailureMessage(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotFound:
		return "User not found. Please check your email."
	case identity.CodeWrongPassword:
		return "Incorrect password. Please try again."
	case identity.CodeInvalidEmail:
		return "Invalid email format."
	default:
		return "Invalid credentials"
	}
}

func (m *Manager) Snapshot() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var id *model.Identity
	if m.identity != nil {
		cp := *m.identity
		id = &cp
	}
	return model.Session{Identity: id, Resolving: m.resolving}
}

func (m *Manager) State() State {
	return StateOf(m.Snapshot())
}

// Route is the route the last notification drove, "" while resolving.
func (m *Manager) Route() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.route
}

// WaitResolved blocks until the first provider notification arrives.
func (m *Manager) WaitResolved(ctx context.Context) error {
	select {
	case <-m.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		unsubscribe := m.unsubscribe
		m.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
