// Package workspace holds the per-browser application instance: one
// session, one notification queue and the record list of the
// authenticated view.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"student-dashboard/internal/identity"
	"student-dashboard/internal/notify"
	"student-dashboard/internal/records"
	"student-dashboard/internal/session"
	"student-dashboard/internal/store"
)

var ErrNotAuthenticated = errors.New("workspace is not authenticated")

const (
	EventNavigate = "navigate"
	EventNotice   = "notice"
)

// Event is what gets pushed to the live connections of a workspace.
type Event struct {
	Type   string               `json:"type"`
	Route  string               `json:"route,omitempty"`
	Notice *notify.Notification `json:"notice,omitempty"`
}

// Publisher delivers encoded events to the connections of one client.
type Publisher interface {
	Broadcast(clientID string, message []byte)
	Disconnect(clientID string)
}

type Workspace struct {
	ID      string
	Session *session.Manager
	Notices *notify.Queue

	client    *identity.Client
	students  store.Collection
	publisher Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	records  *records.Controller
	lastSeen time.Time
	closed   bool
}

// Records returns the controller of the authenticated view, starting it on
// first use. Init failures are surfaced as notices, not returned.
func (w *Workspace) Records(ctx context.Context) (*records.Controller, error) {
	if w.Session.State() != session.StateAuthenticated {
		return nil, ErrNotAuthenticated
	}

	w.mu.Lock()
	ctrl := w.records
	fresh := ctrl == nil
	if fresh {
		ctrl = records.NewController(w.students,
			records.WithNotifier(w.Notices),
			records.WithLogger(w.logger),
		)
		w.records = ctrl
	}
	w.mu.Unlock()

	if fresh {
		_ = ctrl.Init(ctx)
	}
	return ctrl, nil
}

// Token is the identity session token to persist in the browser.
func (w *Workspace) Token() string {
	return w.client.Token()
}

func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// navigate runs inside the identity client's dispatch. Every navigation
// ends the current view, so the record list is rebuilt on next access.
func (w *Workspace) navigate(route string) {
	w.mu.Lock()
	w.records = nil
	w.mu.Unlock()

	w.publish(Event{Type: EventNavigate, Route: route})
}

func (w *Workspace) notice(n notify.Notification) {
	w.publish(Event{Type: EventNotice, Notice: &n})
}

func (w *Workspace) publish(ev Event) {
	if w.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		w.logger.Error("encode event", "error", err)
		return
	}
	w.publisher.Broadcast(w.ID, payload)
}

func (w *Workspace) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.records = nil
	w.mu.Unlock()

	w.Session.Close()
	w.client.Close()
	if w.publisher != nil {
		w.publisher.Disconnect(w.ID)
	}
}
