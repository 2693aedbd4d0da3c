package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"student-dashboard/internal/identity"
	"student-dashboard/internal/notify"
	"student-dashboard/internal/session"
	"student-dashboard/internal/store"
)

const DefaultIdleTimeout = 30 * time.Minute

type Options struct {
	Provider    *identity.Provider
	Students    store.Collection
	Publisher   Publisher
	IdleTimeout time.Duration
	NoticeLimit int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Registry owns every live workspace and evicts the idle ones.
type Registry struct {
	provider  *identity.Provider
	students  store.Collection
	publisher Publisher
	idle      time.Duration
	notices   int
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
	closed     bool
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		provider:   opts.Provider,
		students:   opts.Students,
		publisher:  opts.Publisher,
		idle:       opts.IdleTimeout,
		notices:    opts.NoticeLimit,
		logger:     opts.Logger,
		now:        opts.Now,
		workspaces: make(map[string]*Workspace),
	}
	if r.idle <= 0 {
		r.idle = DefaultIdleTimeout
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Open starts a new workspace whose session resolves from token. An empty
// token resolves to signed out.
func (r *Registry) Open(token string) *Workspace {
	id := uuid.NewString()
	logger := r.logger.With("client", id)

	ws := &Workspace{
		ID:        id,
		Notices:   notify.NewQueue(r.notices),
		client:    r.provider.NewClient(token),
		students:  r.students,
		publisher: r.publisher,
		logger:    logger,
		lastSeen:  r.now(),
	}
	ws.Notices.SetSink(ws.notice)
	ws.Session = session.NewManager(ws.client,
		session.WithNavigator(session.NavigatorFunc(ws.navigate)),
		session.WithNotifier(ws.Notices),
		session.WithLogger(logger),
	)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ws.close()
		return ws
	}
	r.workspaces[id] = ws
	r.mu.Unlock()

	logger.Debug("workspace opened")
	return ws
}

// Get returns the workspace and marks it as seen.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	ws.touch(r.now())
	return ws, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep closes workspaces idle for longer than the idle timeout and returns
// how many were evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var evicted []*Workspace
	for id, ws := range r.workspaces {
		if ws.LastSeen().Before(cutoff) {
			evicted = append(evicted, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range evicted {
		ws.close()
		ws.logger.Debug("workspace evicted")
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle workspaces", "count", n)
			}
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, ws := range all {
		ws.close()
	}
}
