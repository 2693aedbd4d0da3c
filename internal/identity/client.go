package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"student-dashboard/internal/model"
)

const restoreTimeout = 5 * time.Second

// Client is one browser's view of the identity service. It resolves the
// persisted token once, then pushes every identity change to subscribers.
type Client struct {
	provider *Provider

	mu           sync.Mutex
	identity     *model.Identity
	token        string
	generation   uint64
	expiry       *time.Timer
	listeners    map[int]func(*model.Identity)
	nextListener int
	closed       bool

	ready chan struct{}

	// dispatchMu serializes deliveries so listeners see changes in order.
	// Listeners must not call back into the Client.
	dispatchMu sync.Mutex
}

// NewClient starts resolving token in the background. An empty token
// resolves to no identity.
func (p *Provider) NewClient(token string) *Client {
	c := &Client{
		provider:  p,
		listeners: make(map[int]func(*model.Identity)),
		ready:     make(chan struct{}),
	}
	go c.resolve(token)
	return c
}

func (c *Client) resolve(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	identity, expiresAt := c.provider.restore(ctx, token)

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	// ready closes under mu so a concurrent Subscribe is either in this
	// snapshot or delivered by itself, never both.
	c.mu.Lock()
	if identity != nil {
		c.setLocked(identity, token, expiresAt)
	}
	close(c.ready)
	fns := c.listenersLocked()
	current := c.identity
	c.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(current))
	}
}

func (c *Client) waitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignIn establishes a new session. Subscribers are notified before it
// returns.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	if err := c.waitReady(ctx); err != nil {
		return model.Identity{}, newError(CodeInternal, err)
	}

	identity, token, expiresAt, err := c.provider.authenticate(ctx, email, password)
	if err != nil {
		return model.Identity{}, err
	}

	c.mu.Lock()
	c.setLocked(&identity, token, expiresAt)
	c.mu.Unlock()

	c.notifyAll()
	return identity, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.waitReady(ctx); err != nil {
		return newError(CodeInternal, err)
	}
	if err := ctx.Err(); err != nil {
		return newError(CodeInternal, err)
	}

	c.mu.Lock()
	c.setLocked(nil, "", time.Time{})
	c.mu.Unlock()

	c.notifyAll()
	return nil
}

// Subscribe registers fn for identity changes. fn always receives the
// current identity once the client is resolved, including when it
// subscribes late.
func (c *Client) Subscribe(fn func(*model.Identity)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	ready := false
	select {
	case <-c.ready:
		ready = true
	default:
	}
	c.mu.Unlock()

	if ready {
		go c.deliver(id)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) current() *model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyIdentity(c.identity)
}

// Close drops all listeners and stops the expiry timer.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listeners = make(map[int]func(*model.Identity))
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
}

func (c *Client) setLocked(identity *model.Identity, token string, expiresAt time.Time) {
	c.identity = copyIdentity(identity)
	c.token = token
	c.generation++
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
	if identity == nil || expiresAt.IsZero() || c.closed {
		return
	}

	generation := c.generation
	wait := expiresAt.Sub(c.provider.now())
	if wait < 0 {
		wait = 0
	}
	c.expiry = time.AfterFunc(wait, func() { c.expire(generation) })
}

func (c *Client) expire(generation uint64) {
	c.mu.Lock()
	if c.generation != generation || c.identity == nil {
		c.mu.Unlock()
		return
	}
	c.provider.logger.Info("session expired", "uid", c.identity.UID)
	c.identity = nil
	c.token = ""
	c.generation++
	c.expiry = nil
	c.mu.Unlock()

	c.notifyAll()
}

func (c *Client) notifyAll() {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	fns := c.listenersLocked()
	current := c.identity
	c.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(current))
	}
}

// listenersLocked returns the listeners in subscription order.
func (c *Client) listenersLocked() []func(*model.Identity) {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*model.Identity), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	return fns
}

func (c *Client) deliver(id int) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	fn := c.listeners[id]
	current := c.identity
	c.mu.Unlock()

	if fn != nil {
		fn(copyIdentity(current))
	}
}

func copyIdentity(identity *model.Identity) *model.Identity {
	if identity == nil {
		return nil
	}
	cp := *identity
	return &cp
}
