// Package hub fans messages out to the live connections of a workspace.
package hub

import "sync"

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	ClientID string
	Writer   Writer
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func New() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.ClientID] == nil {
		h.connections[conn.ClientID] = make(map[*Connection]struct{})
	}
	h.connections[conn.ClientID][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.ClientID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.ClientID)
	}
}

// Broadcast writes message to every connection of clientID. Connections
// that fail a write are closed and dropped.
func (h *Hub) Broadcast(clientID string, message []byte) {
	h.mu.RLock()
	set := h.connections[clientID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}

// Disconnect closes every connection of clientID.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	set := h.connections[clientID]
	delete(h.connections, clientID)
	h.mu.Unlock()

	for c := range set {
		_ = c.Writer.Close()
	}
}

func (h *Hub) connected(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[clientID])
}
