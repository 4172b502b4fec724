package notifications

import (
	"errors"
	"sync"

	"creatorhub/internal/observability"
)

const (
	// Max connections per user per registry.
	maxConnsPerUser = 12
	// Max connections per registry.
	maxTotalConns = 10000
)

var (
	ErrAnonymous     = errors.New("connection has no user")
	ErrUserLimit     = errors.New("user connection limit reached")
	ErrServerLimit   = errors.New("server connection limit reached")
	ErrNotRegistered = errors.New("connection is not registered")
)

// Registry tracks live connections and the rooms they are in. Every
// registered connection is in its user room.
type Registry struct {
	name string

	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}
	perUser int
}

// NewRegistry creates an empty registry. name labels its metrics and logs.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:    name,
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		perUser: maxConnsPerUser,
	}
}

func (r *Registry) Name() string { return r.name }

// Register adds c and joins it to its user room.
func (r *Registry) Register(c *Client) error {
	if c == nil || c.UserID == 0 {
		return ErrAnonymous
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; ok {
		return nil
	}
	if len(r.clients) >= maxTotalConns {
		return ErrServerLimit
	}
	if len(r.rooms[UserRoom(c.UserID)]) >= r.perUser {
		return ErrUserLimit
	}

	r.clients[c] = make(map[string]struct{})
	r.joinLocked(c, UserRoom(c.UserID))
	observability.WebSocketConnectionsTotal.WithLabelValues(r.name).Inc()
	return nil
}

// Unregister removes c from every room. Unknown clients are ignored.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.clients[c]
	if !ok {
		return false
	}
	for room := range rooms {
		r.leaveLocked(c, room)
	}
	delete(r.clients, c)
	observability.WebSocketConnectionsTotal.WithLabelValues(r.name).Dec()
	return true
}

// Join adds a registered connection to room.
func (r *Registry) Join(c *Client, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return ErrNotRegistered
	}
	r.joinLocked(c, room)
	return nil
}

// Leave removes c from room. The user room cannot be left.
func (r *Registry) Leave(c *Client, room string) {
	if room == UserRoom(c.UserID) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		r.leaveLocked(c, room)
	}
}

func (r *Registry) joinLocked(c *Client, room string) {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[c] = struct{}{}
	r.clients[c][room] = struct{}{}
}

func (r *Registry) leaveLocked(c *Client, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.clients[c], room)
}

// RoomClients returns a snapshot of the connections in room.
func (r *Registry) RoomClients(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// UserClients returns a snapshot of userID's connections.
func (r *Registry) UserClients(userID uint) []*Client {
	return r.RoomClients(UserRoom(userID))
}

// UserCount is the number of live connections for userID.
func (r *Registry) UserCount(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[UserRoom(userID)])
}

// InRoom reports whether c is in room.
func (r *Registry) InRoom(c *Client, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][c]
	return ok
}

// Len is the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Emit queues frame on every connection in room and returns how many accepted it.
func (r *Registry) Emit(room, event string, frame []byte) int {
	delivered := 0
	for _, c := range r.RoomClients(room) {
		if err := c.TrySend(frame); err == nil {
			delivered++
		}
	}
	if delivered > 0 {
		observability.RealtimeEventsDelivered.WithLabelValues(r.name, event).Add(float64(delivered))
	}
	return delivered
}

// CloseAll closes every connection and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	all := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		all = append(all, c)
	}
	r.mu.RUnlock()

	for _, c := range all {
		c.Close()
		r.Unregister(c)
	}
}
