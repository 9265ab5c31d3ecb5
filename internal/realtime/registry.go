package realtime

import "sync"

// Registry tracks the live connections of each user on one channel.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: map[string]map[string]Conn{}}
}

// Add registers c under its user. Adding the same connection twice is a no-op.
func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[c.UserID()]
	if !ok {
		set = map[string]Conn{}
		r.conns[c.UserID()] = set
	}
	set[c.ID()] = c
}

// Remove drops exactly c and reports whether its user has no connections left.
func (r *Registry) Remove(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[c.UserID()]
	if !ok {
		return true
	}
	delete(set, c.ID())
	if len(set) == 0 {
		delete(r.conns, c.UserID())
		return true
	}
	return false
}

func (r *Registry) Connections(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	out := make([]Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// Users returns how many users have at least one connection.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
