package realtime

import "sync"

// Rooms groups connections that joined the same booking conversation.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]Conn
	joined  map[string]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		members: map[string]map[string]Conn{},
		joined:  map[string]map[string]struct{}{},
	}
}

func (r *Rooms) Join(room string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[room] == nil {
		r.members[room] = map[string]Conn{}
	}
	r.members[room][c.ID()] = c
	if r.joined[c.ID()] == nil {
		r.joined[c.ID()] = map[string]struct{}{}
	}
	r.joined[c.ID()][room] = struct{}{}
}

func (r *Rooms) Leave(room string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, c.ID())
}

// LeaveAll removes c from every room it joined.
func (r *Rooms) LeaveAll(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined[c.ID()] {
		r.leaveLocked(room, c.ID())
	}
	delete(r.joined, c.ID())
}

func (r *Rooms) leaveLocked(room, connID string) {
	if set := r.members[room]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
	if rooms := r.joined[connID]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

func (r *Rooms) IsMember(room string, c Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room][c.ID()]
	return ok
}

func (r *Rooms) Members(room string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.members[room]))
	for _, c := range r.members[room] {
		out = append(out, c)
	}
	return out
}

// Broadcast sends to every member except the connection with exceptID and returns the
// number of successful sends.
func (r *Rooms) Broadcast(room, event string, data any, exceptID string) int {
	sent := 0
	for _, c := range r.Members(room) {
		if c.ID() == exceptID {
			continue
		}
		if err := c.Send(event, data); err == nil {
			sent++
		}
	}
	return sent
}
