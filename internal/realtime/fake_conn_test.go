package realtime

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var fakeConnSeq uint64

type sentEvent struct {
	Event string
	Data  any
}

type fakeConn struct {
	id     string
	userID string
	mu     sync.Mutex
	sent   []sentEvent
	fail   error
}

func newFakeConn(userID string) *fakeConn {
	return &fakeConn{id: fmt.Sprintf("conn-%d", atomic.AddUint64(&fakeConnSeq, 1)), userID: userID}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.userID }

func (f *fakeConn) Send(event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentEvent{Event: event, Data: data})
	return nil
}

func (f *fakeConn) events(name string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.sent {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}
