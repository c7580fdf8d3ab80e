package mcp

import (
	"sync"
	"sync/atomic"
)

// correlator matches responses read off the wire to the requests waiting for
// them. Ids come from a monotonically increasing counter starting at 1; each
// in-flight request holds a buffered completion slot under its id.
type correlator struct {
	nextID int64

	mu      sync.Mutex
	pending map[int64]chan *JSONRPCResponse
	closed  bool
}

func newCorrelator() *correlator {
	return &correlator{
		pending: make(map[int64]chan *JSONRPCResponse),
	}
}

// register allocates the next request id and its completion slot. The slot
// exists before the request bytes hit the wire, so a response cannot outrun
// its registration.
func (c *correlator) register() (int64, chan *JSONRPCResponse, error) {
	id := atomic.AddInt64(&c.nextID, 1)
	ch := make(chan *JSONRPCResponse, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, ErrConnectionClosed
	}
	c.pending[id] = ch
	return id, ch, nil
}

// resolve delivers a response to its slot and removes it. Reports false when
// no slot exists, which means the call already timed out or the id was never
// issued; such responses are discarded by the caller.
func (c *correlator) resolve(id int64, resp *JSONRPCResponse) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)
	ch <- resp
	return true
}

// drop abandons a slot after a timeout or a failed send.
func (c *correlator) drop(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// closeAll fails every in-flight call and rejects future registrations.
// Waiters see a closed channel and report the connection as gone.
func (c *correlator) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// inFlight reports the number of registered slots.
func (c *correlator) inFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
