package campaign

import "sync"

// Counter is the single writer of today's send count. Workers reserve a
// slot before sending and settle it afterwards, so concurrent sends can
// never push the total past the limit.
type Counter struct {
	mu       sync.Mutex
	sent     int
	inFlight int
	limit    int
}

// NewCounter starts from sent messages already delivered today
func NewCounter(sent, limit int) *Counter {
	return &Counter{sent: sent, limit: limit}
}

// Reserve claims the next slot. current is the count the sender should
// see; ok is false once delivered plus in-flight sends reach the limit.
func (c *Counter) Reserve() (current int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current = c.sent + c.inFlight
	if current >= c.limit {
		return current, false
	}
	c.inFlight++
	return current, true
}

// Settle releases a reserved slot, counting it when the send landed
func (c *Counter) Settle(delivered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight--
	if delivered {
		c.sent++
	}
}

// Sent returns the number of delivered messages
func (c *Counter) Sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}
