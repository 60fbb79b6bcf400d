// internal/clock/clock.go
package clock

import (
	"sync"
	"time"
)

// Synced is a wall clock that follows the backend's timestamps.
// Until the first Set it reports local time.
// Safe for concurrent use: the monitor and the event loop both read it.
type Synced struct {
	mu     sync.RWMutex
	offset time.Duration
	synced bool
	now    func() time.Time
}

// NewSynced returns a clock based on now (time.Now when nil).
func NewSynced(now func() time.Time) *Synced {
	if now == nil {
		now = time.Now
	}
	return &Synced{now: now}
}

// Set records the backend time. A zero time is ignored.
func (c *Synced) Set(t time.Time) {
	if t.IsZero() {
		return
	}
	c.mu.Lock()
	c.offset = t.Sub(c.now())
	c.synced = true
	c.mu.Unlock()
}

// Now returns the local time corrected by the last known backend offset.
func (c *Synced) Now() time.Time {
	c.mu.RLock()
	off := c.offset
	c.mu.RUnlock()
	return c.now().Add(off)
}

// Synced reports whether Set was ever called with a usable time.
func (c *Synced) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}
