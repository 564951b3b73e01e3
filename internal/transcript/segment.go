package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Segment is one immutable recognized utterance.
type Segment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	IsFinal   bool   `json:"is_final"`
}

// NewID returns a random segment identifier.
func NewID() string {
	return uuid.NewString()
}

// Clock issues strictly increasing millisecond timestamps.
type Clock struct {
	now func() time.Time

	mu   sync.Mutex
	last int64
}

// NewClock returns a Clock backed by now, or time.Now when now is nil.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Stamp returns the current time in ms since epoch, bumped past the previous stamp if needed.
func (c *Clock) Stamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}
