package events

import (
	"context"
	"sync"
)

// Publisher broadcasts domain events to interested consumers. Delivery is
// fire-and-forget: a nil return means the broker accepted the record, not that
// any consumer processed it.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// Published is one captured event.
type Published struct {
	Subject string
	Payload []byte
}

// Capture records published events in memory for tests.
type Capture struct {
	mu     sync.Mutex
	events []Published
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Publish(ctx context.Context, subject string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Published{Subject: subject, Payload: payload})
	return nil
}

// Events returns a copy of everything published so far.
func (c *Capture) Events() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Published, len(c.events))
	copy(out, c.events)
	return out
}
