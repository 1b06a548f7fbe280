// Package notify holds short-lived, user-visible messages (toasts).
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays active unless dismissed.
const DefaultTTL = 4 * time.Second

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	LinkTo    string    `json:"linkTo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier is what producers of notifications depend on.
type Notifier interface {
	Show(message string, severity Severity, linkTo string)
}

// Channel keeps notifications in insertion order. Expiry is evaluated against
// the clock on every access, so an expired entry behaves exactly like a
// dismissed one.
type Channel struct {
	mu     sync.Mutex
	now    func() time.Time
	ttl    time.Duration
	nextID int64
	items  []Notification
}

type Option func(*Channel)

func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Channel) { c.ttl = ttl }
}

func NewChannel(opts ...Option) *Channel {
	c := &Channel{now: time.Now, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show adds a notification unless an identical (message, severity) one is
// still active. Unknown severities are treated as info.
func (c *Channel) Show(message string, severity Severity, linkTo string) {
	if !severity.Valid() {
		severity = SeverityInfo
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.prune(now)
	for _, n := range c.items {
		if n.Message == message && n.Severity == severity {
			return
		}
	}

	c.nextID++
	c.items = append(c.items, Notification{
		ID:        c.nextID,
		Message:   message,
		Severity:  severity,
		LinkTo:    linkTo,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	})
}

// Dismiss removes a notification. Unknown or expired ids are a no-op.
func (c *Channel) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Channel) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune(c.now())
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Channel) prune(now time.Time) {
	kept := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.items = kept
}
