// Package notify owns the single notification slot of a viewer.
package notify

import (
	"sync"
	"time"

	"poolside/internal/domain/notification"
)

// Slot is where the current notification is displayed.
type Slot interface {
	SetNotification(n notification.Notification)
	ClearNotification()
}

// Timer is the part of *time.Timer the center needs.
type Timer interface {
	Stop() bool
}

// Clock lets tests drive auto-clear without sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Center shows at most one notification at a time. A new notification
// replaces the previous one and cancels its pending auto-clear.
type Center struct {
	mu    sync.Mutex
	slot  Slot
	clock Clock
	timer Timer
	seq   uint64
}

// NewCenter creates a center writing to slot. A nil clock uses the wall clock.
func NewCenter(slot Slot, clock Clock) *Center {
	if clock == nil {
		clock = realClock{}
	}
	return &Center{slot: slot, clock: clock}
}

// Show replaces the current notification. A positive ttl clears it after ttl
// unless another Show or Clear happens first.
// PRE: message is non-empty
// POST: slot holds the new notification
func (c *Center) Show(message string, kind notification.Kind, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.seq++
	c.slot.SetNotification(notification.Notification{
		Message: message,
		Kind:    kind,
		ShownAt: c.clock.Now(),
		TTL:     ttl,
	})
	if ttl <= 0 {
		return
	}
	mine := c.seq
	c.timer = c.clock.AfterFunc(ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.seq != mine {
			return
		}
		c.timer = nil
		c.slot.ClearNotification()
	})
}

// Success shows a transient notice that clears after ttl.
func (c *Center) Success(message string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = notification.DefaultSuccessTTL
	}
	c.Show(message, notification.KindSuccess, ttl)
}

// Error shows a notice that stays until replaced or cleared.
func (c *Center) Error(message string) {
	c.Show(message, notification.KindError, 0)
}

// Clear empties the slot and cancels any pending auto-clear.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.seq++
	c.slot.ClearNotification()
}

func (c *Center) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
