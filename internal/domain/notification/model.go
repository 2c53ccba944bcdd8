package notification

import "time"

// Kind classifies a notification for display.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// DefaultSuccessTTL is how long a success notice stays visible.
const DefaultSuccessTTL = 3 * time.Second

// Notification is the content of the single notification slot.
type Notification struct {
	Message string
	Kind    Kind
	ShownAt time.Time
	TTL     time.Duration // zero means the notice stays until replaced or cleared
}

// Persistent reports whether the notice never clears on its own.
func (n Notification) Persistent() bool {
	return n.TTL <= 0
}

// ExpiresAt returns when an auto-clearing notice disappears.
// PRE: n is not persistent
// POST: Returns ShownAt + TTL
func (n Notification) ExpiresAt() time.Time {
	return n.ShownAt.Add(n.TTL)
}

// IsZero reports whether the slot is empty.
func (n Notification) IsZero() bool {
	return n.Message == "" && n.Kind == ""
}
