package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the area of the front an event belongs to.
type Category string

const (
	CategoryBooking   Category = "booking"
	CategoryTimetable Category = "timetable"
)

// Action represents the action that was submitted upstream.
type Action string

const (
	ActionAttend  Action = "attend"
	ActionRelease Action = "release"
	ActionAssign  Action = "assign"
)

// Outcome records how the booking server answered.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected" // well-formed failure answer
	OutcomeFailed   Outcome = "failed"   // transport or payload failure
)

// Event represents a single audit log entry for a submitted action.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Category   Category  `json:"category"`
	Action     Action    `json:"action"`
	Outcome    Outcome   `json:"outcome"`
	ViewerID   string    `json:"viewer_id"`
	ResourceID string    `json:"resource_id"`
	Message    string    `json:"message"`
	IPAddress  string    `json:"ip_address"`
}

// NewEvent creates a new audit event with the current timestamp.
// PRE: category and action are non-empty
// POST: Returns an Event with a fresh id and the current timestamp
func NewEvent(viewerID string, category Category, action Action) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Category:  category,
		Action:    action,
		ViewerID:  viewerID,
	}
}

// WithResource sets the booking or slot the action targeted.
func (e Event) WithResource(resourceID string) Event {
	e.ResourceID = resourceID
	return e
}

// WithOutcome records the server's answer.
// PRE: message is the text shown to the viewer
// POST: Event outcome and message are set
func (e Event) WithOutcome(o Outcome, message string) Event {
	e.Outcome = o
	e.Message = message
	return e
}

// WithIP sets the remote address of the submitting viewer.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}
