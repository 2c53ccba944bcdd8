package session

import (
	"errors"
	"fmt"
	"net/url"
)

// BookingPath is the booking-creation flow a session entry links to.
const BookingPath = "/bookings/make/"

// Domain errors
var (
	ErrEmptyID          = errors.New("session id cannot be empty")
	ErrNegativeCapacity = errors.New("session available places cannot be negative")
)

// Session is a single bookable time slot for an activity.
// The value is a point-in-time snapshot of the booking server's answer;
// the server re-validates capacity when the booking is actually made.
type Session struct {
	ID              string
	Day             string // display label, e.g. "Monday"
	StartTime       string // display label, e.g. "09:00"
	AvailablePlaces int
	Full            bool // server-reported is_full flag
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated from a server payload
// POST: Returns nil if valid, error otherwise
func (s Session) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.AvailablePlaces < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// IsFull reports whether no places remain.
// Either signal from the server is enough to treat the session as full.
func (s Session) IsFull() bool {
	return s.Full || s.AvailablePlaces == 0
}

// BookingURL returns the booking-creation link for this session.
// PRE: s.ID is non-empty
// POST: Returns a path with the session id as query parameter
func (s Session) BookingURL() string {
	q := url.Values{}
	q.Set("session", s.ID)
	return BookingPath + "?" + q.Encode()
}

// CapacityLabel renders the exact remaining capacity at fetch time.
func (s Session) CapacityLabel() string {
	if s.AvailablePlaces == 1 {
		return "1 place left"
	}
	return fmt.Sprintf("%d places left", s.AvailablePlaces)
}

// Label is the human readable slot, e.g. "Monday at 09:00".
func (s Session) Label() string {
	switch {
	case s.Day == "":
		return s.StartTime
	case s.StartTime == "":
		return s.Day
	}
	return s.Day + " at " + s.StartTime
}
