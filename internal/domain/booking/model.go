package booking

import (
	"errors"
	"strings"
)

// Action is a state transition applied to an existing booking.
type Action string

const (
	ActionAttend  Action = "attend"
	ActionRelease Action = "release"
)

// Status is the outcome reported for a booking action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Form field names shared with the booking server.
const (
	FieldBookingID = "booking_id"
	FieldAction    = "action"
	FieldCSRFToken = "csrfmiddlewaretoken"
)

// RowPrefix prefixes the identity of a booking row in a listing.
const RowPrefix = "booking-"

// Domain errors
var (
	ErrEmptyBookingID = errors.New("booking id is required")
	ErrInvalidAction  = errors.New("action must be one of: attend, release")
	ErrMissingToken   = errors.New("csrf token is required")
)

// ValidActions contains all valid booking actions.
var ValidActions = []Action{ActionAttend, ActionRelease}

// ParseAction converts a form value into an Action.
// PRE: none
// POST: Returns the action or ErrInvalidAction
func ParseAction(v string) (Action, error) {
	a := Action(strings.TrimSpace(v))
	for _, valid := range ValidActions {
		if a == valid {
			return a, nil
		}
	}
	return "", ErrInvalidAction
}

// BookingAction is one submission of the booking management form.
// It lives only for the duration of the request.
type BookingAction struct {
	BookingID string
	Action    Action
	CSRFToken string
}

// Validate checks if the BookingAction has valid data.
// PRE: BookingAction struct is populated
// POST: Returns nil if valid, error otherwise
func (b BookingAction) Validate() error {
	if b.BookingID == "" {
		return ErrEmptyBookingID
	}
	if _, err := ParseAction(string(b.Action)); err != nil {
		return err
	}
	if b.CSRFToken == "" {
		return ErrMissingToken
	}
	return nil
}

// RowID returns the identity of the row this action targets.
func (b BookingAction) RowID() string {
	return RowID(b.BookingID)
}

// ActionResult is the server's authoritative answer to a BookingAction.
type ActionResult struct {
	Status  Status
	Message string
}

// Succeeded reports whether the server confirmed the action.
func (r ActionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Success builds a successful result.
func Success(message string) ActionResult {
	return ActionResult{Status: StatusSuccess, Message: message}
}

// Failure builds a failed result.
func Failure(message string) ActionResult {
	return ActionResult{Status: StatusFailure, Message: message}
}

// RowID returns the identity of a booking row, e.g. "booking-42".
func RowID(bookingID string) string {
	return RowPrefix + bookingID
}

// Booking is one row of the staff session listing.
type Booking struct {
	ID        string
	FirstName string
	LastName  string
	People    int
	Attended  bool
}

// FullName returns the guest's display name.
func (b Booking) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}
