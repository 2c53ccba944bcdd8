// Package controllers turns viewer interactions into booking server calls and
// applies the confirmed results to a view binding. Controllers never touch
// markup; the binding decides how state is drawn.
package controllers

import (
	"context"
	"net/url"
	"time"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/application/projections"
	"poolside/internal/domain/audit"
	"poolside/internal/domain/booking"
	"poolside/internal/domain/timetable"
)

// OverlayBinding draws the session overlay.
type OverlayBinding interface {
	// RenderOverlay replaces the overlay content with v and makes it visible.
	RenderOverlay(v projections.SessionListView)
	HideOverlay()
}

// TableBinding draws the staff booking listing.
type TableBinding interface {
	SetBookings(sessionID string, rows []booking.Booking)
	// RemoveRow deletes the row with the given identity; false if absent.
	RemoveRow(rowID string) bool
	// MarkAttended updates only the attendance cell of the row; false if absent.
	MarkAttended(rowID string) bool
}

// TimetableBinding draws the timetable editor.
type TimetableBinding interface {
	SetGrid(grid bookingapi.Grid)
	SetCell(day, startTime, text string)
	ShowDay(day string)
	OpenSlotEditor(day, startTime string)
	CloseSlotEditor()
}

// Notifier is the single-slot notification area.
type Notifier interface {
	Success(message string, ttl time.Duration)
	Error(message string)
	Clear()
}

// ActionPoster submits booking management forms.
type ActionPoster interface {
	PostAction(ctx context.Context, target string, form url.Values, csrfToken string) (booking.ActionResult, error)
}

// BookingLister loads a session's bookings.
type BookingLister interface {
	ListBookings(ctx context.Context, sessionID string) ([]booking.Booking, error)
}

// SlotWriter talks to the timetable endpoints.
type SlotWriter interface {
	AssignSlot(ctx context.Context, a timetable.SlotAssignment, csrfToken string) (bookingapi.SlotResult, error)
	FetchTimetable(ctx context.Context) (bookingapi.Grid, error)
}

// AuditRecorder stores submitted actions. Recording is best effort.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// Compile-time checks against the real adapters.
var (
	_ projections.SessionFetcher = (*bookingapi.Client)(nil)
	_ ActionPoster               = (*bookingapi.Client)(nil)
	_ BookingLister              = (*bookingapi.Client)(nil)
	_ SlotWriter                 = (*bookingapi.Client)(nil)
)

// Generic failure texts, used when the server sent none.
const (
	UnreachableMsg      = "Could not reach the booking server. Please try again."
	UnusableResponseMsg = "Received an unusable response from the booking server."
	RejectedFallbackMsg = "The booking server could not complete the request."
)

// failureMessage picks the text shown for a failed booking server call.
func failureMessage(err error) string {
	if msg, ok := bookingapi.ServerMessage(err); ok {
		return msg
	}
	switch {
	case isPayload(err):
		return UnusableResponseMsg
	case isApplication(err):
		return RejectedFallbackMsg
	}
	return UnreachableMsg
}
