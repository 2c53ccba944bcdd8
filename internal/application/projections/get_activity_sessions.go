package projections

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/domain/session"
)

// EntryKind tells the renderer how to draw one line of the session overlay.
type EntryKind string

const (
	EntrySession     EntryKind = "session"     // actionable, links to the booking flow
	EntryFull        EntryKind = "full"        // disabled "fully booked" indicator
	EntryPlaceholder EntryKind = "placeholder" // no sessions at all
	EntryError       EntryKind = "error"       // the list could not be loaded
)

// FailureKind separates the three ways loading sessions can fail.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureTransport   FailureKind = "transport"
	FailurePayload     FailureKind = "payload"
	FailureApplication FailureKind = "application"
)

// User facing texts.
const (
	NoSessionsText      = "No sessions available for this activity."
	FullyBookedText     = "Fully booked"
	BookNowText         = "Book now"
	UnusableResponseMsg = "Received an unusable response from the booking server. Please try again later."
	TransportFailureMsg = "Could not load sessions. Please check your connection and try again."
	ApplicationFallback = "Sessions are unavailable right now."
)

// SessionEntry is one rendered line of the overlay.
type SessionEntry struct {
	Kind      EntryKind
	SessionID string
	Label     string // "Monday at 09:00", or the placeholder/error text
	Capacity  string // "3 places left" or "Fully booked"
	Href      string // only set for EntrySession
}

// Actionable reports whether the entry links to the booking flow.
func (e SessionEntry) Actionable() bool {
	return e.Kind == EntrySession && e.Href != ""
}

// SessionListView is the complete render instruction for the session overlay.
type SessionListView struct {
	ActivityID string
	Title      string
	Entries    []SessionEntry
	Failure    FailureKind
}

// Failed reports whether the view is an error state.
func (v SessionListView) Failed() bool {
	return v.Failure != FailureNone
}

// SessionFetcher is the booking server call this projection needs.
type SessionFetcher interface {
	FetchSessions(ctx context.Context, activityID string) ([]session.Session, error)
}

// ActivitySessionsQuery identifies the activity card that was opened.
type ActivitySessionsQuery struct {
	ActivityID string
	Title      string
}

// ActivitySessionsDeps holds dependencies for GetActivitySessions.
type ActivitySessionsDeps struct {
	Sessions SessionFetcher
}

// GetActivitySessions fetches the sessions of an activity and projects them
// into overlay entries. It never returns an error: every failure becomes a
// single error entry so the overlay always has something to show.
// PRE: query.ActivityID is non-empty
// POST: Entries is non-empty; only EntrySession entries carry a link
func GetActivitySessions(ctx context.Context, query ActivitySessionsQuery, deps ActivitySessionsDeps) SessionListView {
	view := SessionListView{ActivityID: query.ActivityID, Title: query.Title}

	sessions, err := deps.Sessions.FetchSessions(ctx, query.ActivityID)
	if err != nil {
		view.Failure, view.Entries = failureEntries(err)
		zap.L().Warn("sessions_fetch_failed",
			zap.String("activity_id", query.ActivityID),
			zap.String("failure", string(view.Failure)),
			zap.Error(err),
		)
		return view
	}

	view.Entries = SessionEntries(sessions)
	return view
}

// SessionEntries projects validated sessions into overlay entries.
// An empty list yields exactly one placeholder entry.
func SessionEntries(sessions []session.Session) []SessionEntry {
	if len(sessions) == 0 {
		return []SessionEntry{{Kind: EntryPlaceholder, Label: NoSessionsText}}
	}
	entries := make([]SessionEntry, 0, len(sessions))
	for _, s := range sessions {
		if s.IsFull() {
			entries = append(entries, SessionEntry{
				Kind:      EntryFull,
				SessionID: s.ID,
				Label:     s.Label(),
				Capacity:  FullyBookedText,
			})
			continue
		}
		entries = append(entries, SessionEntry{
			Kind:      EntrySession,
			SessionID: s.ID,
			Label:     s.Label(),
			Capacity:  s.CapacityLabel(),
			Href:      s.BookingURL(),
		})
	}
	return entries
}

func failureEntries(err error) (FailureKind, []SessionEntry) {
	kind := FailureTransport
	msg := TransportFailureMsg
	switch {
	case errors.Is(err, bookingapi.ErrPayload):
		kind, msg = FailurePayload, UnusableResponseMsg
	case errors.Is(err, bookingapi.ErrApplication):
		kind, msg = FailureApplication, ApplicationFallback
		if serverMsg, ok := bookingapi.ServerMessage(err); ok {
			msg = serverMsg
		}
	}
	return kind, []SessionEntry{{Kind: EntryError, Label: msg}}
}
