package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"poolside/internal/domain/session"
)

// sessionWire accepts both the flat shape and the serializer shape
// ({"pk": 3, "fields": {...}}) the booking server has used.
type sessionWire struct {
	PK              json.RawMessage `json:"pk"`
	ID              json.RawMessage `json:"id"`
	SessionDay      string          `json:"session_day"`
	Day             string          `json:"day"`
	StartTime       string          `json:"start_time"`
	AvailablePlaces *int            `json:"available_places"`
	IsFull          *bool           `json:"is_full"`
	Fields          *sessionWire    `json:"fields"`
}

type sessionsResponse struct {
	Sessions json.RawMessage `json:"sessions"`
	Error    *string         `json:"error"`
}

// SessionsPath returns the per-activity sessions resource.
func SessionsPath(activityID string) string {
	return "bookings/api/sessions/" + url.PathEscape(activityID) + "/"
}

// FetchSessions retrieves the bookable sessions of an activity.
// An absent or empty list is not an error; it yields an empty slice.
// PRE: activityID is non-empty
// POST: Returns validated sessions, or an error wrapping ErrTransport, ErrPayload or ErrApplication
func (c *Client) FetchSessions(ctx context.Context, activityID string) ([]session.Session, error) {
	if activityID == "" {
		return nil, payloadErrorf("activity id is required")
	}
	var resp sessionsResponse
	if err := c.get(ctx, SessionsPath(activityID), &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ApplicationError{Message: *resp.Error}
	}
	return decodeSessions(resp.Sessions)
}

func decodeSessions(raw json.RawMessage) ([]session.Session, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []session.Session{}, nil
	}

	// Some server revisions send the list as a serialized JSON string.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, payloadErrorf("sessions string: %v", err)
		}
		raw = json.RawMessage(inner)
	}

	var wires []sessionWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, payloadErrorf("sessions is not a list: %v", err)
	}

	out := make([]session.Session, 0, len(wires))
	for i, w := range wires {
		s, err := w.toSession()
		if err != nil {
			return nil, payloadErrorf("session %d: %v", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (w sessionWire) toSession() (session.Session, error) {
	id := idString(w.PK)
	if id == "" {
		id = idString(w.ID)
	}
	if w.Fields != nil {
		w = *w.Fields
	}

	s := session.Session{
		ID:        id,
		Day:       firstNonEmpty(w.SessionDay, w.Day),
		StartTime: w.StartTime,
	}
	if w.IsFull != nil {
		s.Full = *w.IsFull
	}
	switch {
	case w.AvailablePlaces != nil:
		s.AvailablePlaces = *w.AvailablePlaces
	case s.Full:
		s.AvailablePlaces = 0
	default:
		return session.Session{}, errMissingCapacity
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

var errMissingCapacity = &PayloadError{Reason: "available_places is missing"}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
