package bookingapi

import (
	"context"
	"encoding/json"
	"net/url"

	"poolside/internal/domain/booking"
)

type bookingWire struct {
	ID             json.RawMessage `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	NumberOfPeople int             `json:"number_of_people"`
	Attended       bool            `json:"attended"`
}

type bookingsResponse struct {
	Bookings *[]bookingWire `json:"bookings"`
	Error    *string        `json:"error"`
}

// SessionActionPath is where booking management forms for a session post to.
func SessionActionPath(sessionID string) string {
	return "bookings/session/" + url.PathEscape(sessionID) + "/"
}

// ListBookings returns the bookings of one session for the staff listing.
// PRE: sessionID is non-empty
// POST: Returns the rows in server order
func (c *Client) ListBookings(ctx context.Context, sessionID string) ([]booking.Booking, error) {
	var resp bookingsResponse
	if err := c.get(ctx, "bookings/api/session/"+url.PathEscape(sessionID)+"/bookings/", &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ApplicationError{Message: *resp.Error}
	}
	if resp.Bookings == nil {
		return nil, payloadErrorf("bookings list is missing")
	}
	out := make([]booking.Booking, 0, len(*resp.Bookings))
	for i, w := range *resp.Bookings {
		id := idString(w.ID)
		if id == "" {
			return nil, payloadErrorf("booking %d has no id", i)
		}
		out = append(out, booking.Booking{
			ID:        id,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			People:    w.NumberOfPeople,
			Attended:  w.Attended,
		})
	}
	return out, nil
}
