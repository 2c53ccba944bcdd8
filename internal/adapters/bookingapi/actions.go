package bookingapi

import (
	"context"
	"net/url"

	"poolside/internal/domain/booking"
)

type actionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PostAction submits a booking management form to target.
// The token travels in the X-CSRFToken header as well as in the form body.
// PRE: form carries booking_id, action and csrfmiddlewaretoken
// POST: Returns the server's result; a well-formed "error" answer is returned
// as a failed ActionResult together with an *ApplicationError
func (c *Client) PostAction(ctx context.Context, target string, form url.Values, csrfToken string) (booking.ActionResult, error) {
	var resp actionResponse
	if err := c.postForm(ctx, target, form, csrfToken, &resp); err != nil {
		return booking.ActionResult{}, err
	}
	switch resp.Status {
	case "success":
		return booking.Success(resp.Message), nil
	case "error":
		return booking.Failure(resp.Message), &ApplicationError{Message: resp.Message}
	default:
		return booking.ActionResult{}, payloadErrorf("unknown action status %q", resp.Status)
	}
}
