package controllers

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"poolside/internal/domain/audit"
	"poolside/internal/domain/booking"
	"poolside/internal/domain/notification"
)

// Default texts for confirmed actions the server did not describe.
const (
	ReleasedFallbackMsg = "Booking released."
	AttendedFallbackMsg = "Booking marked as attended."
)

// Form is one submission of a booking management form.
type Form struct {
	Target     string     // the form's declared action URL
	Values     url.Values // every field of the form, posted unchanged
	RemoteAddr string
}

// BookingActionDeps holds dependencies for BookingActionController.
type BookingActionDeps struct {
	Poster     ActionPoster
	Lister     BookingLister
	Table      TableBinding
	Notices    Notifier
	Audit      AuditRecorder // optional
	SuccessTTL time.Duration // zero means notification.DefaultSuccessTTL
	ViewerID   string
}

// BookingActionController submits attend/release actions and reconciles the
// booking listing with the server's answer. Nothing changes on screen before
// the server confirms.
type BookingActionController struct {
	deps BookingActionDeps

	// inFlight collapses double submissions of the same form by this viewer.
	inFlight singleflight.Group
}

// NewBookingActionController creates a controller bound to deps.Table.
func NewBookingActionController(deps BookingActionDeps) *BookingActionController {
	if deps.SuccessTTL <= 0 {
		deps.SuccessTTL = notification.DefaultSuccessTTL
	}
	return &BookingActionController{deps: deps}
}

// ParseForm extracts the booking action carried by a form.
// PRE: none
// POST: Returns a validated BookingAction or the first validation error
func ParseForm(values url.Values) (booking.BookingAction, error) {
	action, err := booking.ParseAction(values.Get(booking.FieldAction))
	a := booking.BookingAction{
		BookingID: values.Get(booking.FieldBookingID),
		Action:    action,
		CSRFToken: values.Get(booking.FieldCSRFToken),
	}
	if a.BookingID == "" {
		return a, booking.ErrEmptyBookingID
	}
	if err != nil {
		return a, err
	}
	return a, a.Validate()
}

type postOutcome struct {
	result booking.ActionResult
	err    error
}

// SubmitAction posts the form and applies the confirmed result.
// On success a release removes the row and an attend marks only its
// attendance cell; a transient notice follows. On any failure the listing is
// left untouched and a persistent notice explains why.
// PRE: form.Target is the booking server URL the form declares
// POST: Returns the ActionResult that was applied
func (c *BookingActionController) SubmitAction(ctx context.Context, form Form) booking.ActionResult {
	action, err := ParseForm(form.Values)
	if err != nil {
		msg := "Invalid booking form: " + err.Error()
		c.deps.Notices.Error(msg)
		zap.L().Warn("booking_action_invalid", zap.String("viewer_id", c.deps.ViewerID), zap.Error(err))
		return booking.Failure(msg)
	}

	out, shared := c.post(ctx, form, action)

	result := c.apply(action, out)
	c.record(ctx, form, action, out.err, result)

	zap.L().Info("booking_action",
		zap.String("viewer_id", c.deps.ViewerID),
		zap.String("booking_id", action.BookingID),
		zap.String("action", string(action.Action)),
		zap.String("status", string(result.Status)),
		zap.Bool("shared", shared),
		zap.Error(out.err),
	)
	return result
}

// post sends the form once per distinct submission. Identical forms (same
// target, every field equal) that arrive while one is pending wait for its
// answer. The shared call is detached from the first caller's context; each
// caller stops waiting when its own context ends.
func (c *BookingActionController) post(ctx context.Context, form Form, action booking.BookingAction) (postOutcome, bool) {
	key := form.Target + "?" + form.Values.Encode()
	detached := context.WithoutCancel(ctx)
	ch := c.inFlight.DoChan(key, func() (any, error) {
		res, err := c.deps.Poster.PostAction(detached, form.Target, form.Values, action.CSRFToken)
		return postOutcome{result: res, err: err}, nil
	})
	select {
	case r := <-ch:
		return r.Val.(postOutcome), r.Shared
	case <-ctx.Done():
		return postOutcome{err: ctx.Err()}, false
	}
}

func (c *BookingActionController) apply(action booking.BookingAction, out postOutcome) booking.ActionResult {
	if out.err != nil || !out.result.Succeeded() {
		msg := out.result.Message
		if out.err != nil {
			msg = failureMessage(out.err)
		}
		if msg == "" {
			msg = RejectedFallbackMsg
		}
		c.deps.Notices.Error(msg)
		return booking.Failure(msg)
	}

	msg := out.result.Message
	switch action.Action {
	case booking.ActionRelease:
		if !c.deps.Table.RemoveRow(action.RowID()) {
			zap.L().Debug("booking_row_missing", zap.String("row_id", action.RowID()))
		}
		if msg == "" {
			msg = ReleasedFallbackMsg
		}
	case booking.ActionAttend:
		if !c.deps.Table.MarkAttended(action.RowID()) {
			zap.L().Debug("booking_row_missing", zap.String("row_id", action.RowID()))
		}
		if msg == "" {
			msg = AttendedFallbackMsg
		}
	}
	c.deps.Notices.Success(msg, c.deps.SuccessTTL)
	return booking.Success(msg)
}

func (c *BookingActionController) record(ctx context.Context, form Form, action booking.BookingAction, callErr error, result booking.ActionResult) {
	if c.deps.Audit == nil {
		return
	}
	outcome := outcomeOf(callErr)
	if callErr == nil && !result.Succeeded() {
		outcome = audit.OutcomeRejected
	}
	event := audit.NewEvent(c.deps.ViewerID, audit.CategoryBooking, audit.Action(action.Action)).
		WithResource(action.BookingID).
		WithOutcome(outcome, result.Message).
		WithIP(form.RemoteAddr)
	if err := c.deps.Audit.Save(context.WithoutCancel(ctx), event); err != nil {
		zap.L().Error("audit_save_failed", zap.String("booking_id", action.BookingID), zap.Error(err))
	}
}

// LoadListing replaces the booking table with the server's current listing.
// On failure the previous listing stays and a persistent notice is shown.
// PRE: sessionID is non-empty
// POST: Reports whether the table was replaced
func (c *BookingActionController) LoadListing(ctx context.Context, sessionID string) bool {
	rows, err := c.deps.Lister.ListBookings(ctx, sessionID)
	if err != nil {
		c.deps.Notices.Error(failureMessage(err))
		zap.L().Warn("bookings_fetch_failed", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	c.deps.Table.SetBookings(sessionID, rows)
	return true
}
