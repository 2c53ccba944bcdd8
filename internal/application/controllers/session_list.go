package controllers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"poolside/internal/application/projections"
)

// PointerTarget is the part of the overlay a pointer interaction landed on.
type PointerTarget string

const (
	TargetBackdrop     PointerTarget = "backdrop"
	TargetContent      PointerTarget = "content"
	TargetCloseControl PointerTarget = "close"
)

// SessionListDeps holds dependencies for SessionListController.
type SessionListDeps struct {
	Sessions projections.SessionFetcher
	Overlay  OverlayBinding
}

// SessionListController opens the session overlay for an activity card.
//
// Every open is tagged with a generation number. Only the response of the
// most recent request may render; an older response that resolves later is
// dropped at the render step. Closing the overlay also invalidates requests
// still in flight.
type SessionListController struct {
	deps SessionListDeps

	mu         sync.Mutex
	generation uint64
	open       string // activity id of the overlay on screen, "" when hidden
}

// NewSessionListController creates a controller bound to deps.Overlay.
func NewSessionListController(deps SessionListDeps) *SessionListController {
	return &SessionListController{deps: deps}
}

// OpenSessionsFor loads the sessions of activityID and shows them.
// It reports whether this call's result was rendered; false means a newer
// request (or a close) superseded it.
// PRE: activityID is non-empty
// POST: overlay is visible with content for the latest request, or untouched
func (c *SessionListController) OpenSessionsFor(ctx context.Context, activityID string) bool {
	return c.OpenActivity(ctx, projections.ActivitySessionsQuery{ActivityID: activityID})
}

// OpenActivity is OpenSessionsFor with the card's title.
func (c *SessionListController) OpenActivity(ctx context.Context, query projections.ActivitySessionsQuery) bool {
	gen := c.begin()

	view := projections.GetActivitySessions(ctx, query, projections.ActivitySessionsDeps{Sessions: c.deps.Sessions})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		zap.L().Debug("sessions_response_discarded",
			zap.String("activity_id", query.ActivityID),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", c.generation),
		)
		return false
	}
	c.deps.Overlay.RenderOverlay(view)
	c.open = query.ActivityID
	return true
}

// CloseOverlay hides the overlay and drops any response still in flight.
func (c *SessionListController) CloseOverlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.open = ""
	c.deps.Overlay.HideOverlay()
}

// HandlePointer dismisses the overlay for clicks on the backdrop or the close
// control. Clicks inside the content are ignored. Reports whether it closed.
func (c *SessionListController) HandlePointer(target PointerTarget) bool {
	switch target {
	case TargetBackdrop, TargetCloseControl:
		c.CloseOverlay()
		return true
	}
	return false
}

// OpenActivityID returns the activity whose sessions are on screen.
func (c *SessionListController) OpenActivityID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *SessionListController) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}
