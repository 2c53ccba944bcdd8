package web

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/adapters/http/middleware"
	"poolside/internal/adapters/view"
	"poolside/internal/application/controllers"
	"poolside/internal/application/notify"
	"poolside/internal/domain/timetable"
)

// The Document is the binding every controller draws into.
var (
	_ controllers.OverlayBinding   = (*view.Document)(nil)
	_ controllers.TableBinding     = (*view.Document)(nil)
	_ controllers.TimetableBinding = (*view.Document)(nil)
	_ notify.Slot                  = (*view.Document)(nil)
)

// upstreamCSRFCookie is the booking server's CSRF cookie, present when the
// front shares its domain.
const upstreamCSRFCookie = bookingapi.CSRFCookie

// viewer is one browser's page plus the controllers that draw into it.
type viewer struct {
	id            string
	doc           *view.Document
	notices       *notify.Center
	sessions      *controllers.SessionListController
	bookings      *controllers.BookingActionController
	timetable     *controllers.TimetableController
	upstreamToken string

	mu              sync.Mutex
	activities      []timetable.Activity
	timetableLoaded bool
}

func (f *Front) newViewer(id string) *viewer {
	doc := view.NewDocument()
	notices := notify.NewCenter(doc, nil)
	v := &viewer{
		id:            id,
		doc:           doc,
		notices:       notices,
		upstreamToken: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	v.sessions = controllers.NewSessionListController(controllers.SessionListDeps{
		Sessions: f.deps.Client,
		Overlay:  doc,
	})

	var recorder controllers.AuditRecorder
	if f.deps.Audit != nil {
		recorder = f.deps.Audit
	}
	v.bookings = controllers.NewBookingActionController(controllers.BookingActionDeps{
		Poster:     f.deps.Client,
		Lister:     f.deps.Client,
		Table:      doc,
		Notices:    notices,
		Audit:      recorder,
		SuccessTTL: f.opts.SuccessTTL,
		ViewerID:   id,
	})

	tc, err := controllers.NewTimetableController(controllers.TimetableDeps{
		Slots:      f.deps.Client,
		View:       doc,
		Notices:    notices,
		Audit:      recorder,
		Days:       f.opts.TimetableDays,
		SuccessTTL: f.opts.SuccessTTL,
		ViewerID:   id,
	})
	if err != nil {
		zap.L().Warn("timetable_days_invalid", zap.Error(err))
		tc, _ = controllers.NewTimetableController(controllers.TimetableDeps{
			Slots: f.deps.Client, View: doc, Notices: notices, Audit: recorder,
			SuccessTTL: f.opts.SuccessTTL, ViewerID: id,
		})
	}
	v.timetable = tc
	zap.L().Debug("viewer_created", zap.String("viewer_id", id))
	return v
}

// close stops pending notification timers.
func (v *viewer) close() {
	v.notices.Clear()
}

// viewerFor returns the viewer of the request.
func (f *Front) viewerFor(r *http.Request) *viewer {
	return f.viewers.Get(viewerID(r))
}

func viewerID(r *http.Request) string {
	if id, ok := middleware.ViewerID(r.Context()); ok {
		return id
	}
	return "anonymous"
}

// tokenFor returns the csrfmiddlewaretoken forms carry to the booking server.
func (v *viewer) tokenFor(r *http.Request) string {
	if c, err := r.Cookie(upstreamCSRFCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return v.upstreamToken
}

// loadActivities refreshes the cached activity list. On failure the cached
// list is kept and the viewer is told.
func (f *Front) loadActivities(ctx context.Context, v *viewer) []timetable.Activity {
	list, err := f.deps.Client.ListActivities(ctx)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		zap.L().Warn("activities_fetch_failed", zap.String("viewer_id", v.id), zap.Error(err))
		v.notices.Error(activitiesUnavailableMsg)
		return append([]timetable.Activity(nil), v.activities...)
	}
	v.activities = list
	return append([]timetable.Activity(nil), list...)
}

// activityName finds a cached activity by id.
func (v *viewer) activityName(id string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, a := range v.activities {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

// ensureTimetable loads the grid on the first visit.
func (f *Front) ensureTimetable(ctx context.Context, v *viewer, force bool) {
	v.mu.Lock()
	loaded := v.timetableLoaded
	v.mu.Unlock()
	if loaded && !force {
		return
	}
	if v.timetable.Load(ctx) {
		v.mu.Lock()
		v.timetableLoaded = true
		v.mu.Unlock()
	}
}
