package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/adapters/http/middleware"
	"poolside/internal/adapters/view"
	"poolside/internal/application/controllers"
	"poolside/internal/application/projections"
	"poolside/internal/domain/timetable"
)

const activitiesUnavailableMsg = "Activities are unavailable right now. Please try again later."

// csrfFieldName is the form field gorilla/csrf reads; it is stripped before
// a form is forwarded to the booking server.
const csrfFieldName = "gorilla.csrf.Token"

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	zap.L().Error("internal_error", zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("json_encode_failed", zap.Error(err))
	}
}

// isFetch reports whether the request came from the page script and wants a
// fragment instead of a redirect.
func isFetch(r *http.Request) bool {
	switch r.Header.Get("X-Requested-With") {
	case "fetch", "XMLHttpRequest":
		return true
	}
	return false
}

// seeOther finishes a form post the way browsers expect.
func seeOther(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (f *Front) pageData(r *http.Request, v *viewer, title string, activities []timetable.Activity) view.PageData {
	return view.PageData{
		Title:         title,
		CSRFField:     csrf.TemplateField(r),
		UpstreamToken: v.tokenFor(r),
		State:         v.doc.Snapshot(),
		Activities:    activities,
	}
}

func (f *Front) renderPage(w http.ResponseWriter, page string, data view.PageData) {
	var buf bytes.Buffer
	if err := f.deps.Renderer.Page(&buf, page, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (f *Front) renderFragment(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := f.deps.Renderer.Fragment(&buf, name, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (f *Front) overlayResponse(w http.ResponseWriter, r *http.Request, v *viewer) {
	if isFetch(r) {
		f.renderFragment(w, view.FragmentOverlay, f.pageData(r, v, "", nil))
		return
	}
	seeOther(w, r, "/")
}

// handleIndex renders the activity cards (GET /)
// PRE: none
// POST: Page shows the activities, the overlay and the notification slot
func (f *Front) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	activities := f.loadActivities(r.Context(), v)
	f.renderPage(w, view.PageIndex, f.pageData(r, v, "Activities", activities))
}

// handleActivitySessions opens the session overlay (GET /activities/{id}/sessions)
// PRE: id is an activity id
// POST: Overlay shows the latest request's sessions or an error entry
func (f *Front) handleActivitySessions(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	id := r.PathValue("id")
	title := r.URL.Query().Get("title")
	if title == "" {
		title = v.activityName(id)
	}

	rendered := v.sessions.OpenActivity(r.Context(), projections.ActivitySessionsQuery{ActivityID: id, Title: title})
	if !rendered {
		zap.L().Debug("sessions_superseded", zap.String("viewer_id", v.id), zap.String("activity_id", id))
	}
	f.overlayResponse(w, r, v)
}

// handleOverlayClose hides the overlay (POST /overlay/close)
func (f *Front) handleOverlayClose(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	v.sessions.CloseOverlay()
	f.overlayResponse(w, r, v)
}

// handleOverlayPointer dismisses the overlay for backdrop and close-control
// clicks (POST /overlay/pointer)
func (f *Front) handleOverlayPointer(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	v.sessions.HandlePointer(controllers.PointerTarget(r.PostFormValue("target")))
	f.overlayResponse(w, r, v)
}

// handleBookings shows the staff booking table (GET /staff/sessions/{id}/bookings)
// PRE: id is a session id
// POST: Table holds the server's listing; ?refresh forces a reload
func (f *Front) handleBookings(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	id := r.PathValue("id")
	if v.doc.Snapshot().SessionID != id || r.URL.Query().Has("refresh") {
		v.bookings.LoadListing(r.Context(), id)
	}
	data := f.pageData(r, v, "Bookings", nil)
	if isFetch(r) {
		f.renderFragment(w, view.FragmentBookingTable, data)
		return
	}
	f.renderPage(w, view.PageBookings, data)
}

// handleBookingAction forwards an attend/release form to the booking server
// (POST /staff/sessions/{id}/bookings/actions)
// PRE: form carries booking_id, action and csrfmiddlewaretoken
// POST: Table reflects the confirmed result; the notification slot explains it
func (f *Front) handleBookingAction(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	target, err := f.deps.Client.Resolve(bookingapi.SessionActionPath(id))
	if err != nil {
		internalError(w, err)
		return
	}
	values := url.Values{}
	for k, vs := range r.PostForm {
		if k == csrfFieldName {
			continue
		}
		values[k] = append([]string(nil), vs...)
	}

	result := v.bookings.SubmitAction(r.Context(), controllers.Form{
		Target:     target,
		Values:     values,
		RemoteAddr: middleware.ClientIP(r),
	})

	if isFetch(r) {
		status := http.StatusOK
		if !result.Succeeded() {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{
			"status":  string(result.Status),
			"message": result.Message,
		})
		return
	}
	seeOther(w, r, "/staff/sessions/"+url.PathEscape(id)+"/bookings")
}

// handleTimetable renders the timetable editor (GET /timetable)
// ?day=&time= opens the slot editor; ?refresh reloads the grid.
func (f *Front) handleTimetable(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	q := r.URL.Query()
	f.ensureTimetable(r.Context(), v, q.Has("refresh"))
	if day, at := q.Get("day"), q.Get("time"); day != "" && at != "" {
		v.timetable.OpenSlot(day, at)
	}
	activities := f.loadActivities(r.Context(), v)
	f.renderPage(w, view.PageTimetable, f.pageData(r, v, "Timetable", activities))
}

// handleAssignSlot writes an activity into a slot (POST /timetable/slots)
// PRE: form carries day, start_time, activity and csrfmiddlewaretoken
// POST: Cell updated only after the booking server confirms
func (f *Front) handleAssignSlot(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	a := timetable.SlotAssignment{
		Day:        r.PostForm.Get("day"),
		StartTime:  r.PostForm.Get("start_time"),
		ActivityID: r.PostForm.Get("activity"),
	}
	token := r.PostForm.Get("csrfmiddlewaretoken")
	if token == "" {
		token = v.tokenFor(r)
	}

	ok := v.timetable.AssignActivity(r.Context(), a, token, v.activityName(a.ActivityID))

	if isFetch(r) {
		status := http.StatusOK
		if !ok {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]bool{"success": ok})
		return
	}
	seeOther(w, r, "/timetable")
}

// handleCloseSlot dismisses the slot editor (POST /timetable/slots/close)
func (f *Front) handleCloseSlot(w http.ResponseWriter, r *http.Request) {
	f.viewerFor(r).timetable.CloseSlot()
	seeOther(w, r, "/timetable")
}

// handleTimetableDay pages the timetable (POST /timetable/days/{dir})
// PRE: dir is "next" or "prev"
func (f *Front) handleTimetableDay(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	switch r.PathValue("dir") {
	case "next":
		v.timetable.NextDay()
	case "prev":
		v.timetable.PrevDay()
	default:
		http.NotFound(w, r)
		return
	}
	seeOther(w, r, "/timetable")
}

// handleNotifications renders the notification slot (GET /notifications)
func (f *Front) handleNotifications(w http.ResponseWriter, r *http.Request) {
	v := f.viewerFor(r)
	f.renderFragment(w, view.FragmentNotification, v.doc.Snapshot())
}

// handleHealth reports liveness (GET /healthz)
func (f *Front) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"viewers":  f.viewers.Len(),
		"upstream": f.deps.Client.BaseURL(),
	})
}
