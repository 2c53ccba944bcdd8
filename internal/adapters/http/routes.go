package web

import "net/http"

func (f *Front) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", f.handleIndex)
	mux.HandleFunc("GET /activities/{id}/sessions", f.handleActivitySessions)
	mux.HandleFunc("POST /overlay/close", f.handleOverlayClose)
	mux.HandleFunc("POST /overlay/pointer", f.handleOverlayPointer)

	mux.HandleFunc("GET /staff/sessions/{id}/bookings", f.handleBookings)
	mux.HandleFunc("POST /staff/sessions/{id}/bookings/actions", f.handleBookingAction)

	mux.HandleFunc("GET /timetable", f.handleTimetable)
	mux.HandleFunc("POST /timetable/slots", f.handleAssignSlot)
	mux.HandleFunc("POST /timetable/slots/close", f.handleCloseSlot)
	mux.HandleFunc("POST /timetable/days/{dir}", f.handleTimetableDay)

	mux.HandleFunc("GET /notifications", f.handleNotifications)
	mux.HandleFunc("GET /ws", f.handleWS)
	mux.HandleFunc("GET /healthz", f.handleHealth)

	if f.opts.AdminToken != "" {
		mux.Handle("GET /admin/perf", f.requireAdmin(http.HandlerFunc(f.handleAdminPerf)))
		mux.Handle("GET /admin/audit", f.requireAdmin(http.HandlerFunc(f.handleAdminAudit)))
		mux.Handle("GET /admin/audit/{id}", f.requireAdmin(http.HandlerFunc(f.handleAdminAuditEvent)))
	}
}
