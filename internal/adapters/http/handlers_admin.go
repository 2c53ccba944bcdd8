package web

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	auditStore "poolside/internal/adapters/storage/audit"
	auditDomain "poolside/internal/domain/audit"
)

// requireAdmin checks the bearer token configured for /admin/*.
func (f *Front) requireAdmin(next http.Handler) http.Handler {
	want := []byte(f.opts.AdminToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleAdminPerf returns request and booking server timings (GET /admin/perf)
// ?minutes= sets the window (default 60), ?top= the number of paths (default 10).
func (f *Front) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if f.deps.Collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	minutes := queryInt(r, "minutes", 60, 1, 24*60)
	top := queryInt(r, "top", 10, 1, 100)
	snap := f.deps.Collector.Snapshot(time.Now().Add(-time.Duration(minutes)*time.Minute), top)
	writeJSON(w, http.StatusOK, snap)
}

// handleAdminAudit lists submitted actions (GET /admin/audit)
// PRE: Authorization carries the admin token
// POST: Returns up to ?limit= events (default 100), newest first
func (f *Front) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if f.deps.Audit == nil {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	filter := auditStore.Filter{}
	if category := q.Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := q.Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if outcome := q.Get("outcome"); outcome != "" {
		out := auditDomain.Outcome(outcome)
		filter.Outcome = &out
	}
	if viewerID := q.Get("viewer_id"); viewerID != "" {
		filter.ViewerID = &viewerID
	}
	if resourceID := q.Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}
	limit := queryInt(r, "limit", 100, 1, 1000)

	events, err := f.deps.Audit.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "limit": limit})
}

// handleAdminAuditEvent returns one event (GET /admin/audit/{id})
func (f *Front) handleAdminAuditEvent(w http.ResponseWriter, r *http.Request) {
	if f.deps.Audit == nil {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}
	event, err := f.deps.Audit.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return def
	}
	return n
}
