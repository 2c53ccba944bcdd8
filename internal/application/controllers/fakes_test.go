package controllers

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/application/projections"
	"poolside/internal/domain/audit"
	"poolside/internal/domain/booking"
	"poolside/internal/domain/session"
	"poolside/internal/domain/timetable"
)

type overlayCall struct {
	view   projections.SessionListView
	hidden bool
}

type fakeOverlay struct {
	mu    sync.Mutex
	calls []overlayCall
}

func (f *fakeOverlay) RenderOverlay(v projections.SessionListView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, overlayCall{view: v})
}

func (f *fakeOverlay) HideOverlay() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, overlayCall{hidden: true})
}

func (f *fakeOverlay) renders() []projections.SessionListView {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []projections.SessionListView
	for _, c := range f.calls {
		if !c.hidden {
			out = append(out, c.view)
		}
	}
	return out
}

// gatedFetcher blocks each activity's fetch until its gate is released.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	results map[string][]session.Session
	errs    map[string]error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   map[string]chan struct{}{},
		started: make(chan string, 8),
		results: map[string][]session.Session{},
		errs:    map[string]error{},
	}
}

func (f *gatedFetcher) gate(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[id]
	if !ok {
		g = make(chan struct{})
		f.gates[id] = g
	}
	return g
}

func (f *gatedFetcher) FetchSessions(ctx context.Context, activityID string) ([]session.Session, error) {
	g := f.gate(activityID)
	f.started <- activityID
	select {
	case <-g:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[activityID], f.errs[activityID]
}

type stubFetcher struct {
	sessions []session.Session
	err      error
}

func (s stubFetcher) FetchSessions(context.Context, string) ([]session.Session, error) {
	return s.sessions, s.err
}

type fakeTable struct {
	mu        sync.Mutex
	sessionID string
	rows      []booking.Booking
	removed   []string
	attended  []string
}

func newFakeTable(ids ...string) *fakeTable {
	t := &fakeTable{}
	for _, id := range ids {
		t.rows = append(t.rows, booking.Booking{ID: id, FirstName: "Row", LastName: id, People: 1})
	}
	return t
}

func (t *fakeTable) SetBookings(sessionID string, rows []booking.Booking) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = sessionID
	t.rows = append([]booking.Booking(nil), rows...)
}

func (t *fakeTable) RemoveRow(rowID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removed = append(t.removed, rowID)
	for i, r := range t.rows {
		if booking.RowID(r.ID) == rowID {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			return true
		}
	}
	return false
}

func (t *fakeTable) MarkAttended(rowID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attended = append(t.attended, rowID)
	for i, r := range t.rows {
		if booking.RowID(r.ID) == rowID {
			t.rows[i].Attended = true
			return true
		}
	}
	return false
}

func (t *fakeTable) snapshot() []booking.Booking {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]booking.Booking(nil), t.rows...)
}

type notice struct {
	message string
	success bool
	ttl     time.Duration
}

type fakeNotices struct {
	mu      sync.Mutex
	current *notice
	history []notice
}

func (n *fakeNotices) Success(message string, ttl time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := notice{message: message, success: true, ttl: ttl}
	n.current = &v
	n.history = append(n.history, v)
}

func (n *fakeNotices) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := notice{message: message}
	n.current = &v
	n.history = append(n.history, v)
}

func (n *fakeNotices) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
}

func (n *fakeNotices) last() (notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return notice{}, false
	}
	return *n.current, true
}

type postCall struct {
	target string
	form   url.Values
	token  string
}

type stubPoster struct {
	mu     sync.Mutex
	calls  []postCall
	result booking.ActionResult
	err    error
	gate   chan struct{} // optional; blocks every call until closed
	// answer, when set, decides the reply from the posted token.
	answer func(token string) (booking.ActionResult, error)
}

func (p *stubPoster) PostAction(ctx context.Context, target string, form url.Values, csrfToken string) (booking.ActionResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, postCall{target: target, form: form, token: csrfToken})
	gate := p.gate
	p.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if p.answer != nil {
		return p.answer(csrfToken)
	}
	return p.result, p.err
}

func (p *stubPoster) tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.token)
	}
	return out
}

// waitForCalls blocks until the poster has seen n calls.
func waitForCalls(t *testing.T, p *stubPoster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.callCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("poster saw %d calls, want %d", p.callCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *stubPoster) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type stubLister struct {
	rows []booking.Booking
	err  error
}

func (l stubLister) ListBookings(context.Context, string) ([]booking.Booking, error) {
	return l.rows, l.err
}

type memAudit struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (m *memAudit) Save(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memAudit) all() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Event(nil), m.events...)
}

type cell struct{ day, time, text string }

type fakeTimetableView struct {
	grid       bookingapi.Grid
	cells      []cell
	shown      []string
	editorOpen bool
	editorSlot [2]string
}

func (v *fakeTimetableView) SetGrid(g bookingapi.Grid) { v.grid = g }

func (v *fakeTimetableView) SetCell(day, startTime, text string) {
	v.cells = append(v.cells, cell{day, startTime, text})
}

func (v *fakeTimetableView) ShowDay(day string) { v.shown = append(v.shown, day) }

func (v *fakeTimetableView) OpenSlotEditor(day, startTime string) {
	v.editorOpen = true
	v.editorSlot = [2]string{day, startTime}
}

func (v *fakeTimetableView) CloseSlotEditor() { v.editorOpen = false }

type stubSlots struct {
	calls  []timetable.SlotAssignment
	tokens []string
	result bookingapi.SlotResult
	err    error
	grid   bookingapi.Grid
	gridEr error
}

func (s *stubSlots) AssignSlot(_ context.Context, a timetable.SlotAssignment, csrfToken string) (bookingapi.SlotResult, error) {
	s.calls = append(s.calls, a)
	s.tokens = append(s.tokens, csrfToken)
	return s.result, s.err
}

func (s *stubSlots) FetchTimetable(context.Context) (bookingapi.Grid, error) {
	return s.grid, s.gridEr
}
