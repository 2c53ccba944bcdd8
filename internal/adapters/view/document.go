// Package view holds the per-viewer page state that controllers draw into and
// the templates that turn it into HTML.
package view

import (
	"sort"
	"sync"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/application/projections"
	"poolside/internal/domain/booking"
	"poolside/internal/domain/notification"
)

// EntryKind mirrors projections.EntryKind for templates.
type EntryKind string

const (
	EntrySession     EntryKind = "session"
	EntryFull        EntryKind = "full"
	EntryPlaceholder EntryKind = "placeholder"
	EntryError       EntryKind = "error"
)

// Entry is one line of the session overlay. Only session entries carry Href.
type Entry struct {
	Kind     EntryKind
	Label    string
	Capacity string
	Href     string
}

// Overlay is the session overlay as drawn.
type Overlay struct {
	Visible    bool
	ActivityID string
	Title      string
	Entries    []Entry
	Failed     bool
}

// Row is one line of the staff booking table.
type Row struct {
	ID        string // "booking-{id}"
	BookingID string
	Name      string
	People    int
	Attended  bool
}

// SlotEditor is the open timetable slot dialog.
type SlotEditor struct {
	Day       string
	StartTime string
}

// State is an immutable copy of a Document.
type State struct {
	Version      uint64
	Overlay      Overlay
	SessionID    string
	Rows         []Row
	Grid         bookingapi.Grid
	Day          string
	Editor       *SlotEditor
	Notification *notification.Notification
}

// Times returns the sorted start times of the visible day.
func (s State) Times() []string {
	slots := s.Grid[s.Day]
	times := make([]string, 0, len(slots))
	for t := range slots {
		times = append(times, t)
	}
	sort.Strings(times)
	return times
}

// Cell returns the text of (day, startTime).
func (s State) Cell(day, startTime string) string {
	return s.Grid[day][startTime]
}

// Document is one viewer's page. Every mutation bumps the version and wakes
// subscribers. Safe for concurrent use.
type Document struct {
	mu           sync.Mutex
	version      uint64
	overlay      Overlay
	sessionID    string
	rows         []Row
	grid         bookingapi.Grid
	day          string
	editor       *SlotEditor
	notification *notification.Notification

	subs    map[int]chan struct{}
	nextSub int
}

// NewDocument creates an empty page.
func NewDocument() *Document {
	return &Document{
		grid: bookingapi.Grid{},
		subs: make(map[int]chan struct{}),
	}
}

// Snapshot returns a deep copy of the current state.
func (d *Document) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := State{
		Version:   d.version,
		Overlay:   d.overlay,
		SessionID: d.sessionID,
		Rows:      append([]Row(nil), d.rows...),
		Grid:      make(bookingapi.Grid, len(d.grid)),
		Day:       d.day,
	}
	s.Overlay.Entries = append([]Entry(nil), d.overlay.Entries...)
	for day, slots := range d.grid {
		cp := make(map[string]string, len(slots))
		for t, v := range slots {
			cp[t] = v
		}
		s.Grid[day] = cp
	}
	if d.editor != nil {
		e := *d.editor
		s.Editor = &e
	}
	if d.notification != nil {
		n := *d.notification
		s.Notification = &n
	}
	return s
}

// Version returns the mutation counter.
func (d *Document) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Subscribe returns a channel signalled after every mutation. Signals are
// coalesced; a slow reader sees at least one wake-up per burst.
func (d *Document) Subscribe() (<-chan struct{}, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	ch := make(chan struct{}, 1)
	d.subs[id] = ch
	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// changedLocked must be called with mu held.
func (d *Document) changedLocked() {
	d.version++
	for _, ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// RenderOverlay replaces the overlay content in one step and shows it.
func (d *Document) RenderOverlay(v projections.SessionListView) {
	entries := make([]Entry, 0, len(v.Entries))
	for _, e := range v.Entries {
		entry := Entry{Kind: EntryKind(e.Kind), Label: e.Label, Capacity: e.Capacity}
		if e.Actionable() {
			entry.Href = e.Href
		}
		entries = append(entries, entry)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay = Overlay{
		Visible:    true,
		ActivityID: v.ActivityID,
		Title:      v.Title,
		Entries:    entries,
		Failed:     v.Failed(),
	}
	d.changedLocked()
}

// HideOverlay hides the overlay and drops its content.
func (d *Document) HideOverlay() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay = Overlay{}
	d.changedLocked()
}

// SetBookings replaces the booking table.
func (d *Document) SetBookings(sessionID string, bookings []booking.Booking) {
	rows := make([]Row, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, Row{
			ID:        booking.RowID(b.ID),
			BookingID: b.ID,
			Name:      b.FullName(),
			People:    b.People,
			Attended:  b.Attended,
		})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessionID = sessionID
	d.rows = rows
	d.changedLocked()
}

// RemoveRow deletes the row with identity rowID.
func (d *Document) RemoveRow(rowID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.rows {
		if r.ID == rowID {
			d.rows = append(d.rows[:i], d.rows[i+1:]...)
			d.changedLocked()
			return true
		}
	}
	return false
}

// MarkAttended sets only the attendance cell of rowID.
func (d *Document) MarkAttended(rowID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.rows {
		if d.rows[i].ID == rowID {
			d.rows[i].Attended = true
			d.changedLocked()
			return true
		}
	}
	return false
}

// SetGrid replaces the timetable.
func (d *Document) SetGrid(grid bookingapi.Grid) {
	cp := make(bookingapi.Grid, len(grid))
	for day, slots := range grid {
		m := make(map[string]string, len(slots))
		for t, v := range slots {
			m[t] = v
		}
		cp[day] = m
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grid = cp
	d.changedLocked()
}

// SetCell writes text into one timetable cell.
func (d *Document) SetCell(day, startTime, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.grid[day] == nil {
		d.grid[day] = make(map[string]string)
	}
	d.grid[day][startTime] = text
	d.changedLocked()
}

// ShowDay selects the visible timetable page.
func (d *Document) ShowDay(day string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.day = day
	d.changedLocked()
}

// OpenSlotEditor opens the dialog for (day, startTime).
func (d *Document) OpenSlotEditor(day, startTime string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editor = &SlotEditor{Day: day, StartTime: startTime}
	d.changedLocked()
}

// CloseSlotEditor closes the dialog.
func (d *Document) CloseSlotEditor() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editor = nil
	d.changedLocked()
}

// SetNotification fills the notification slot, replacing what was there.
func (d *Document) SetNotification(n notification.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notification = &n
	d.changedLocked()
}

// ClearNotification empties the notification slot.
func (d *Document) ClearNotification() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notification = nil
	d.changedLocked()
}
