package timetable

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrMissingDay      = errors.New("session day is required")
	ErrMissingTime     = errors.New("start time is required")
	ErrMissingActivity = errors.New("please select an activity")
	ErrNoDays          = errors.New("timetable needs at least one day")
)

// DefaultDays is the week the timetable pages through.
var DefaultDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Activity is a bookable pool activity shown as a card.
type Activity struct {
	ID          string
	Name        string
	Description string // Markdown
}

// SlotAssignment places an activity into a (day, start time) slot.
type SlotAssignment struct {
	Day        string
	StartTime  string
	ActivityID string
}

// Validate checks if the SlotAssignment has valid data.
// PRE: SlotAssignment struct is populated from the slot editor
// POST: Returns nil if valid, error otherwise
func (a SlotAssignment) Validate() error {
	if strings.TrimSpace(a.ActivityID) == "" {
		return ErrMissingActivity
	}
	if strings.TrimSpace(a.Day) == "" {
		return ErrMissingDay
	}
	if strings.TrimSpace(a.StartTime) == "" {
		return ErrMissingTime
	}
	return nil
}

// Pager tracks which day page of the timetable is visible.
type Pager struct {
	days    []string
	current int
}

// NewPager creates a pager positioned on the first day.
// PRE: days is non-empty
// POST: Returns a pager showing days[0]
func NewPager(days []string) (*Pager, error) {
	if len(days) == 0 {
		return nil, ErrNoDays
	}
	cp := make([]string, len(days))
	copy(cp, days)
	return &Pager{days: cp}, nil
}

// Show moves to index, ignoring out-of-range requests.
func (p *Pager) Show(index int) {
	if index < 0 || index >= len(p.days) {
		return
	}
	p.current = index
}

// Next advances one day unless already on the last page.
func (p *Pager) Next() { p.Show(p.current + 1) }

// Prev goes back one day unless already on the first page.
func (p *Pager) Prev() { p.Show(p.current - 1) }

// Current returns the visible day.
func (p *Pager) Current() string { return p.days[p.current] }

// Index returns the visible page index.
func (p *Pager) Index() int { return p.current }

// Days returns all pages in order.
func (p *Pager) Days() []string {
	cp := make([]string, len(p.days))
	copy(cp, p.days)
	return cp
}
