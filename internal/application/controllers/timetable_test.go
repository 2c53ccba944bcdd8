package controllers

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/domain/audit"
	"poolside/internal/domain/timetable"
)

func newTimetable(t *testing.T, slots *stubSlots, days ...string) (*TimetableController, *fakeTimetableView, *fakeNotices) {
	t.Helper()
	view := &fakeTimetableView{}
	notices := &fakeNotices{}
	c, err := NewTimetableController(TimetableDeps{Slots: slots, View: view, Notices: notices, Days: days})
	if err != nil {
		t.Fatalf("NewTimetableController: %v", err)
	}
	return c, view, notices
}

func TestAssignActivity_MissingActivityMakesNoCall(t *testing.T) {
	slots := &stubSlots{}
	c, view, notices := newTimetable(t, slots)
	c.OpenSlot("Monday", "09:00")

	ok := c.AssignActivity(context.Background(), timetable.SlotAssignment{Day: "Monday", StartTime: "09:00"}, "tok", "")

	if ok {
		t.Fatal("assignment without activity succeeded")
	}
	if len(slots.calls) != 0 {
		t.Errorf("upstream calls = %d, want 0", len(slots.calls))
	}
	n, _ := notices.last()
	if n.success || n.message != SelectActivityMsg {
		t.Errorf("notice = %+v", n)
	}
	if !view.editorOpen {
		t.Error("editor closed on validation failure")
	}
}

func TestAssignActivity_MissingTimeMessage(t *testing.T) {
	slots := &stubSlots{}
	c, _, notices := newTimetable(t, slots)

	c.AssignActivity(context.Background(), timetable.SlotAssignment{Day: "Monday", ActivityID: "3"}, "tok", "Lane Swim")

	if n, _ := notices.last(); n.message != "Start time is required." {
		t.Errorf("notice = %q", n.message)
	}
	if len(slots.calls) != 0 {
		t.Error("upstream called")
	}
}

func TestAssignActivity_SuccessUpdatesCellAfterConfirm(t *testing.T) {
	slots := &stubSlots{result: bookingapi.SlotResult{Success: true, Message: "Session added"}}
	c, view, notices := newTimetable(t, slots)
	c.OpenSlot("Tuesday", "10:00")
	a := timetable.SlotAssignment{Day: "Tuesday", StartTime: "10:00", ActivityID: "3"}

	if !c.AssignActivity(context.Background(), a, "tok", "Lane Swim") {
		t.Fatal("AssignActivity returned false")
	}
	if len(slots.calls) != 1 || slots.calls[0] != a || slots.tokens[0] != "tok" {
		t.Errorf("calls = %+v tokens = %v", slots.calls, slots.tokens)
	}
	if len(view.cells) != 1 || view.cells[0] != (cell{"Tuesday", "10:00", "Lane Swim"}) {
		t.Errorf("cells = %+v", view.cells)
	}
	if view.editorOpen {
		t.Error("editor still open")
	}
	if n, _ := notices.last(); !n.success || n.message != "Session added" {
		t.Errorf("notice = %+v", n)
	}
}

func TestAssignActivity_FailureKeepsCell(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"rejected", &bookingapi.ApplicationError{Message: "Slot taken"}, "Slot taken"},
		{"unreachable", fmt.Errorf("%w: timeout", bookingapi.ErrTransport), UnreachableMsg},
		{"malformed", &bookingapi.PayloadError{Reason: "missing success"}, UnusableResponseMsg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memAudit{}
			view := &fakeTimetableView{}
			notices := &fakeNotices{}
			c, err := NewTimetableController(TimetableDeps{
				Slots:   &stubSlots{err: tt.err},
				View:    view,
				Notices: notices,
				Audit:   store,
			})
			if err != nil {
				t.Fatal(err)
			}
			c.OpenSlot("Monday", "09:00")

			ok := c.AssignActivity(context.Background(), timetable.SlotAssignment{Day: "Monday", StartTime: "09:00", ActivityID: "3"}, "tok", "Lane Swim")

			if ok {
				t.Fatal("AssignActivity returned true")
			}
			if len(view.cells) != 0 {
				t.Errorf("cells changed: %+v", view.cells)
			}
			if !view.editorOpen {
				t.Error("editor closed on failure")
			}
			if n, _ := notices.last(); n.success || n.message != tt.wantMsg {
				t.Errorf("notice = %+v, want %q", n, tt.wantMsg)
			}
			events := store.all()
			if len(events) != 1 || events[0].Category != audit.CategoryTimetable || events[0].Outcome == audit.OutcomeSuccess {
				t.Errorf("events = %+v", events)
			}
		})
	}
}

func TestTimetable_Paging(t *testing.T) {
	c, view, _ := newTimetable(t, &stubSlots{}, "Mon", "Tue", "Wed")

	if got := c.PrevDay(); got != "Mon" {
		t.Errorf("PrevDay on first page = %q", got)
	}
	c.NextDay()
	if got := c.NextDay(); got != "Wed" {
		t.Errorf("second NextDay = %q", got)
	}
	if got := c.NextDay(); got != "Wed" {
		t.Errorf("NextDay past last = %q", got)
	}
	want := []string{"Mon", "Mon", "Tue", "Wed", "Wed"}
	if fmt.Sprint(view.shown) != fmt.Sprint(want) {
		t.Errorf("shown = %v, want %v", view.shown, want)
	}
	if len(c.Days()) != 3 {
		t.Errorf("Days() = %v", c.Days())
	}
}

func TestTimetable_ShowDay(t *testing.T) {
	c, _, _ := newTimetable(t, &stubSlots{}, "Mon", "Tue", "Wed")

	tests := []struct {
		index int
		want  string
	}{
		{2, "Wed"},
		{7, "Wed"},
		{-1, "Wed"},
		{0, "Mon"},
	}
	for _, tt := range tests {
		if got := c.ShowDay(tt.index); got != tt.want {
			t.Errorf("ShowDay(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestTimetable_ConcurrentPaging(t *testing.T) {
	c, view, _ := newTimetable(t, &stubSlots{}, "Mon", "Tue", "Wed")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); c.NextDay() }()
		go func() { defer wg.Done(); c.PrevDay() }()
	}
	wg.Wait()

	// initial ShowDay plus one per call
	if len(view.shown) != 17 {
		t.Fatalf("shown %d days, want 17", len(view.shown))
	}
	for _, d := range view.shown {
		if !slices.Contains(c.Days(), d) {
			t.Errorf("shown unknown day %q", d)
		}
	}
	if got := c.ShowDay(1); got != "Tue" {
		t.Errorf("ShowDay(1) after paging = %q", got)
	}
}

func TestTimetable_Load(t *testing.T) {
	grid := bookingapi.Grid{"Monday": {"09:00": "Free"}}
	c, view, _ := newTimetable(t, &stubSlots{grid: grid})
	if !c.Load(context.Background()) {
		t.Fatal("Load returned false")
	}
	if view.grid["Monday"]["09:00"] != "Free" {
		t.Errorf("grid = %v", view.grid)
	}

	c2, view2, notices := newTimetable(t, &stubSlots{gridEr: fmt.Errorf("%w: refused", bookingapi.ErrTransport)})
	if c2.Load(context.Background()) {
		t.Fatal("Load returned true on failure")
	}
	if view2.grid != nil {
		t.Error("grid replaced on failure")
	}
	if n, _ := notices.last(); n.message != UnreachableMsg {
		t.Errorf("notice = %q", n.message)
	}
}

func TestNewTimetableController_DefaultDays(t *testing.T) {
	c, view, _ := newTimetable(t, &stubSlots{})
	if len(c.Days()) != 7 || view.shown[0] != "Monday" {
		t.Errorf("days = %v shown = %v", c.Days(), view.shown)
	}
}
