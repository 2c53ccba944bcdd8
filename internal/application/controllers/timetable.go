package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"poolside/internal/domain/audit"
	"poolside/internal/domain/notification"
	"poolside/internal/domain/timetable"
)

// AssignedFallbackMsg is shown when the slot writer confirms without a message.
const AssignedFallbackMsg = "Activity assigned."

// SelectActivityMsg is the local validation text for a missing activity.
const SelectActivityMsg = "Please select an activity."

// TimetableDeps holds dependencies for TimetableController.
type TimetableDeps struct {
	Slots      SlotWriter
	View       TimetableBinding
	Notices    Notifier
	Audit      AuditRecorder // optional
	Days       []string      // empty means timetable.DefaultDays
	SuccessTTL time.Duration
	ViewerID   string
}

// TimetableController edits the weekly timetable one slot at a time and
// pages through its days.
type TimetableController struct {
	deps TimetableDeps

	mu    sync.Mutex // guards pager
	pager *timetable.Pager
}

// NewTimetableController creates a controller positioned on the first day.
// PRE: deps.View and deps.Notices are non-nil
// POST: the binding shows the first day
func NewTimetableController(deps TimetableDeps) (*TimetableController, error) {
	days := deps.Days
	if len(days) == 0 {
		days = timetable.DefaultDays
	}
	pager, err := timetable.NewPager(days)
	if err != nil {
		return nil, err
	}
	if deps.SuccessTTL <= 0 {
		deps.SuccessTTL = notification.DefaultSuccessTTL
	}
	c := &TimetableController{deps: deps, pager: pager}
	deps.View.ShowDay(pager.Current())
	return c, nil
}

// Load replaces the grid with the server's timetable.
func (c *TimetableController) Load(ctx context.Context) bool {
	grid, err := c.deps.Slots.FetchTimetable(ctx)
	if err != nil {
		c.deps.Notices.Error(failureMessage(err))
		zap.L().Warn("timetable_fetch_failed", zap.Error(err))
		return false
	}
	c.deps.View.SetGrid(grid)
	return true
}

// OpenSlot opens the slot editor for (day, startTime).
func (c *TimetableController) OpenSlot(day, startTime string) {
	c.deps.View.OpenSlotEditor(day, startTime)
}

// CloseSlot dismisses the slot editor without writing.
func (c *TimetableController) CloseSlot() {
	c.deps.View.CloseSlotEditor()
}

// AssignActivity writes an activity into a slot. The cell shows activityName
// only after the server confirms; the editor then closes.
// PRE: csrfToken comes from the csrftoken cookie
// POST: Reports whether the slot was assigned
func (c *TimetableController) AssignActivity(ctx context.Context, a timetable.SlotAssignment, csrfToken, activityName string) bool {
	if err := a.Validate(); err != nil {
		msg := SelectActivityMsg
		if !errors.Is(err, timetable.ErrMissingActivity) {
			msg = capitalize(err.Error()) + "."
		}
		c.deps.Notices.Error(msg)
		return false
	}

	res, err := c.deps.Slots.AssignSlot(ctx, a, csrfToken)
	c.record(ctx, a, err, res.Message)
	if err != nil {
		c.deps.Notices.Error(failureMessage(err))
		zap.L().Warn("slot_assign_failed",
			zap.String("day", a.Day),
			zap.String("start_time", a.StartTime),
			zap.String("activity_id", a.ActivityID),
			zap.Error(err),
		)
		return false
	}

	name := activityName
	if name == "" {
		name = a.ActivityID
	}
	c.deps.View.SetCell(a.Day, a.StartTime, name)
	c.deps.View.CloseSlotEditor()

	msg := res.Message
	if msg == "" {
		msg = AssignedFallbackMsg
	}
	c.deps.Notices.Success(msg, c.deps.SuccessTTL)
	return true
}

// ShowDay jumps to the day at index. An out-of-range index keeps the current day.
func (c *TimetableController) ShowDay(index int) string {
	return c.page(func(p *timetable.Pager) { p.Show(index) })
}

// NextDay pages forward, stopping on the last day.
func (c *TimetableController) NextDay() string {
	return c.page((*timetable.Pager).Next)
}

// PrevDay pages back, stopping on the first day.
func (c *TimetableController) PrevDay() string {
	return c.page((*timetable.Pager).Prev)
}

// Days returns the timetable pages in order.
func (c *TimetableController) Days() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager.Days()
}

func (c *TimetableController) page(move func(*timetable.Pager)) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	move(c.pager)
	day := c.pager.Current()
	c.deps.View.ShowDay(day)
	return day
}

func (c *TimetableController) record(ctx context.Context, a timetable.SlotAssignment, callErr error, message string) {
	if c.deps.Audit == nil {
		return
	}
	if callErr != nil {
		message = failureMessage(callErr)
	}
	event := audit.NewEvent(c.deps.ViewerID, audit.CategoryTimetable, audit.ActionAssign).
		WithResource(a.Day + " " + a.StartTime).
		WithOutcome(outcomeOf(callErr), message)
	if err := c.deps.Audit.Save(context.WithoutCancel(ctx), event); err != nil {
		zap.L().Error("audit_save_failed", zap.String("slot", a.Day+" "+a.StartTime), zap.Error(err))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
