package bookingapi

import (
	"context"
	"encoding/json"
	"net/url"

	"poolside/internal/domain/timetable"
)

// AddSessionPath is the timetable slot writer.
const AddSessionPath = "add_session/"

// SlotResult is the answer of the slot writer.
type SlotResult struct {
	Success bool
	Message string
}

type slotResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// AssignSlot places an activity into a timetable slot.
// PRE: a has been validated
// POST: Returns the result; {success:false} is also returned as *ApplicationError
func (c *Client) AssignSlot(ctx context.Context, a timetable.SlotAssignment, csrfToken string) (SlotResult, error) {
	form := url.Values{}
	form.Set("session_day", a.Day)
	form.Set("start_time", a.StartTime)
	form.Set("activity", a.ActivityID)

	var resp slotResponse
	if err := c.postForm(ctx, AddSessionPath, form, csrfToken, &resp); err != nil {
		return SlotResult{}, err
	}
	if resp.Success == nil {
		return SlotResult{}, payloadErrorf("success flag is missing")
	}
	result := SlotResult{Success: *resp.Success, Message: resp.Message}
	if !result.Success {
		return result, &ApplicationError{Message: resp.Message}
	}
	return result, nil
}

type activityWire struct {
	ID          json.RawMessage `json:"id"`
	PK          json.RawMessage `json:"pk"`
	Name        string          `json:"activity_name"`
	Description string          `json:"description"`
}

// ListActivities returns the activities that can be booked or scheduled.
func (c *Client) ListActivities(ctx context.Context) ([]timetable.Activity, error) {
	var wires []activityWire
	if err := c.get(ctx, "api/activities/", &wires); err != nil {
		return nil, err
	}
	out := make([]timetable.Activity, 0, len(wires))
	for i, w := range wires {
		id := idString(w.ID)
		if id == "" {
			id = idString(w.PK)
		}
		if id == "" {
			return nil, payloadErrorf("activity %d has no id", i)
		}
		out = append(out, timetable.Activity{ID: id, Name: w.Name, Description: w.Description})
	}
	return out, nil
}

// Grid maps day -> start time -> activity name ("Free" when unassigned).
type Grid map[string]map[string]string

// FetchTimetable returns the current timetable.
func (c *Client) FetchTimetable(ctx context.Context) (Grid, error) {
	var raw map[string]map[string]struct {
		ActivityName string `json:"activity_name"`
	}
	if err := c.get(ctx, "api/timetable-data/", &raw); err != nil {
		return nil, err
	}
	grid := make(Grid, len(raw))
	for day, slots := range raw {
		grid[day] = make(map[string]string, len(slots))
		for t, slot := range slots {
			grid[day][t] = slot.ActivityName
		}
	}
	return grid, nil
}
