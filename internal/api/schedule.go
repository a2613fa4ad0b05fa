// internal/api/schedule.go
package api

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
)

// ToggleRequest toggles one day for one activity in the in-memory day
// map. Nothing is persisted; the client saves the full map afterwards.
type ToggleRequest struct {
	PhaseID   uint   `json:"phaseId"`
	EntryID   uint   `json:"procedureEntryId"`
	WeekStart string `json:"weekStart"`
	Day       int    `json:"day"`
	Action    string `json:"action"` // add | remove
}

// SaveScheduleRequest persists the full day map for a scope and week,
// replacing whatever was saved before.
type SaveScheduleRequest struct {
	PhaseIDs  []uint           `json:"phaseIds"`
	WeekStart string           `json:"weekStart"`
	Days      map[string][]int `json:"days"` // activity key → day list
}

// initScheduleRoutes registers the gantt schedule endpoints.
func (c *Controller) initScheduleRoutes() {
	schedule := c.Group.Group("/schedule")
	schedule.POST("/toggle", c.ToggleScheduleDay)
	schedule.PUT("", c.SaveSchedule)
	schedule.GET("", c.GetSchedule)
}

// dayMapResponse renders a week schedule as the boundary day map.
func dayMapResponse(ws agronomy.WeekSchedule) map[string][]int {
	days := make(map[string][]int, len(ws))
	for key, set := range ws {
		days[key.String()] = set.Days()
	}
	return days
}

// parseDayMap validates a boundary day map into a week schedule.
func parseDayMap(days map[string][]int) (agronomy.WeekSchedule, error) {
	ws := make(agronomy.WeekSchedule)
	for rawKey, dayList := range days {
		key, err := agronomy.ParseActivityKey(rawKey)
		if err != nil {
			return nil, validationErr("invalid activity key %q", rawKey)
		}
		for _, d := range dayList {
			if d < 0 || d > 6 {
				return nil, validationErr("day %d for activity %s outside 0-6", d, rawKey)
			}
			ws.Toggle(key, d, true)
		}
	}
	return ws, nil
}

// ToggleScheduleDay handles POST /api/v1/schedule/toggle
//
// It loads the persisted day map, applies one toggle in memory and
// returns the result for the client to review and save.
func (c *Controller) ToggleScheduleDay(ctx echo.Context) error {
	var req ToggleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid week")
	}
	if req.Day < 0 || req.Day > 6 {
		return c.handleTypedError(ctx, validationErr("day %d outside 0-6", req.Day), "Invalid day")
	}
	if req.Action != "add" && req.Action != "remove" {
		return c.handleTypedError(ctx, validationErr("action must be add or remove, got %q", req.Action), "Invalid action")
	}

	scheduleModels, err := c.DS.GetSchedule([]uint{req.PhaseID}, weekStart.Format(dateLayout))
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to load schedule")
	}
	ws := scheduleSnapshot(scheduleModels)
	ws.Toggle(agronomy.ActivityKey{PhaseID: req.PhaseID, EntryID: req.EntryID}, req.Day, req.Action == "add")

	return ctx.JSON(http.StatusOK, dayMapResponse(ws))
}

// SaveSchedule handles PUT /api/v1/schedule
//
// The full set for the scope and week is replaced, never merged, so
// repeated saves of identical state are idempotent and concurrent saves
// resolve to the last writer.
func (c *Controller) SaveSchedule(ctx echo.Context) error {
	var req SaveScheduleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid week")
	}
	if len(req.PhaseIDs) == 0 {
		return c.handleTypedError(ctx, validationErr("phaseIds must not be empty"), "Invalid scope")
	}
	ws, err := parseDayMap(req.Days)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid day map")
	}

	inScope := make(map[uint]bool, len(req.PhaseIDs))
	for _, id := range req.PhaseIDs {
		inScope[id] = true
	}

	week := weekStart.Format(dateLayout)
	var entries []datastore.ScheduleEntry
	for key, set := range ws {
		if !inScope[key.PhaseID] {
			return c.handleTypedError(ctx,
				validationErr("activity %s is outside the save scope", key.String()),
				"Invalid day map")
		}
		for _, d := range set.Days() {
			entries = append(entries, datastore.ScheduleEntry{
				PhaseID:   key.PhaseID,
				EntryID:   key.EntryID,
				WeekStart: week,
				DayOfWeek: d,
			})
		}
	}
	// Deterministic row order for reproducible saves.
	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.PhaseID != b.PhaseID {
			return a.PhaseID < b.PhaseID
		}
		if a.EntryID != b.EntryID {
			return a.EntryID < b.EntryID
		}
		return a.DayOfWeek < b.DayOfWeek
	})

	if err := c.DS.ReplaceSchedule(req.PhaseIDs, week, entries); err != nil {
		return c.handleTypedError(ctx, err, "Failed to save schedule")
	}
	c.metrics.ScheduleSaves.Inc()

	return ctx.NoContent(http.StatusNoContent)
}

// GetSchedule handles GET /api/v1/schedule?phase_id=&week_start=
func (c *Controller) GetSchedule(ctx echo.Context) error {
	phaseIDs, err := parsePhaseIDList(ctx.QueryParam("phase_id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase scope")
	}
	weekStart, err := parseWeekStart(ctx.QueryParam("week_start"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid week")
	}

	scheduleModels, err := c.DS.GetSchedule(phaseIDs, weekStart.Format(dateLayout))
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to load schedule")
	}
	return ctx.JSON(http.StatusOK, dayMapResponse(scheduleSnapshot(scheduleModels)))
}
