// internal/api/overrides.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
)

// OverrideRequest identifies an override by its natural key and carries
// the action to apply.
type OverrideRequest struct {
	PhaseID   uint   `json:"phaseId"`
	EntryID   uint   `json:"entryId"`
	Domain    string `json:"domain"`
	WeekStart string `json:"weekStart"`
	Action    string `json:"action"`
}

// OverrideResponse is the API representation of a stored override.
type OverrideResponse struct {
	PhaseID   uint   `json:"phaseId"`
	EntryID   uint   `json:"entryId"`
	Domain    string `json:"domain"`
	WeekStart string `json:"weekStart"`
	Action    string `json:"action"`
}

// initOverrideRoutes registers per-week activity override endpoints.
func (c *Controller) initOverrideRoutes() {
	c.Group.PUT("/overrides", c.SaveOverride)
	c.Group.DELETE("/overrides", c.RemoveOverride)
	c.Group.GET("/phases/:id/weeks/:weekStart/overrides", c.ListOverrides)
}

// validateOverrideKey checks the natural-key fields shared by save and
// delete.
func (c *Controller) validateOverrideKey(phaseID, entryID uint, domain, weekStart string) error {
	if phaseID == 0 {
		return validationErr("phaseId is required")
	}
	if entryID == 0 {
		return validationErr("entryId is required")
	}
	if _, ok := agronomy.DomainFor(agronomy.DomainKey(domain)); !ok {
		return validationErr("unknown domain %q", domain)
	}
	if _, err := parseWeekStart(weekStart); err != nil {
		return err
	}
	return nil
}

// SaveOverride handles PUT /api/v1/overrides. Saving over an existing
// override replaces its action.
func (c *Controller) SaveOverride(ctx echo.Context) error {
	var req OverrideRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if err := c.validateOverrideKey(req.PhaseID, req.EntryID, req.Domain, req.WeekStart); err != nil {
		return c.handleTypedError(ctx, err, "Invalid override")
	}
	action := agronomy.OverrideAction(req.Action)
	if action != agronomy.OverrideAdd && action != agronomy.OverrideRemove {
		return c.handleTypedError(ctx, validationErr("action must be add or remove, got %q", req.Action), "Invalid override")
	}
	if _, err := c.DS.GetPhase(req.PhaseID); err != nil {
		return c.handleTypedError(ctx, err, "Failed to get phase")
	}

	override := datastore.Override{
		PhaseID:   req.PhaseID,
		EntryID:   req.EntryID,
		Domain:    req.Domain,
		WeekStart: req.WeekStart,
		Action:    req.Action,
	}
	if err := c.DS.UpsertOverride(&override); err != nil {
		return c.handleTypedError(ctx, err, "Failed to save override")
	}
	return ctx.JSON(http.StatusOK, OverrideResponse{
		PhaseID:   override.PhaseID,
		EntryID:   override.EntryID,
		Domain:    override.Domain,
		WeekStart: override.WeekStart,
		Action:    override.Action,
	})
}

// RemoveOverride handles DELETE /api/v1/overrides. The override is
// addressed by its natural key in the request body; removing an absent
// override succeeds.
func (c *Controller) RemoveOverride(ctx echo.Context) error {
	var req OverrideRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if err := c.validateOverrideKey(req.PhaseID, req.EntryID, req.Domain, req.WeekStart); err != nil {
		return c.handleTypedError(ctx, err, "Invalid override")
	}
	if err := c.DS.DeleteOverride(req.PhaseID, req.EntryID, req.Domain, req.WeekStart); err != nil {
		return c.handleTypedError(ctx, err, "Failed to delete override")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ListOverrides handles GET /api/v1/phases/:id/weeks/:weekStart/overrides
func (c *Controller) ListOverrides(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}
	weekStart := ctx.Param("weekStart")
	if _, err := parseWeekStart(weekStart); err != nil {
		return c.handleTypedError(ctx, err, "Invalid week start")
	}

	models, err := c.DS.GetOverrides(id, weekStart)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to list overrides")
	}
	resp := make([]OverrideResponse, 0, len(models))
	for i := range models {
		m := &models[i]
		resp = append(resp, OverrideResponse{
			PhaseID:   m.PhaseID,
			EntryID:   m.EntryID,
			Domain:    m.Domain,
			WeekStart: m.WeekStart,
			Action:    m.Action,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}
