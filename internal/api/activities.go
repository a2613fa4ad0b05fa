// internal/api/activities.go
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy"
)

// ActivityResponse is the API representation of one resolved activity
// with its current day distribution.
type ActivityResponse struct {
	ID             string  `json:"id"` // "{phaseId}-{procedureEntryId}"
	PhaseID        uint    `json:"phaseId"`
	EntryID        uint    `json:"procedureEntryId"`
	Label          string  `json:"label"`
	Domain         string  `json:"domain"`
	Unit           string  `json:"unit"`
	TotalQuantity  float64 `json:"totalQuantity"`
	ScheduledDays  []int   `json:"scheduledDays"`
	PerDayQuantity float64 `json:"perDayQuantity"`
}

// WeekViewResponse is the render unit of the dashboard week screen:
// resolved activities, the persisted day distribution and the totals, all
// fetched once.
type WeekViewResponse struct {
	PhaseID    uint               `json:"phaseId"`
	WeekStart  string             `json:"weekStart"`
	WeekOffset int                `json:"weekOffset"`
	Activities []ActivityResponse `json:"activities"`
	DayTotals  []float64          `json:"dayTotals"`
	GrandTotal float64            `json:"grandTotal"`
}

// initActivityRoutes registers activity resolution endpoints.
func (c *Controller) initActivityRoutes() {
	c.Group.GET("/phases/:id/weeks/:weekStart/activities", c.ResolveActivities)
	c.Group.GET("/phases/:id/weeks/:weekStart", c.GetWeekView)
}

// loadCatalog returns the SOP catalog snapshot, cached briefly so a view
// render hits the database once, not once per activity.
func (c *Controller) loadCatalog() (*agronomy.Catalog, error) {
	if cached, found := c.catalogCache.Get(catalogCacheKey); found {
		if cat, ok := cached.(*agronomy.Catalog); ok {
			return cat, nil
		}
	}
	models, err := c.DS.GetAllProcedureEntries()
	if err != nil {
		return nil, err
	}
	cat := catalogSnapshot(models)
	c.catalogCache.SetDefault(catalogCacheKey, cat)
	return cat, nil
}

// invalidateCatalog drops the cached snapshot after a catalog import.
func (c *Controller) invalidateCatalog() {
	c.catalogCache.Delete(catalogCacheKey)
}

// resolveForDomains resolves the expected activities of one phase and
// week across the requested domains, in domain order.
func (c *Controller) resolveForDomains(phase agronomy.Phase, weekStart time.Time, domains []agronomy.Domain) ([]agronomy.ResolvedActivity, error) {
	cat, err := c.loadCatalog()
	if err != nil {
		return nil, err
	}
	overrideModels, err := c.DS.GetOverrides(phase.ID, weekStart.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	overrides, err := overrideSnapshots(overrideModels)
	if err != nil {
		return nil, err
	}

	var activities []agronomy.ResolvedActivity
	for _, dom := range domains {
		activities = append(activities, agronomy.Resolve(phase, weekStart, cat, overrides, dom)...)
		c.metrics.ActivityResolutions.WithLabelValues(string(dom.Key)).Inc()
	}
	return activities, nil
}

// requestedDomains resolves the optional ?domain= filter.
func requestedDomains(ctx echo.Context) ([]agronomy.Domain, error) {
	raw := ctx.QueryParam("domain")
	if raw == "" {
		return agronomy.Domains, nil
	}
	dom, ok := agronomy.DomainFor(agronomy.DomainKey(raw))
	if !ok {
		return nil, validationErr("unknown domain %q", raw)
	}
	return []agronomy.Domain{dom}, nil
}

// phaseWeekParams parses the :id and :weekStart path params and loads the
// phase snapshot.
func (c *Controller) phaseWeekParams(ctx echo.Context) (agronomy.Phase, time.Time, error) {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return agronomy.Phase{}, time.Time{}, err
	}
	weekStart, err := parseWeekStart(ctx.Param("weekStart"))
	if err != nil {
		return agronomy.Phase{}, time.Time{}, err
	}
	model, err := c.DS.GetPhase(id)
	if err != nil {
		return agronomy.Phase{}, time.Time{}, err
	}
	phase, err := phaseSnapshot(&model)
	if err != nil {
		return agronomy.Phase{}, time.Time{}, err
	}
	return phase, weekStart, nil
}

func activityResponses(activities []agronomy.ResolvedActivity, ws agronomy.WeekSchedule) []ActivityResponse {
	resp := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		set := ws[a.Key()]
		days := set.Days()
		if days == nil {
			days = []int{}
		}
		resp = append(resp, ActivityResponse{
			ID:             a.Key().String(),
			PhaseID:        a.PhaseID,
			EntryID:        a.EntryID,
			Label:          a.Label,
			Domain:         string(a.Domain),
			Unit:           a.Unit,
			TotalQuantity:  a.TotalQuantity,
			ScheduledDays:  days,
			PerDayQuantity: agronomy.PerDayQuantity(a.TotalQuantity, set.Count()),
		})
	}
	return resp
}

// ResolveActivities handles GET /api/v1/phases/:id/weeks/:weekStart/activities
func (c *Controller) ResolveActivities(ctx echo.Context) error {
	phase, weekStart, err := c.phaseWeekParams(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to resolve activities")
	}
	domains, err := requestedDomains(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to resolve activities")
	}

	activities, err := c.resolveForDomains(phase, weekStart, domains)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to resolve activities")
	}

	scheduleModels, err := c.DS.GetSchedule([]uint{phase.ID}, weekStart.Format(dateLayout))
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to load schedule")
	}
	ws := scheduleSnapshot(scheduleModels)

	return ctx.JSON(http.StatusOK, activityResponses(activities, ws))
}

// GetWeekView handles GET /api/v1/phases/:id/weeks/:weekStart
func (c *Controller) GetWeekView(ctx echo.Context) error {
	phase, weekStart, err := c.phaseWeekParams(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to build week view")
	}
	domains, err := requestedDomains(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to build week view")
	}

	activities, err := c.resolveForDomains(phase, weekStart, domains)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to build week view")
	}
	scheduleModels, err := c.DS.GetSchedule([]uint{phase.ID}, weekStart.Format(dateLayout))
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to load schedule")
	}
	ws := scheduleSnapshot(scheduleModels)

	dayTotals := agronomy.DayTotals(activities, ws)

	return ctx.JSON(http.StatusOK, WeekViewResponse{
		PhaseID:    phase.ID,
		WeekStart:  weekStart.Format(dateLayout),
		WeekOffset: weekOffsetOf(phase, weekStart),
		Activities: activityResponses(activities, ws),
		DayTotals:  dayTotals[:],
		GrandTotal: agronomy.GrandTotal(activities),
	})
}
