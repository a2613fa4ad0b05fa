// internal/api/compliance.go
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy/isoweek"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
)

// ComplianceEntryResponse is the per-activity row of the compliance view:
// one status per weekday, blank for unscheduled days.
type ComplianceEntryResponse struct {
	ID       string    `json:"id"`
	PhaseID  uint      `json:"phaseId"`
	EntryID  uint      `json:"procedureEntryId"`
	Label    string    `json:"label"`
	Domain   string    `json:"domain"`
	Statuses [7]string `json:"statuses"`
}

// ComplianceSummaryResponse aggregates a compliance evaluation. Rate is
// null when nothing has been done or missed yet.
type ComplianceSummaryResponse struct {
	Done     int  `json:"done"`
	Missed   int  `json:"missed"`
	Pending  int  `json:"pending"`
	Upcoming int  `json:"upcoming"`
	Rate     *int `json:"complianceRate"`
}

// ComplianceResponse is the full evaluation payload.
type ComplianceResponse struct {
	WeekStart string                    `json:"weekStart"`
	Today     string                    `json:"today"`
	Entries   []ComplianceEntryResponse `json:"entries"`
	Summary   ComplianceSummaryResponse `json:"summary"`
}

// VarianceRowResponse compares actual against expected quantity for one
// activity over a week.
type VarianceRowResponse struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	Unit            string  `json:"unit"`
	Expected        float64 `json:"expected"`
	Actual          float64 `json:"actual"`
	VariancePercent float64 `json:"variancePercent"`
	Score           float64 `json:"complianceScore"`
	Tier            string  `json:"tier"`
}

// VarianceReportResponse is the weekly variance report for one phase and
// domain. For labor the budget block carries utilization with inverted
// tier semantics.
type VarianceReportResponse struct {
	PhaseID   uint                  `json:"phaseId"`
	WeekStart string                `json:"weekStart"`
	Domain    string                `json:"domain"`
	Rows      []VarianceRowResponse `json:"rows"`
	Budget    *BudgetResponse       `json:"budget,omitempty"`
}

// BudgetResponse reports labor-budget utilization for a week.
type BudgetResponse struct {
	Expected           float64 `json:"expected"`
	Actual             float64 `json:"actual"`
	UtilizationPercent float64 `json:"utilizationPercent"`
	Tier               string  `json:"tier"`
}

// initComplianceRoutes registers compliance and variance endpoints.
func (c *Controller) initComplianceRoutes() {
	c.Group.GET("/compliance", c.EvaluateCompliance)
	c.Group.GET("/variance", c.VarianceReport)
}

// weekRecords loads a phase's field records covering one week.
func (c *Controller) weekRecords(phaseID uint, weekStart time.Time) ([]datastore.FieldRecord, error) {
	from := weekStart.Format(dateLayout)
	to := weekStart.AddDate(0, 0, 6).Format(dateLayout)
	return c.DS.GetFieldRecords(phaseID, from, to)
}

// EvaluateCompliance handles GET /api/v1/compliance?phase_id=&week_start=&today=
//
// The scope may span several phases; entries of all phases are evaluated
// against one shared week and today, and the summary aggregates across
// the scope.
func (c *Controller) EvaluateCompliance(ctx echo.Context) error {
	phaseIDs, err := parsePhaseIDList(ctx.QueryParam("phase_id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase scope")
	}
	weekStart, err := parseWeekStart(ctx.QueryParam("week_start"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid week")
	}
	today := isoweek.Midnight(time.Now())
	if raw := ctx.QueryParam("today"); raw != "" {
		if today, err = parseDate("today", raw); err != nil {
			return c.handleTypedError(ctx, err, "Invalid date")
		}
	}
	domains, err := requestedDomains(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid domain")
	}

	week := weekStart.Format(dateLayout)
	scheduleModels, err := c.DS.GetSchedule(phaseIDs, week)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to load schedule")
	}
	ws := scheduleSnapshot(scheduleModels)

	var allEntries []ComplianceEntryResponse
	var total ComplianceSummaryResponse

	for _, phaseID := range phaseIDs {
		model, err := c.DS.GetPhase(phaseID)
		if err != nil {
			return c.handleTypedError(ctx, err, "Failed to get phase")
		}
		phase, err := phaseSnapshot(&model)
		if err != nil {
			return c.handleTypedError(ctx, err, "Invalid phase data")
		}

		activities, err := c.resolveForDomains(phase, weekStart, domains)
		if err != nil {
			return c.handleTypedError(ctx, err, "Failed to resolve activities")
		}
		records, err := c.weekRecords(phaseID, weekStart)
		if err != nil {
			return c.handleTypedError(ctx, err, "Failed to load field records")
		}

		entries, summary := agronomy.Evaluate(activities, ws, weekStart, today, actualDaySets(activities, records, weekStart))
		for i := range entries {
			e := &entries[i]
			row := ComplianceEntryResponse{
				ID:      e.Activity.Key().String(),
				PhaseID: e.Activity.PhaseID,
				EntryID: e.Activity.EntryID,
				Label:   e.Activity.Label,
				Domain:  string(e.Activity.Domain),
			}
			for d, status := range e.Days {
				row.Statuses[d] = string(status)
			}
			allEntries = append(allEntries, row)
		}
		total.Done += summary.Done
		total.Missed += summary.Missed
		total.Pending += summary.Pending
		total.Upcoming += summary.Upcoming
	}

	total.Rate = agronomy.ComplianceRate(total.Done, total.Missed)
	c.metrics.ComplianceEvaluations.Inc()

	if allEntries == nil {
		allEntries = []ComplianceEntryResponse{}
	}
	return ctx.JSON(http.StatusOK, ComplianceResponse{
		WeekStart: week,
		Today:     today.Format(dateLayout),
		Entries:   allEntries,
		Summary:   total,
	})
}

// VarianceReport handles GET /api/v1/variance?phase_id=&week_start=&domain=
//
// For every resolved activity the actual recorded quantity of the week is
// compared against the expected total. Activities with zero expectation
// stay in the report with zero variance; there is no basis for comparison
// and they are never counted as fully over budget.
func (c *Controller) VarianceReport(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.QueryParam("phase_id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}
	weekStart, err := parseWeekStart(ctx.QueryParam("week_start"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid week")
	}
	domainKey := agronomy.DomainKey(ctx.QueryParam("domain"))
	if domainKey == "" {
		domainKey = agronomy.DomainNutrition
	}
	dom, ok := agronomy.DomainFor(domainKey)
	if !ok {
		return c.handleTypedError(ctx, validationErr("unknown domain %q", domainKey), "Invalid domain")
	}

	model, err := c.DS.GetPhase(id)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to get phase")
	}
	phase, err := phaseSnapshot(&model)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase data")
	}

	activities, err := c.resolveForDomains(phase, weekStart, []agronomy.Domain{dom})
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to resolve activities")
	}
	records, err := c.weekRecords(id, weekStart)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to load field records")
	}

	kind := recordKindFor(dom.Key)
	actualByLabel := make(map[string]float64)
	for i := range records {
		r := &records[i]
		if r.Kind == kind {
			actualByLabel[r.ProductOrTask] += r.Quantity
		}
	}

	rows := make([]VarianceRowResponse, 0, len(activities))
	var expectedTotal, actualTotal float64
	for _, a := range activities {
		actual := actualByLabel[a.Label]
		variance := agronomy.VariancePercent(actual, a.TotalQuantity)
		score := agronomy.ComplianceScore(variance)
		rows = append(rows, VarianceRowResponse{
			ID:              a.Key().String(),
			Label:           a.Label,
			Unit:            a.Unit,
			Expected:        a.TotalQuantity,
			Actual:          actual,
			VariancePercent: variance,
			Score:           score,
			Tier:            string(agronomy.ScoreTier(score)),
		})
		expectedTotal += a.TotalQuantity
		actualTotal += actual
	}

	resp := VarianceReportResponse{
		PhaseID:   id,
		WeekStart: weekStart.Format(dateLayout),
		Domain:    string(dom.Key),
		Rows:      rows,
	}

	if dom.Key == agronomy.DomainLabor {
		utilization := 0.0
		if expectedTotal > 0 {
			utilization = actualTotal / expectedTotal * 100
		}
		resp.Budget = &BudgetResponse{
			Expected:           expectedTotal,
			Actual:             actualTotal,
			UtilizationPercent: utilization,
			Tier:               string(agronomy.BudgetTier(utilization)),
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}
