// internal/api/forecast.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
)

// PhaseForecastResponse is the per-phase weekly tonnage projection.
type PhaseForecastResponse struct {
	PhaseID uint      `json:"phaseId"`
	Label   string    `json:"label"`
	Mondays []string  `json:"mondays"`
	Tons    []float64 `json:"tons"`
}

// CropForecastResponse groups phase projections of one crop.
type CropForecastResponse struct {
	CropCode string                  `json:"cropCode"`
	Phases   []PhaseForecastResponse `json:"phases"`
	Tons     []float64               `json:"tons"`
}

// FarmForecastResponse groups crop projections of one farm.
type FarmForecastResponse struct {
	FarmName string                 `json:"farmName"`
	Crops    []CropForecastResponse `json:"crops"`
	Tons     []float64              `json:"tons"`
}

// ForecastResponse is the aggregate projection: farm rows plus the grand
// total, all plain per-week sums without cross-week carryover.
type ForecastResponse struct {
	Mondays []string               `json:"mondays"`
	Farms   []FarmForecastResponse `json:"farms"`
	Total   []float64              `json:"total"`
}

// initForecastRoutes registers the harvest projection endpoints.
func (c *Controller) initForecastRoutes() {
	c.Group.GET("/phases/:id/forecast", c.GetPhaseForecast)
	c.Group.GET("/forecast", c.GetFarmForecast)
}

// forecastWeeks resolves the optional ?weeks= parameter against the
// configured default.
func (c *Controller) forecastWeeks(ctx echo.Context) (int, error) {
	weeks := c.Settings.Forecast.Weeks
	if raw := ctx.QueryParam("weeks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, validationErr("weeks %q must be a positive integer", raw)
		}
		weeks = parsed
	}
	return weeks, nil
}

// projectPhase projects one phase over the forecast Mondays using its
// crop profile. A phase whose crop has no profile projects zeros.
func (c *Controller) projectPhase(phase agronomy.Phase, mondays []time.Time) ([]float64, error) {
	profileModel, err := c.DS.GetCropProfile(phase.CropCode)
	if err != nil {
		if errors.CategoryOf(err) == errors.CategoryNotFound {
			return make([]float64, len(mondays)), nil
		}
		return nil, err
	}
	profile, err := profileSnapshot(&profileModel)
	if err != nil {
		return nil, err
	}
	c.metrics.ForecastProjections.Inc()
	return agronomy.ProjectWeeklyTons(phase, profile, mondays), nil
}

func mondayStrings(mondays []time.Time) []string {
	out := make([]string, len(mondays))
	for i, m := range mondays {
		out[i] = m.Format(dateLayout)
	}
	return out
}

// GetPhaseForecast handles GET /api/v1/phases/:id/forecast?weeks=
func (c *Controller) GetPhaseForecast(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}
	weeks, err := c.forecastWeeks(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid forecast range")
	}

	model, err := c.DS.GetPhase(id)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to get phase")
	}
	phase, err := phaseSnapshot(&model)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase data")
	}

	mondays := agronomy.ForecastMondays(time.Now(), weeks)
	tons, err := c.projectPhase(phase, mondays)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to project forecast")
	}

	return ctx.JSON(http.StatusOK, PhaseForecastResponse{
		PhaseID: phase.ID,
		Label:   phase.Label,
		Mondays: mondayStrings(mondays),
		Tons:    tons,
	})
}

// GetFarmForecast handles GET /api/v1/forecast?weeks=
//
// Projections aggregate bottom-up: phase rows sum into crop rows, crop
// rows into farm rows, farm rows into the grand total.
func (c *Controller) GetFarmForecast(ctx echo.Context) error {
	weeks, err := c.forecastWeeks(ctx)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid forecast range")
	}

	phases, err := c.DS.GetAllPhases(false)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to list phases")
	}

	mondays := agronomy.ForecastMondays(time.Now(), weeks)

	// Group phase rows by farm then crop, preserving listing order.
	type cropGroup struct {
		phases []PhaseForecastResponse
		rows   [][]float64
	}
	farmOrder := []string{}
	cropOrder := map[string][]string{}
	groups := map[string]map[string]*cropGroup{}

	for i := range phases {
		phase, err := phaseSnapshot(&phases[i])
		if err != nil {
			return c.handleTypedError(ctx, err, "Invalid phase data")
		}
		tons, err := c.projectPhase(phase, mondays)
		if err != nil {
			return c.handleTypedError(ctx, err, "Failed to project forecast")
		}

		if _, ok := groups[phase.FarmName]; !ok {
			groups[phase.FarmName] = map[string]*cropGroup{}
			farmOrder = append(farmOrder, phase.FarmName)
		}
		if _, ok := groups[phase.FarmName][phase.CropCode]; !ok {
			groups[phase.FarmName][phase.CropCode] = &cropGroup{}
			cropOrder[phase.FarmName] = append(cropOrder[phase.FarmName], phase.CropCode)
		}
		g := groups[phase.FarmName][phase.CropCode]
		g.phases = append(g.phases, PhaseForecastResponse{
			PhaseID: phase.ID,
			Label:   phase.Label,
			Tons:    tons,
		})
		g.rows = append(g.rows, tons)
	}

	resp := ForecastResponse{Mondays: mondayStrings(mondays), Farms: []FarmForecastResponse{}}
	var farmRows [][]float64
	for _, farm := range farmOrder {
		farmResp := FarmForecastResponse{FarmName: farm, Crops: []CropForecastResponse{}}
		var cropRows [][]float64
		for _, crop := range cropOrder[farm] {
			g := groups[farm][crop]
			cropTons := agronomy.SumForecasts(g.rows...)
			farmResp.Crops = append(farmResp.Crops, CropForecastResponse{
				CropCode: crop,
				Phases:   g.phases,
				Tons:     cropTons,
			})
			cropRows = append(cropRows, cropTons)
		}
		farmResp.Tons = agronomy.SumForecasts(cropRows...)
		resp.Farms = append(resp.Farms, farmResp)
		farmRows = append(farmRows, farmResp.Tons)
	}
	resp.Total = agronomy.SumForecasts(farmRows...)
	if len(resp.Total) == 0 {
		resp.Total = make([]float64, weeks)
	}

	return ctx.JSON(http.StatusOK, resp)
}
