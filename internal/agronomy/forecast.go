package agronomy

import (
	"time"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy/isoweek"
)

// maxDistributionSlots is the length of the harvest distribution curve.
const maxDistributionSlots = 16

// ProjectWeeklyTons projects the expected harvest tonnage of a phase for
// each forecast Monday. The harvest window opens nursery+outgrowing days
// after sowing; Mondays outside [1, min(harvestWeeks, 16)] harvest weeks
// project zero. Each in-window week yields
//
//	area × yieldPerHectare × distribution[week] × (1 − rejectRate/100)
//
// The distribution curve is a per-crop fraction table and is not required
// to sum to 1.
func ProjectWeeklyTons(phase Phase, profile CropProfile, mondays []time.Time) []float64 {
	harvestStart := isoweek.Midnight(phase.SowingDate).AddDate(0, 0, profile.NurseryDays+profile.OutgrowingDays)

	lastWeek := profile.HarvestWeeks
	if lastWeek > maxDistributionSlots {
		lastWeek = maxDistributionSlots
	}

	tons := make([]float64, len(mondays))
	for i, monday := range mondays {
		week := isoweek.WeeksSince(harvestStart, monday) + 1
		if week < 1 || week > lastWeek {
			continue
		}
		tons[i] = phase.AreaHectares * profile.YieldPerHectare *
			profile.WeekDistribution[week-1] * (1 - profile.RejectRate/100)
	}
	return tons
}

// ForecastMondays returns n consecutive Mondays starting from the Monday
// of the week containing the reference date.
func ForecastMondays(from time.Time, n int) []time.Time {
	d := isoweek.Midnight(from)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := d.AddDate(0, 0, 1-wd)

	mondays := make([]time.Time, n)
	for i := range mondays {
		mondays[i] = monday.AddDate(0, 0, 7*i)
	}
	return mondays
}

// SumForecasts adds per-week projections element-wise. Aggregation up the
// phase → crop → farm → grand-total hierarchy is plain summation with no
// cross-week carryover; rows shorter than the longest are treated as zero
// beyond their end.
func SumForecasts(rows ...[]float64) []float64 {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	total := make([]float64, width)
	for _, row := range rows {
		for i, v := range row {
			total[i] += v
		}
	}
	return total
}
