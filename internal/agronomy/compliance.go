package agronomy

import (
	"math"
	"time"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy/isoweek"
)

// DayStatus classifies one scheduled activity-day against field records.
// The empty status means the day was never scheduled and is excluded from
// every denominator.
type DayStatus string

const (
	StatusNone     DayStatus = ""
	StatusDone     DayStatus = "done"
	StatusMissed   DayStatus = "missed"
	StatusPending  DayStatus = "pending"
	StatusUpcoming DayStatus = "upcoming"
)

// Classify applies the status table for a single activity-day. Both dates
// are compared as UTC-midnight calendar dates. Days in the future are
// never missed; days in the past or today are never upcoming.
func Classify(scheduled bool, day, today time.Time, hasActualRecord bool) DayStatus {
	if !scheduled {
		return StatusNone
	}
	if hasActualRecord {
		return StatusDone
	}
	d, t := isoweek.Midnight(day), isoweek.Midnight(today)
	switch {
	case d.Before(t):
		return StatusMissed
	case d.Equal(t):
		return StatusPending
	default:
		return StatusUpcoming
	}
}

// ComplianceEntry is the per-activity row of a compliance view: one status
// per weekday.
type ComplianceEntry struct {
	Activity ResolvedActivity
	Days     [7]DayStatus
}

// ComplianceSummary aggregates statuses over a set of entries. Rate is nil
// when nothing was done or missed yet ("no basis"), never zero in that case.
type ComplianceSummary struct {
	Done     int
	Missed   int
	Pending  int
	Upcoming int
	Rate     *int
}

// Evaluate classifies every scheduled day of every resolved activity
// against the actual-record day sets, and aggregates the counts. An
// activity with no scheduled days yields a row of blank statuses and does
// not enter any denominator.
func Evaluate(activities []ResolvedActivity, ws WeekSchedule, weekStart, today time.Time, actual map[ActivityKey]DaySet) ([]ComplianceEntry, ComplianceSummary) {
	monday := isoweek.Midnight(weekStart)
	entries := make([]ComplianceEntry, 0, len(activities))
	var summary ComplianceSummary

	for _, a := range activities {
		scheduled := ws[a.Key()]
		recorded := actual[a.Key()]
		entry := ComplianceEntry{Activity: a}
		for d := 0; d < 7; d++ {
			status := Classify(scheduled[d], monday.AddDate(0, 0, d), today, recorded[d])
			entry.Days[d] = status
			switch status {
			case StatusDone:
				summary.Done++
			case StatusMissed:
				summary.Missed++
			case StatusPending:
				summary.Pending++
			case StatusUpcoming:
				summary.Upcoming++
			}
		}
		entries = append(entries, entry)
	}

	summary.Rate = ComplianceRate(summary.Done, summary.Missed)
	return entries, summary
}

// ComplianceRate returns done/(done+missed) as a rounded percentage, or
// nil when the denominator is zero.
func ComplianceRate(done, missed int) *int {
	if done+missed == 0 {
		return nil
	}
	rate := int(math.Round(float64(done) / float64(done+missed) * 100))
	return &rate
}

// VariancePercent is the deviation of actual from expected quantity. A
// zero expectation has no basis for comparison and is defined as 0
// variance, never as 100% excess.
func VariancePercent(actual, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	return (actual - expected) / expected * 100
}

// ComplianceScore maps a variance percentage onto a 0-100 score.
func ComplianceScore(variancePercent float64) float64 {
	return math.Max(0, 100-math.Abs(variancePercent))
}

// Tier is the traffic-light classification of a score or utilization.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

// ScoreTier classifies a compliance score. The 95 boundary is inclusive.
func ScoreTier(score float64) Tier {
	switch {
	case score >= 95:
		return TierGreen
	case score >= 80:
		return TierYellow
	default:
		return TierRed
	}
}

// BudgetTier classifies labor-budget utilization with inverted semantics:
// full consumption is over-budget.
func BudgetTier(utilizationPercent float64) Tier {
	switch {
	case utilizationPercent >= 100:
		return TierRed
	case utilizationPercent >= 80:
		return TierYellow
	default:
		return TierGreen
	}
}
