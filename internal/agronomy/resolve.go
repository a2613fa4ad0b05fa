package agronomy

import (
	"time"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy/isoweek"
)

// Resolve computes the expected activities for a phase in the week starting
// at weekStart (a Monday):
//
//  1. The default set is every catalog row matching the phase's crop at the
//     computed weeks-since-sowing offset. A phase whose sowing date is after
//     the week start is not yet active and resolves to nothing.
//  2. Remove-overrides for this (phase, week, domain) suppress default
//     matches unconditionally.
//  3. Add-overrides pull in referenced entries that are not already present,
//     regardless of the entry's own week offset.
//
// Output order is stable: default matches in catalog order, then added
// entries in override-list order. Quantities are the domain formula applied
// to the phase area.
func Resolve(phase Phase, weekStart time.Time, cat *Catalog, overrides []Override, domain Domain) []ResolvedActivity {
	weekOffset := isoweek.WeeksSince(phase.SowingDate, weekStart)
	if weekOffset < 0 {
		return []ResolvedActivity{}
	}

	week := isoweek.Midnight(weekStart)
	removed := make(map[uint]bool)
	for _, ov := range overrides {
		if ov.Action == OverrideRemove && overrideMatches(ov, phase.ID, week, domain.Key) {
			removed[ov.EntryID] = true
		}
	}

	var resolved []ResolvedActivity
	present := make(map[uint]bool)
	for _, e := range cat.ForWeek(phase.CropCode, weekOffset, domain.Key) {
		if removed[e.ID] {
			continue
		}
		resolved = append(resolved, activityFor(phase, e, domain))
		present[e.ID] = true
	}

	for _, ov := range overrides {
		if ov.Action != OverrideAdd || !overrideMatches(ov, phase.ID, week, domain.Key) {
			continue
		}
		if present[ov.EntryID] {
			continue
		}
		e, ok := cat.ByID(ov.EntryID)
		if !ok {
			// Override references a template row that no longer exists;
			// absence of data is not an error.
			continue
		}
		resolved = append(resolved, activityFor(phase, e, domain))
		present[e.ID] = true
	}

	if resolved == nil {
		return []ResolvedActivity{}
	}
	return resolved
}

func overrideMatches(ov Override, phaseID uint, week time.Time, domain DomainKey) bool {
	return ov.PhaseID == phaseID && ov.Domain == domain && isoweek.Midnight(ov.WeekStart).Equal(week)
}

func activityFor(phase Phase, e Entry, domain Domain) ResolvedActivity {
	return ResolvedActivity{
		PhaseID:       phase.ID,
		EntryID:       e.ID,
		Label:         e.Name,
		Domain:        domain.Key,
		Unit:          e.Unit,
		TotalQuantity: domain.Quantity(e, phase.AreaHectares),
	}
}
