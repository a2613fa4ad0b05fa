// internal/api/snapshot.go
//
// The parse-and-validate boundary between storage and the engine: store
// models become typed engine snapshots exactly once, here. The engine
// itself never sees strings-or-numbers, unparsed dates or negative areas.
package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/agronomy/isoweek"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
)

const dateLayout = "2006-01-02"

func validationErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}

// parseDate parses a YYYY-MM-DD value into a UTC-midnight date.
func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, validationErr("%s %q is not a valid YYYY-MM-DD date", field, value)
	}
	return d, nil
}

// parseWeekStart parses a week identifier. Weeks are identified by their
// Monday date; anything else is rejected rather than silently snapped.
func parseWeekStart(value string) (time.Time, error) {
	d, err := parseDate("weekStart", value)
	if err != nil {
		return time.Time{}, err
	}
	if !isoweek.IsMonday(d) {
		return time.Time{}, validationErr("weekStart %q is not a Monday", value)
	}
	return d, nil
}

// parseQuantity accepts the string-or-number values upstream storage and
// clients produce for quantity fields. This is the single coercion point;
// past it quantities are typed floats.
func parseQuantity(field string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, validationErr("%s %q is not a number", field, v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, validationErr("%s %q is not a number", field, v)
		}
		return f, nil
	default:
		return 0, validationErr("%s has unsupported type %T", field, value)
	}
}

// phaseSnapshot validates a stored phase into an engine snapshot.
func phaseSnapshot(m *datastore.Phase) (agronomy.Phase, error) {
	sowing, err := parseDate("sowingDate", m.SowingDate)
	if err != nil {
		return agronomy.Phase{}, err
	}
	if m.AreaHectares < 0 {
		return agronomy.Phase{}, validationErr("phase %d has negative area %v", m.ID, m.AreaHectares)
	}
	return agronomy.Phase{
		ID:           m.ID,
		CropCode:     m.CropCode,
		Label:        m.Label,
		SowingDate:   sowing,
		FarmName:     m.FarmName,
		AreaHectares: m.AreaHectares,
		Archived:     m.Archived,
	}, nil
}

func entrySnapshot(m *datastore.ProcedureEntry) agronomy.Entry {
	return agronomy.Entry{
		ID:             m.ID,
		CropCode:       m.CropCode,
		WeekOffset:     m.WeekOffset,
		Name:           m.Name,
		Domain:         agronomy.DomainKey(m.Domain),
		Workers:        m.Workers,
		Days:           m.Days,
		RatePerHectare: m.RatePerHectare,
		Unit:           m.Unit,
	}
}

func catalogSnapshot(models []datastore.ProcedureEntry) *agronomy.Catalog {
	entries := make([]agronomy.Entry, 0, len(models))
	for i := range models {
		entries = append(entries, entrySnapshot(&models[i]))
	}
	return agronomy.NewCatalog(entries)
}

func overrideSnapshots(models []datastore.Override) ([]agronomy.Override, error) {
	overrides := make([]agronomy.Override, 0, len(models))
	for i := range models {
		m := &models[i]
		week, err := parseDate("override weekStart", m.WeekStart)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, agronomy.Override{
			PhaseID:   m.PhaseID,
			EntryID:   m.EntryID,
			Domain:    agronomy.DomainKey(m.Domain),
			Action:    agronomy.OverrideAction(m.Action),
			WeekStart: week,
		})
	}
	return overrides, nil
}

// scheduleSnapshot folds persisted schedule rows into the in-memory
// week map. Out-of-range days in storage are skipped.
func scheduleSnapshot(models []datastore.ScheduleEntry) agronomy.WeekSchedule {
	ws := make(agronomy.WeekSchedule)
	for i := range models {
		m := &models[i]
		ws.Toggle(agronomy.ActivityKey{PhaseID: m.PhaseID, EntryID: m.EntryID}, m.DayOfWeek, true)
	}
	return ws
}

// recordKindFor maps an activity domain to the field-record kind that
// counts as its actual.
func recordKindFor(domain agronomy.DomainKey) string {
	switch domain {
	case agronomy.DomainNutrition:
		return "feeding"
	default:
		return "labor-log"
	}
}

// actualDaySets marks which weekdays of the given week have a matching
// field record for each activity. A record matches an activity when its
// kind fits the activity's domain and its product/task equals the
// activity label.
func actualDaySets(activities []agronomy.ResolvedActivity, records []datastore.FieldRecord, weekStart time.Time) map[agronomy.ActivityKey]agronomy.DaySet {
	monday := isoweek.Midnight(weekStart)
	actual := make(map[agronomy.ActivityKey]agronomy.DaySet)

	for _, a := range activities {
		kind := recordKindFor(a.Domain)
		set := actual[a.Key()]
		for i := range records {
			r := &records[i]
			if r.PhaseID != a.PhaseID || r.Kind != kind || r.ProductOrTask != a.Label {
				continue
			}
			d, err := time.Parse(dateLayout, r.Date)
			if err != nil {
				continue
			}
			day := int(isoweek.Midnight(d).Sub(monday).Hours() / 24)
			if day >= 0 && day <= 6 {
				set[day] = true
			}
		}
		actual[a.Key()] = set
	}
	return actual
}

// weekOffsetOf is the weeks-since-sowing offset joining a phase to the
// catalog for a given week.
func weekOffsetOf(phase agronomy.Phase, weekStart time.Time) int {
	return isoweek.WeeksSince(phase.SowingDate, weekStart)
}

// profileSnapshot decodes a stored crop profile, including the JSON
// distribution curve, into the engine's fixed 16-slot form.
func profileSnapshot(m *datastore.CropProfile) (agronomy.CropProfile, error) {
	profile := agronomy.CropProfile{
		CropCode:        m.CropCode,
		NurseryDays:     m.NurseryDays,
		OutgrowingDays:  m.OutgrowingDays,
		HarvestWeeks:    m.HarvestWeeks,
		YieldPerHectare: m.YieldPerHectare,
		RejectRate:      m.RejectRate,
	}

	if m.WeekDistribution != "" {
		var curve []float64
		if err := json.Unmarshal([]byte(m.WeekDistribution), &curve); err != nil {
			return agronomy.CropProfile{}, validationErr("crop %s has a malformed distribution curve", m.CropCode)
		}
		if len(curve) > len(profile.WeekDistribution) {
			curve = curve[:len(profile.WeekDistribution)]
		}
		copy(profile.WeekDistribution[:], curve)
	}
	return profile, nil
}
