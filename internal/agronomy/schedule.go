package agronomy

// DaySet marks which days of a week an activity is scheduled on.
// Index 0 is Monday through index 6 is Sunday, matching the week's
// Monday-anchored identity.
type DaySet [7]bool

// Count returns the number of scheduled days.
func (s DaySet) Count() int {
	n := 0
	for _, on := range s {
		if on {
			n++
		}
	}
	return n
}

// Days returns the scheduled day indices in ascending order.
func (s DaySet) Days() []int {
	var days []int
	for d, on := range s {
		if on {
			days = append(days, d)
		}
	}
	return days
}

// WeekSchedule is the in-memory day assignment for one week: which days
// each activity is distributed over. The zero value of a missing key means
// "no days scheduled".
type WeekSchedule map[ActivityKey]DaySet

// Toggle sets or clears one day for one activity and returns the updated
// schedule. A day outside [0,6] is ignored. The map is mutated in place;
// a nil map is allocated first.
func (ws WeekSchedule) Toggle(key ActivityKey, day int, on bool) WeekSchedule {
	if day < 0 || day > 6 {
		return ws
	}
	if ws == nil {
		ws = make(WeekSchedule)
	}
	set := ws[key]
	set[day] = on
	if set == (DaySet{}) {
		delete(ws, key)
	} else {
		ws[key] = set
	}
	return ws
}

// PerDayQuantity divides an activity total evenly across its scheduled
// days. With zero scheduled days the activity contributes nothing to any
// day, so the result is 0 rather than a division error or NaN.
func PerDayQuantity(totalQuantity float64, scheduledDays int) float64 {
	if scheduledDays <= 0 {
		return 0
	}
	return totalQuantity / float64(scheduledDays)
}

// DayTotals sums the per-day quantities of all scheduled activities into
// the seven day buckets. Activities with no scheduled days are invisible
// here but still count toward GrandTotal.
func DayTotals(activities []ResolvedActivity, ws WeekSchedule) [7]float64 {
	var totals [7]float64
	for _, a := range activities {
		set := ws[a.Key()]
		n := set.Count()
		if n == 0 {
			continue
		}
		perDay := PerDayQuantity(a.TotalQuantity, n)
		for d, on := range set {
			if on {
				totals[d] += perDay
			}
		}
	}
	return totals
}

// GrandTotal sums the total quantities of all resolved activities. The sum
// is independent of how days were chosen: distribution conserves quantity.
func GrandTotal(activities []ResolvedActivity) float64 {
	total := 0.0
	for _, a := range activities {
		total += a.TotalQuantity
	}
	return total
}
