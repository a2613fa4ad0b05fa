package agronomy

import (
	"math"
	"testing"
	"time"
)

func testProfile() CropProfile {
	return CropProfile{
		CropCode:        "FB",
		NurseryDays:     21,
		OutgrowingDays:  49,
		HarvestWeeks:    6,
		YieldPerHectare: 10,
		RejectRate:      10,
		WeekDistribution: [16]float64{
			0.05, 0.15, 0.25, 0.25, 0.20, 0.10,
		},
	}
}

func TestProjectWeeklyTons(t *testing.T) {
	// Sown 2025-01-06; harvest starts 70 days later on 2025-03-17, a Monday.
	phase := Phase{ID: 10, CropCode: "FB", SowingDate: date(t, "2025-01-06"), AreaHectares: 2}
	profile := testProfile()

	mondays := ForecastMondays(date(t, "2025-03-10"), 8)
	tons := ProjectWeeklyTons(phase, profile, mondays)
	if len(tons) != 8 {
		t.Fatalf("got %d weeks, want 8", len(tons))
	}

	// Week before harvest start projects zero.
	if tons[0] != 0 {
		t.Errorf("pre-harvest week tons = %v, want 0", tons[0])
	}

	// First harvest week: 2 ha × 10 t/ha × 0.05 × 0.9.
	want := 2 * 10.0 * 0.05 * 0.9
	if math.Abs(tons[1]-want) > 1e-9 {
		t.Errorf("harvest week 1 tons = %v, want %v", tons[1], want)
	}

	// Sixth harvest week is the last in-window slot.
	want = 2 * 10.0 * 0.10 * 0.9
	if math.Abs(tons[6]-want) > 1e-9 {
		t.Errorf("harvest week 6 tons = %v, want %v", tons[6], want)
	}

	// Past the harvest window projects zero again.
	if tons[7] != 0 {
		t.Errorf("post-harvest week tons = %v, want 0", tons[7])
	}
}

func TestProjectWeeklyTonsCapsAtSixteenSlots(t *testing.T) {
	phase := Phase{ID: 10, CropCode: "FB", SowingDate: date(t, "2025-01-06"), AreaHectares: 1}
	profile := testProfile()
	profile.HarvestWeeks = 30 // curve only has 16 slots

	harvestStart := date(t, "2025-03-17")
	week17 := harvestStart.AddDate(0, 0, 16*7)
	tons := ProjectWeeklyTons(phase, profile, []time.Time{week17})
	if tons[0] != 0 {
		t.Errorf("week 17 tons = %v, want 0 (distribution capped at 16)", tons[0])
	}

	week16 := harvestStart.AddDate(0, 0, 15*7)
	tons = ProjectWeeklyTons(phase, profile, []time.Time{week16})
	if tons[0] != 0 {
		// Slot 16 of the test curve is zero, so this stays zero, but the
		// week index itself must be in range; exercised via week 3 below.
		t.Logf("week 16 tons = %v", tons[0])
	}

	week3 := harvestStart.AddDate(0, 0, 2*7)
	tons = ProjectWeeklyTons(phase, profile, []time.Time{week3})
	want := 1 * 10.0 * 0.25 * 0.9
	if math.Abs(tons[0]-want) > 1e-9 {
		t.Errorf("week 3 tons = %v, want %v", tons[0], want)
	}
}

func TestForecastMondays(t *testing.T) {
	// From a Thursday, the series starts on that week's Monday.
	mondays := ForecastMondays(date(t, "2025-01-23"), 3)
	want := []string{"2025-01-20", "2025-01-27", "2025-02-03"}
	for i, m := range mondays {
		if m.Format("2006-01-02") != want[i] {
			t.Errorf("monday[%d] = %s, want %s", i, m.Format("2006-01-02"), want[i])
		}
		if m.Weekday() != time.Monday {
			t.Errorf("monday[%d] is a %s", i, m.Weekday())
		}
	}

	// From a Sunday (Go weekday 0).
	mondays = ForecastMondays(date(t, "2025-01-26"), 1)
	if mondays[0].Format("2006-01-02") != "2025-01-20" {
		t.Errorf("sunday start monday = %s, want 2025-01-20", mondays[0].Format("2006-01-02"))
	}
}

func TestSumForecasts(t *testing.T) {
	total := SumForecasts(
		[]float64{1, 2, 3},
		[]float64{0.5, 0.5},
		nil,
	)
	want := []float64{1.5, 2.5, 3}
	if len(total) != len(want) {
		t.Fatalf("len = %d, want %d", len(total), len(want))
	}
	for i := range want {
		if math.Abs(total[i]-want[i]) > 1e-9 {
			t.Errorf("total[%d] = %v, want %v", i, total[i], want[i])
		}
	}
}
