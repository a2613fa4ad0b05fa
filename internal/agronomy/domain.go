package agronomy

// DomainKey names one of the activity domains the engine is instantiated
// for. Labor and nutrition share the full resolver/scheduler/evaluator
// pipeline; harvest logging reuses only the compliance classifier.
type DomainKey string

const (
	DomainLabor     DomainKey = "labor"
	DomainNutrition DomainKey = "nutrition"
)

// Domain describes how one activity domain turns an SOP entry into a
// concrete quantity. The engine is generic over this descriptor instead of
// duplicating per-domain pipelines.
type Domain struct {
	Key   DomainKey
	Label string
	// Quantity computes the total expected quantity of an entry for a
	// phase of the given area in hectares.
	Quantity func(e Entry, areaHectares float64) float64
}

var (
	// Labor quantities are man-days: workers × days scaled by area.
	Labor = Domain{
		Key:   DomainLabor,
		Label: "Labor tasks",
		Quantity: func(e Entry, areaHectares float64) float64 {
			return e.Workers * e.Days * areaHectares
		},
	}

	// Nutrition quantities are application rates scaled by area.
	Nutrition = Domain{
		Key:   DomainNutrition,
		Label: "Nutrition applications",
		Quantity: func(e Entry, areaHectares float64) float64 {
			return e.RatePerHectare * areaHectares
		},
	}
)

// Domains lists all registered activity domains in presentation order.
var Domains = []Domain{Labor, Nutrition}

// DomainFor looks up a domain descriptor by key.
func DomainFor(key DomainKey) (Domain, bool) {
	for _, d := range Domains {
		if d.Key == key {
			return d, true
		}
	}
	return Domain{}, false
}
