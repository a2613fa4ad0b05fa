// Package agronomy implements the procedure scheduling and compliance
// engine. Every function in this package is pure: inputs are fully
// materialized snapshots fetched by the caller, no I/O happens here, and
// results depend only on the arguments. This makes the engine safe to
// call concurrently from multiple request handlers.
package agronomy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Phase is a tracked planting unit: one crop on one area with one sowing
// date. Phases are created on import, edited in place and archived once
// finished; they are never hard-deleted while field records reference them.
type Phase struct {
	ID           uint
	CropCode     string
	Label        string
	SowingDate   time.Time // UTC midnight
	FarmName     string
	AreaHectares float64
	Archived     bool
}

// Entry is one immutable SOP template row: an expected labor task or
// nutrition application for a crop at a given week offset from sowing.
// Many rows may share the same (crop, week offset).
type Entry struct {
	ID         uint
	CropCode   string
	WeekOffset int
	Name       string
	Domain     DomainKey
	// Quantity parameters. Labor rows use Workers and Days, nutrition rows
	// use RatePerHectare; the unused fields are zero.
	Workers        float64
	Days           float64
	RatePerHectare float64
	Unit           string
}

// OverrideAction is the effect of an override on the default resolved set.
type OverrideAction string

const (
	OverrideAdd    OverrideAction = "add"
	OverrideRemove OverrideAction = "remove"
)

// Override is a per-phase, per-week exception to the SOP templates.
// Its natural key is (PhaseID, EntryID, Domain, WeekStart): an upsert on
// that key replaces any prior action, so add and remove for the same entry
// and week cannot coexist.
type Override struct {
	PhaseID   uint
	EntryID   uint
	Domain    DomainKey
	Action    OverrideAction
	WeekStart time.Time // Monday, UTC midnight
}

// ResolvedActivity is an SOP entry matched to a concrete phase and week,
// with the quantity formula already applied to the phase area.
type ResolvedActivity struct {
	PhaseID       uint
	EntryID       uint
	Label         string
	Domain        DomainKey
	Unit          string
	TotalQuantity float64
}

// Key returns the activity's boundary identity.
func (a ResolvedActivity) Key() ActivityKey {
	return ActivityKey{PhaseID: a.PhaseID, EntryID: a.EntryID}
}

// ActivityKey identifies an activity at the API boundary as the pair
// "{phaseId}-{procedureEntryId}".
type ActivityKey struct {
	PhaseID uint
	EntryID uint
}

func (k ActivityKey) String() string {
	return fmt.Sprintf("%d-%d", k.PhaseID, k.EntryID)
}

// ParseActivityKey parses the "{phaseId}-{procedureEntryId}" form.
func ParseActivityKey(s string) (ActivityKey, error) {
	phasePart, entryPart, ok := strings.Cut(s, "-")
	if !ok {
		return ActivityKey{}, fmt.Errorf("malformed activity key %q", s)
	}
	phaseID, err := strconv.ParseUint(phasePart, 10, 32)
	if err != nil {
		return ActivityKey{}, fmt.Errorf("malformed activity key %q: %w", s, err)
	}
	entryID, err := strconv.ParseUint(entryPart, 10, 32)
	if err != nil {
		return ActivityKey{}, fmt.Errorf("malformed activity key %q: %w", s, err)
	}
	return ActivityKey{PhaseID: uint(phaseID), EntryID: uint(entryID)}, nil
}

// FieldRecord is one actual observation from the field: a feeding, a labor
// log line or a harvest weight. Records are append-only; deletion is the
// only permitted mutation.
type FieldRecord struct {
	ID            string
	PhaseID       uint
	Date          time.Time // UTC midnight
	ProductOrTask string
	Quantity      float64
	Notes         string
}

// CropProfile carries the per-crop forecast parameters: growing durations,
// expected yield and the 16-slot harvest distribution curve. The curve is
// not required to sum to 1.
type CropProfile struct {
	CropCode         string
	NurseryDays      int
	OutgrowingDays   int
	HarvestWeeks     int
	YieldPerHectare  float64
	RejectRate       float64 // percent, 0-100
	WeekDistribution [16]float64
}
