// model.go: GORM models for the farmops database tables. Calendar dates
// are stored as YYYY-MM-DD strings; a week is always identified by its
// Monday date.
package datastore

import "time"

// Phase is a tracked planting unit. Phases referenced by field records are
// archived rather than deleted.
type Phase struct {
	ID           uint   `gorm:"primaryKey"`
	CropCode     string `gorm:"index:idx_phases_crop;not null"`
	Label        string `gorm:"not null"`
	SowingDate   string `gorm:"not null"` // YYYY-MM-DD
	FarmName     string `gorm:"index:idx_phases_farm"`
	AreaHectares float64
	Archived     bool `gorm:"index:idx_phases_archived;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProcedureEntry is one immutable SOP template row for a crop at a week
// offset from sowing. Labor rows carry Workers/Days, nutrition rows carry
// RatePerHectare.
type ProcedureEntry struct {
	ID             uint   `gorm:"primaryKey"`
	CropCode       string `gorm:"index:idx_entries_crop_week,priority:1;not null"`
	WeekOffset     int    `gorm:"index:idx_entries_crop_week,priority:2;not null"`
	Name           string `gorm:"not null"`
	Domain         string `gorm:"index:idx_entries_domain;not null"` // labor | nutrition
	Workers        float64
	Days           float64
	RatePerHectare float64
	Unit           string
	Position       int `gorm:"index:idx_entries_position"` // catalog order
}

// Override is a per-phase, per-week exception to the template rows. The
// unique index is its natural key; saves upsert on it, last write wins.
type Override struct {
	ID        uint   `gorm:"primaryKey"`
	PhaseID   uint   `gorm:"uniqueIndex:idx_overrides_natural,priority:1;not null"`
	EntryID   uint   `gorm:"uniqueIndex:idx_overrides_natural,priority:2;not null"`
	Domain    string `gorm:"uniqueIndex:idx_overrides_natural,priority:3;not null"`
	WeekStart string `gorm:"uniqueIndex:idx_overrides_natural,priority:4;not null"` // Monday YYYY-MM-DD
	Action    string `gorm:"not null"`                                              // add | remove
	UpdatedAt time.Time
}

// ScheduleEntry marks one activity as scheduled on one day of a week.
// Presence is the whole signal; saves replace the full set for a scope and
// week, never merge.
type ScheduleEntry struct {
	ID        uint   `gorm:"primaryKey"`
	PhaseID   uint   `gorm:"index:idx_schedule_scope,priority:1;not null"`
	EntryID   uint   `gorm:"not null"`
	WeekStart string `gorm:"index:idx_schedule_scope,priority:2;not null"` // Monday YYYY-MM-DD
	DayOfWeek int    `gorm:"not null"`                                     // 0 Monday .. 6 Sunday
}

// FieldRecord is one actual observation from the field. Records are
// append-only; deletion is the only permitted mutation.
type FieldRecord struct {
	ID            string `gorm:"primaryKey"` // UUID
	PhaseID       uint   `gorm:"index:idx_records_phase_date,priority:1;not null"`
	Date          string `gorm:"index:idx_records_phase_date,priority:2;not null"` // YYYY-MM-DD
	Kind          string `gorm:"index:idx_records_kind;not null"`                  // feeding | labor-log | harvest-log
	ProductOrTask string `gorm:"not null"`
	Quantity      float64
	Notes         string
	CreatedAt     time.Time
}

// CropProfile carries per-crop forecast parameters. The 16-slot harvest
// distribution curve is stored as a JSON array column.
type CropProfile struct {
	CropCode         string `gorm:"primaryKey"`
	NurseryDays      int
	OutgrowingDays   int
	HarvestWeeks     int
	YieldPerHectare  float64
	RejectRate       float64
	WeekDistribution string `gorm:"type:text"` // JSON array of up to 16 fractions
	UpdatedAt        time.Time
}
