// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/conf"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
)

// Interface abstracts the underlying database implementation and defines
// the store operations used by the API layer.
type Interface interface {
	Open() error
	Close() error

	// phases
	CreatePhase(phase *Phase) error
	UpdatePhase(phase *Phase) error
	GetPhase(id uint) (Phase, error)
	GetAllPhases(includeArchived bool) ([]Phase, error)
	ArchivePhase(id uint) error

	// procedure catalog
	ReplaceProcedureEntries(entries []ProcedureEntry) error
	GetProcedureEntries(cropCode string) ([]ProcedureEntry, error)
	GetAllProcedureEntries() ([]ProcedureEntry, error)

	// overrides
	UpsertOverride(override *Override) error
	DeleteOverride(phaseID, entryID uint, domain, weekStart string) error
	GetOverrides(phaseID uint, weekStart string) ([]Override, error)

	// gantt schedule
	ReplaceSchedule(phaseIDs []uint, weekStart string, entries []ScheduleEntry) error
	GetSchedule(phaseIDs []uint, weekStart string) ([]ScheduleEntry, error)

	// field records
	CreateFieldRecord(record *FieldRecord) error
	DeleteFieldRecord(id string) error
	GetFieldRecords(phaseID uint, from, to string) ([]FieldRecord, error)

	// crop profiles
	SaveCropProfile(profile *CropProfile) error
	GetCropProfile(cropCode string) (CropProfile, error)
	GetAllCropProfiles() ([]CropProfile, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store for the backend enabled in the configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// CreatePhase inserts a new phase.
func (ds *DataStore) CreatePhase(phase *Phase) error {
	if err := ds.DB.Create(phase).Error; err != nil {
		return dbErr(err, "creating phase")
	}
	return nil
}

// UpdatePhase persists edits to an existing phase.
func (ds *DataStore) UpdatePhase(phase *Phase) error {
	if phase.ID == 0 {
		return errors.Newf("cannot update phase without ID").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := ds.DB.Save(phase).Error; err != nil {
		return dbErr(err, "updating phase")
	}
	return nil
}

// GetPhase retrieves a phase by its ID.
func (ds *DataStore) GetPhase(id uint) (Phase, error) {
	var phase Phase
	if err := ds.DB.First(&phase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Phase{}, notFoundErr("phase", id)
		}
		return Phase{}, dbErr(err, "getting phase")
	}
	return phase, nil
}

// GetAllPhases retrieves phases, optionally including archived ones.
func (ds *DataStore) GetAllPhases(includeArchived bool) ([]Phase, error) {
	var phases []Phase
	query := ds.DB.Order("farm_name, label")
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}
	if err := query.Find(&phases).Error; err != nil {
		return nil, dbErr(err, "listing phases")
	}
	return phases, nil
}

// ArchivePhase marks a phase archived. Phases referenced by field records
// are never hard-deleted, so this is the only removal operation.
func (ds *DataStore) ArchivePhase(id uint) error {
	result := ds.DB.Model(&Phase{}).Where("id = ?", id).Update("archived", true)
	if result.Error != nil {
		return dbErr(result.Error, "archiving phase")
	}
	if result.RowsAffected == 0 {
		return notFoundErr("phase", id)
	}
	return nil
}

// ReplaceProcedureEntries swaps the whole SOP catalog in one transaction.
// Template rows are immutable; imports replace, never edit.
func (ds *DataStore) ReplaceProcedureEntries(entries []ProcedureEntry) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ProcedureEntry{}).Error; err != nil {
			return dbErr(err, "clearing procedure entries")
		}
		for i := range entries {
			if err := tx.Create(&entries[i]).Error; err != nil {
				return dbErr(err, "saving procedure entry")
			}
		}
		return nil
	})
}

// GetProcedureEntries retrieves the template rows for one crop in catalog
// order. An unknown crop yields an empty slice.
func (ds *DataStore) GetProcedureEntries(cropCode string) ([]ProcedureEntry, error) {
	var entries []ProcedureEntry
	if err := ds.DB.Where("crop_code = ?", cropCode).Order("position, id").Find(&entries).Error; err != nil {
		return nil, dbErr(err, "getting procedure entries")
	}
	return entries, nil
}

// GetAllProcedureEntries retrieves the full catalog in catalog order.
func (ds *DataStore) GetAllProcedureEntries() ([]ProcedureEntry, error) {
	var entries []ProcedureEntry
	if err := ds.DB.Order("position, id").Find(&entries).Error; err != nil {
		return nil, dbErr(err, "getting procedure entries")
	}
	return entries, nil
}

// UpsertOverride saves an override on its natural key
// (phase, entry, domain, week). A second save for the same key replaces
// the prior action: last write wins by design, concurrent edits to
// different entries never conflict.
func (ds *DataStore) UpsertOverride(override *Override) error {
	var existing Override
	err := ds.DB.Where(
		"phase_id = ? AND entry_id = ? AND domain = ? AND week_start = ?",
		override.PhaseID, override.EntryID, override.Domain, override.WeekStart,
	).First(&existing).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := ds.DB.Create(override).Error; err != nil {
				return dbErr(err, "creating override")
			}
			return nil
		}
		return dbErr(err, "looking up override")
	}

	existing.Action = override.Action
	if err := ds.DB.Save(&existing).Error; err != nil {
		return dbErr(err, "updating override")
	}
	override.ID = existing.ID
	return nil
}

// DeleteOverride removes an override by its natural key. Deleting an
// absent override is a no-op.
func (ds *DataStore) DeleteOverride(phaseID, entryID uint, domain, weekStart string) error {
	err := ds.DB.Where(
		"phase_id = ? AND entry_id = ? AND domain = ? AND week_start = ?",
		phaseID, entryID, domain, weekStart,
	).Delete(&Override{}).Error
	if err != nil {
		return dbErr(err, "deleting override")
	}
	return nil
}

// GetOverrides retrieves all overrides for a phase and week in insertion
// order.
func (ds *DataStore) GetOverrides(phaseID uint, weekStart string) ([]Override, error) {
	var overrides []Override
	if err := ds.DB.Where("phase_id = ? AND week_start = ?", phaseID, weekStart).
		Order("id").Find(&overrides).Error; err != nil {
		return nil, dbErr(err, "getting overrides")
	}
	return overrides, nil
}

// ReplaceSchedule persists the day assignment for a set of phases and one
// week by replacing the full set in a transaction. Repeated saves of the
// same state are idempotent; concurrent saves resolve to the last full
// set, which is the documented policy for this low-stakes data.
func (ds *DataStore) ReplaceSchedule(phaseIDs []uint, weekStart string, entries []ScheduleEntry) error {
	if len(phaseIDs) == 0 {
		return errors.Newf("schedule scope must contain at least one phase").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phase_id IN ? AND week_start = ?", phaseIDs, weekStart).
			Delete(&ScheduleEntry{}).Error; err != nil {
			return dbErr(err, "clearing schedule")
		}
		for i := range entries {
			if err := tx.Create(&entries[i]).Error; err != nil {
				return dbErr(err, "saving schedule entry")
			}
		}
		return nil
	})
}

// GetSchedule retrieves the persisted day assignment for a set of phases
// and one week.
func (ds *DataStore) GetSchedule(phaseIDs []uint, weekStart string) ([]ScheduleEntry, error) {
	if len(phaseIDs) == 0 {
		return []ScheduleEntry{}, nil
	}
	var entries []ScheduleEntry
	if err := ds.DB.Where("phase_id IN ? AND week_start = ?", phaseIDs, weekStart).
		Order("phase_id, entry_id, day_of_week").Find(&entries).Error; err != nil {
		return nil, dbErr(err, "getting schedule")
	}
	return entries, nil
}

// CreateFieldRecord appends one field record.
func (ds *DataStore) CreateFieldRecord(record *FieldRecord) error {
	if err := ds.DB.Create(record).Error; err != nil {
		return dbErr(err, "creating field record")
	}
	return nil
}

// DeleteFieldRecord removes one field record; the only mutation the
// append-only log permits.
func (ds *DataStore) DeleteFieldRecord(id string) error {
	result := ds.DB.Delete(&FieldRecord{}, "id = ?", id)
	if result.Error != nil {
		return dbErr(result.Error, "deleting field record")
	}
	if result.RowsAffected == 0 {
		return errors.Newf("field record %s not found", id).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// GetFieldRecords retrieves a phase's records within an inclusive date
// range, oldest first.
func (ds *DataStore) GetFieldRecords(phaseID uint, from, to string) ([]FieldRecord, error) {
	var records []FieldRecord
	query := ds.DB.Where("phase_id = ?", phaseID)
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}
	if err := query.Order("date, created_at").Find(&records).Error; err != nil {
		return nil, dbErr(err, "getting field records")
	}
	return records, nil
}

// SaveCropProfile inserts or updates the forecast profile for a crop.
func (ds *DataStore) SaveCropProfile(profile *CropProfile) error {
	var existing CropProfile
	err := ds.DB.Where("crop_code = ?", profile.CropCode).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := ds.DB.Create(profile).Error; err != nil {
				return dbErr(err, "creating crop profile")
			}
			return nil
		}
		return dbErr(err, "looking up crop profile")
	}
	if err := ds.DB.Model(&existing).Updates(map[string]any{
		"nursery_days":      profile.NurseryDays,
		"outgrowing_days":   profile.OutgrowingDays,
		"harvest_weeks":     profile.HarvestWeeks,
		"yield_per_hectare": profile.YieldPerHectare,
		"reject_rate":       profile.RejectRate,
		"week_distribution": profile.WeekDistribution,
	}).Error; err != nil {
		return dbErr(err, "updating crop profile")
	}
	return nil
}

// GetCropProfile retrieves the forecast profile for a crop.
func (ds *DataStore) GetCropProfile(cropCode string) (CropProfile, error) {
	var profile CropProfile
	if err := ds.DB.Where("crop_code = ?", cropCode).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CropProfile{}, errors.Newf("no crop profile for %s", cropCode).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return CropProfile{}, dbErr(err, "getting crop profile")
	}
	return profile, nil
}

// GetAllCropProfiles retrieves every crop profile.
func (ds *DataStore) GetAllCropProfiles() ([]CropProfile, error) {
	var profiles []CropProfile
	if err := ds.DB.Order("crop_code").Find(&profiles).Error; err != nil {
		return nil, dbErr(err, "getting crop profiles")
	}
	return profiles, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&Phase{}, &ProcedureEntry{}, &Override{},
		&ScheduleEntry{}, &FieldRecord{}, &CropProfile{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}

func dbErr(err error, op string) error {
	return errors.Newf("%s: %w", op, err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
}

func notFoundErr(kind string, id uint) error {
	return errors.Newf("%s %d not found", kind, id).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Build()
}
