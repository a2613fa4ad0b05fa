// Package catalog parses SOP catalog files: YAML documents listing the
// per-crop procedure templates and forecast profiles that operators
// maintain outside the system and import through the CLI.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
)

// File is the root of a catalog YAML document.
type File struct {
	Crops []Crop `yaml:"crops"`
}

// Crop groups the templates and forecast profile of one crop.
type Crop struct {
	Code      string     `yaml:"code"`
	Name      string     `yaml:"name"`
	Profile   *Profile   `yaml:"profile"`
	Labor     []Template `yaml:"labor"`
	Nutrition []Template `yaml:"nutrition"`
}

// Template is one SOP row. Labor rows use workers/days, nutrition rows use
// ratePerHectare.
type Template struct {
	Week           int     `yaml:"week"`
	Name           string  `yaml:"name"`
	Workers        float64 `yaml:"workers"`
	Days           float64 `yaml:"days"`
	RatePerHectare float64 `yaml:"ratePerHectare"`
	Unit           string  `yaml:"unit"`
}

// Profile carries the forecast parameters of a crop.
type Profile struct {
	NurseryDays      int       `yaml:"nurseryDays"`
	OutgrowingDays   int       `yaml:"outgrowingDays"`
	HarvestWeeks     int       `yaml:"harvestWeeks"`
	YieldPerHectare  float64   `yaml:"yieldPerHectare"`
	RejectRate       float64   `yaml:"rejectRate"`
	WeekDistribution []float64 `yaml:"weekDistribution"`
}

// Load reads and validates a catalog file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Newf("reading catalog file: %w", err).
			Component("catalog").
			Category(errors.CategoryFileIO).
			Build()
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Newf("parsing catalog file: %w", err).
			Component("catalog").
			Category(errors.CategoryFileParsing).
			Build()
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool)
	for i := range f.Crops {
		crop := &f.Crops[i]
		if crop.Code == "" {
			return parseErr("crop %d has no code", i)
		}
		if seen[crop.Code] {
			return parseErr("duplicate crop code %s", crop.Code)
		}
		seen[crop.Code] = true

		for _, tpl := range crop.Labor {
			if err := tpl.validate(crop.Code, "labor"); err != nil {
				return err
			}
		}
		for _, tpl := range crop.Nutrition {
			if err := tpl.validate(crop.Code, "nutrition"); err != nil {
				return err
			}
		}

		if p := crop.Profile; p != nil {
			if p.HarvestWeeks < 0 || p.NurseryDays < 0 || p.OutgrowingDays < 0 {
				return parseErr("crop %s profile has negative durations", crop.Code)
			}
			if p.RejectRate < 0 || p.RejectRate > 100 {
				return parseErr("crop %s reject rate %v outside 0-100", crop.Code, p.RejectRate)
			}
			if len(p.WeekDistribution) > 16 {
				return parseErr("crop %s distribution has %d slots, maximum is 16", crop.Code, len(p.WeekDistribution))
			}
		}
	}
	return nil
}

func (t Template) validate(cropCode, domain string) error {
	if t.Name == "" {
		return parseErr("crop %s has a %s template without a name", cropCode, domain)
	}
	if t.Week < 0 {
		return parseErr("crop %s template %q has negative week offset %d", cropCode, t.Name, t.Week)
	}
	if t.Workers < 0 || t.Days < 0 || t.RatePerHectare < 0 {
		return parseErr("crop %s template %q has negative quantity parameters", cropCode, t.Name)
	}
	return nil
}

// Entries flattens the document into catalog-ordered procedure rows ready
// for the store.
func (f *File) Entries() []datastore.ProcedureEntry {
	var entries []datastore.ProcedureEntry
	position := 0
	for i := range f.Crops {
		crop := &f.Crops[i]
		for _, tpl := range crop.Labor {
			entries = append(entries, datastore.ProcedureEntry{
				CropCode:   crop.Code,
				WeekOffset: tpl.Week,
				Name:       tpl.Name,
				Domain:     "labor",
				Workers:    tpl.Workers,
				Days:       tpl.Days,
				Unit:       tpl.Unit,
				Position:   position,
			})
			position++
		}
		for _, tpl := range crop.Nutrition {
			entries = append(entries, datastore.ProcedureEntry{
				CropCode:       crop.Code,
				WeekOffset:     tpl.Week,
				Name:           tpl.Name,
				Domain:         "nutrition",
				RatePerHectare: tpl.RatePerHectare,
				Unit:           tpl.Unit,
				Position:       position,
			})
			position++
		}
	}
	return entries
}

// Profiles converts the per-crop forecast profiles for the store. The
// distribution curve is serialized as a JSON array.
func (f *File) Profiles() ([]datastore.CropProfile, error) {
	var profiles []datastore.CropProfile
	for i := range f.Crops {
		crop := &f.Crops[i]
		if crop.Profile == nil {
			continue
		}
		curve, err := json.Marshal(crop.Profile.WeekDistribution)
		if err != nil {
			return nil, fmt.Errorf("encoding distribution for crop %s: %w", crop.Code, err)
		}
		profiles = append(profiles, datastore.CropProfile{
			CropCode:         crop.Code,
			NurseryDays:      crop.Profile.NurseryDays,
			OutgrowingDays:   crop.Profile.OutgrowingDays,
			HarvestWeeks:     crop.Profile.HarvestWeeks,
			YieldPerHectare:  crop.Profile.YieldPerHectare,
			RejectRate:       crop.Profile.RejectRate,
			WeekDistribution: string(curve),
		})
	}
	return profiles, nil
}

func parseErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("catalog").
		Category(errors.CategoryFileParsing).
		Build()
}
