package conf

import (
	"testing"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
)

func validSettings() *Settings {
	s := &Settings{}
	s.WebServer.Enabled = true
	s.WebServer.Port = "8090"
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "farmops.db"
	s.Forecast.Weeks = 8
	return s
}

func TestValidateSettingsOK(t *testing.T) {
	if err := ValidateSettings(validSettings()); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
}

func TestValidateSettingsErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"both backends enabled", func(s *Settings) { s.Output.MySQL.Enabled = true }},
		{"no backend enabled", func(s *Settings) { s.Output.SQLite.Enabled = false }},
		{"sqlite without path", func(s *Settings) { s.Output.SQLite.Path = "" }},
		{"bad port", func(s *Settings) { s.WebServer.Port = "eighty" }},
		{"port out of range", func(s *Settings) { s.WebServer.Port = "70000" }},
		{"zero forecast weeks", func(s *Settings) { s.Forecast.Weeks = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.CategoryOf(err) != errors.CategoryConfiguration {
				t.Errorf("category = %q, want configuration", errors.CategoryOf(err))
			}
		})
	}
}
