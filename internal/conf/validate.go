package conf

import (
	"strconv"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/errors"
)

// ValidateSettings checks the loaded configuration for inconsistencies
// before the service starts.
func ValidateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.Newf("only one database backend may be enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return errors.Newf("no database backend enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.Newf("sqlite backend enabled without a database path").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.WebServer.Enabled {
		port, err := strconv.Atoi(settings.WebServer.Port)
		if err != nil || port < 1 || port > 65535 {
			return errors.Newf("invalid web server port %q", settings.WebServer.Port).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	if settings.Forecast.Weeks < 1 {
		return errors.Newf("forecast weeks must be at least 1, got %d", settings.Forecast.Weeks).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}
