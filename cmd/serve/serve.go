// Package serve implements the HTTP API server command.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/catalog"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/conf"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/httpserver"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/logging"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/observability"
)

// Command creates the serve command which runs the API until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the farm operations API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the HTTP API server")
	cmd.Flags().StringVar(&settings.Catalog.Path, "catalog", viper.GetString("catalog.path"), "SOP catalog YAML imported at startup")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}
	return nil
}

func runServer(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("Failed to close datastore", "error", err)
		}
	}()

	if settings.Catalog.Path != "" {
		if err := importCatalog(store, settings.Catalog.Path); err != nil {
			return err
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	server := httpserver.New(settings, store, metrics)
	server.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logging.Info("Shutting down", "signal", sig.String())

	return server.Shutdown()
}

// importCatalog replaces the SOP catalog and crop profiles from a YAML
// file before the server starts taking requests.
func importCatalog(store datastore.Interface, path string) error {
	file, err := catalog.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	if err := store.ReplaceProcedureEntries(file.Entries()); err != nil {
		return fmt.Errorf("failed to import catalog entries: %w", err)
	}
	profiles, err := file.Profiles()
	if err != nil {
		return fmt.Errorf("failed to decode crop profiles: %w", err)
	}
	for i := range profiles {
		if err := store.SaveCropProfile(&profiles[i]); err != nil {
			return fmt.Errorf("failed to save crop profile %s: %w", profiles[i].CropCode, err)
		}
	}
	logging.Info("Catalog imported", "path", path, "entries", len(file.Entries()), "profiles", len(profiles))
	return nil
}
