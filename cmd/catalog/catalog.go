// Package catalog implements the SOP catalog import and inspection
// commands.
package catalog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/catalog"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/conf"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
)

// Command creates the catalog command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the SOP procedure catalog",
	}
	cmd.AddCommand(importCommand(settings))
	cmd.AddCommand(validateCommand())
	return cmd
}

func importCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "import [catalog.yaml]",
		Short: "Replace the stored catalog and crop profiles from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no database backend enabled in configuration")
			}
			if err := store.Open(); err != nil {
				return fmt.Errorf("failed to open datastore: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries := file.Entries()
			if err := store.ReplaceProcedureEntries(entries); err != nil {
				return fmt.Errorf("failed to import catalog entries: %w", err)
			}
			profiles, err := file.Profiles()
			if err != nil {
				return err
			}
			for i := range profiles {
				if err := store.SaveCropProfile(&profiles[i]); err != nil {
					return fmt.Errorf("failed to save crop profile %s: %w", profiles[i].CropCode, err)
				}
			}

			fmt.Printf("Imported %d catalog entries and %d crop profiles from %s\n",
				len(entries), len(profiles), args[0])
			return nil
		},
	}
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog.yaml]",
		Short: "Check a catalog file without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s is valid: %d crops, %d catalog entries\n",
				args[0], len(file.Crops), len(file.Entries()))
			return nil
		},
	}
}
