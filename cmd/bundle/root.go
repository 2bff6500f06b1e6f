package bundle

import (
	"github.com/orrlabs/prefstore/cmd/util"
	"github.com/orrlabs/prefstore/lib/settings"
	"github.com/spf13/cobra"
)

var (
	store      *settings.Store
	closeStore func() error

	// BundleCommands represents the bundle command group
	BundleCommands = &cobra.Command{
		Use:               "bundle",
		Short:             "Export, validate and import settings bundles",
		PersistentPreRunE: setupStore,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if closeStore != nil {
				return closeStore()
			}
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common storage flags to the bundle command group
	util.SetupStorageFlags(BundleCommands)

	// Add subcommands
	BundleCommands.AddCommand(exportCmd)
	BundleCommands.AddCommand(importCmd)
	BundleCommands.AddCommand(validateCmd)
	BundleCommands.AddCommand(subscribeCmd)
	BundleCommands.AddCommand(migrateCmd)
}

// setupStore opens the settings store for all bundle subcommands
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	store, closeStore, err = util.OpenStore()
	return err
}
