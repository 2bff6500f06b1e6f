package bundle

import (
	"encoding/json"
	"fmt"
	"os"

	libbundle "github.com/orrlabs/prefstore/lib/bundle"
	"github.com/spf13/cobra"
)

var (
	exportCmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Exports the current settings into a bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exported := libbundle.Export(store, rootVersion(cmd))
			raw, err := json.MarshalIndent(exported, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], raw, 0o644); err != nil {
				return err
			}
			fmt.Printf("exported to %s (%d bytes)\n", args[0], len(raw))
			return nil
		},
	}
	validateCmd = &cobra.Command{
		Use:   "validate [file]",
		Short: "Validates a bundle file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result := libbundle.ValidateImport(raw)
			if result.Valid {
				fmt.Println("bundle is valid")
				return nil
			}
			for _, violation := range result.Errors {
				fmt.Printf("invalid: %s\n", violation)
			}
			return fmt.Errorf("bundle failed validation with %d error(s)", len(result.Errors))
		},
	}
	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Validates and imports a bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := libbundle.Import(store, raw)
			if err != nil {
				for _, violation := range result.Errors {
					fmt.Printf("invalid: %s\n", violation)
				}
				return err
			}
			fmt.Println("imported successfully")
			return nil
		},
	}
	subscribeCmd = &cobra.Command{
		Use:   "subscribe [file]",
		Short: "Merges a list-subscription bundle into the matching list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := libbundle.MergeList(store, raw)
			if err != nil {
				return err
			}
			fmt.Printf("merged into %s: %d added, %d duplicate(s), %d dropped, %d total\n",
				result.ContentType, result.Added, result.Duplicates, result.Dropped, result.Total)
			return nil
		},
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Brings the store's schema up to the current version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := libbundle.Migrate(store)
			if !result.Migrated {
				fmt.Printf("schema already at version %d\n", result.FromVersion)
				return nil
			}
			fmt.Printf("migrated from version %d, wrote %d default(s)\n",
				result.FromVersion, len(result.DefaultsWritten))
			return nil
		},
	}
)

// rootVersion walks up to the root command's version annotation
func rootVersion(cmd *cobra.Command) string {
	return cmd.Root().Version
}
