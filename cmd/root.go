package cmd

import (
	"fmt"
	"os"

	"github.com/orrlabs/prefstore/cmd/bundle"
	"github.com/orrlabs/prefstore/cmd/conflicts"
	"github.com/orrlabs/prefstore/cmd/health"
	"github.com/orrlabs/prefstore/cmd/maintain"
	"github.com/spf13/cobra"
)

const (
	Version = "2.4.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:     "prefstore",
		Version: Version,
		Short:   "settings and state persistence store",
		Long: fmt.Sprintf(`prefstore (v%s)

A typed settings and state persistence store with dual storage areas,
bounded collections, quota health reporting and settings bundle
import/export.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of prefstore",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("prefstore v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(health.HealthCmd)
	RootCmd.AddCommand(maintain.MaintainCmd)
	RootCmd.AddCommand(bundle.BundleCommands)
	RootCmd.AddCommand(conflicts.ConflictsCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
