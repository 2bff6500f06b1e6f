package conflicts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orrlabs/prefstore/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (

	// ConflictsCmd represents the conflicts command
	ConflictsCmd = &cobra.Command{
		Use:   "conflicts",
		Short: "Detect keyboard shortcut conflicts",
		RunE:  runConflicts,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common storage flags
	util.SetupStorageFlags(ConflictsCmd)

	ConflictsCmd.Flags().Bool("json", false, util.WrapString("print the conflict list as JSON"))
}

func runConflicts(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	store, closeStore, err := util.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	detected, err := store.DetectShortcutConflicts()
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(detected)
	}

	if len(detected) == 0 {
		fmt.Println("no conflicts")
		return nil
	}
	for _, conflict := range detected {
		fmt.Printf("%s: %q and %q both use %s\n",
			conflict.Severity, conflict.First, conflict.Second, conflict.Keys)
	}
	return nil
}
