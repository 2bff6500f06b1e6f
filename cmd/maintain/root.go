package maintain

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orrlabs/prefstore/cmd/util"
	"github.com/orrlabs/prefstore/lib/maintenance"
	"github.com/orrlabs/prefstore/lib/quota"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (

	// MaintainCmd represents the maintain command
	MaintainCmd = &cobra.Command{
		Use:   "maintain",
		Short: "Run the maintenance pass (expire, trim, compact, health report)",
		RunE:  runMaintain,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common storage flags
	util.SetupStorageFlags(MaintainCmd)

	MaintainCmd.Flags().Bool("json", false, util.WrapString("print the result as JSON"))
	MaintainCmd.Flags().Duration("every", 0, util.WrapString("keep running and repeat the pass at this interval (for example 1h); 0 runs once and exits"))
}

func runMaintain(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	store, closeStore, err := util.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	runner := maintenance.NewRunner(store, quota.NewMonitor(store))

	if interval := viper.GetDuration("every"); interval > 0 {
		return runPeriodic(runner, interval)
	}

	result := runner.Run()
	return printResult(result)
}

func runPeriodic(runner *maintenance.Runner, interval time.Duration) error {
	scheduler, err := maintenance.NewScheduler(runner)
	if err != nil {
		return err
	}
	if err := scheduler.Start(interval); err != nil {
		return err
	}

	// block until interrupted
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	return scheduler.Stop()
}

func printResult(result maintenance.Result) error {
	if viper.GetBool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	for collection, count := range result.Expired {
		fmt.Printf("expired %d entries from %s\n", count, collection)
	}
	fmt.Printf("freed %d bytes, compacted %d value(s)\n", result.FreedBytes, result.Compacted)
	fmt.Printf("health: %s\n", result.Report.Status)
	for _, stepErr := range result.Errors {
		fmt.Printf("step %q failed: %s\n", stepErr.Step, stepErr.Err)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d maintenance step(s) failed", len(result.Errors))
	}
	return nil
}
