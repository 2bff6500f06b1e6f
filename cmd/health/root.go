package health

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orrlabs/prefstore/cmd/util"
	"github.com/orrlabs/prefstore/lib/kv"
	"github.com/orrlabs/prefstore/lib/quota"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (

	// HealthCmd represents the health command group
	HealthCmd = &cobra.Command{
		Use:   "health",
		Short: "Report quota usage and store health",
		RunE:  runHealth,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common storage flags
	util.SetupStorageFlags(HealthCmd)

	HealthCmd.Flags().Bool("json", false, util.WrapString("print the full report as JSON"))
	HealthCmd.Flags().Float64("threshold", 0, util.WrapString("near-quota warning threshold in percent (0 uses the default)"))
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	store, closeStore, err := util.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	monitor := quota.NewMonitor(store)
	report, err := monitor.Report()
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Printf("status: %s\n", report.Status)
	for _, au := range []quota.AreaUsage{report.Usage.Local, report.Usage.Sync} {
		fmt.Printf("%-5s area: %d/%d bytes (%.1f%%)\n",
			au.Area, au.UsedBytes, au.QuotaBytes, au.UsedPercent)
	}
	fmt.Printf("total: %d bytes across %d keys (median %dB, p95 %dB)\n",
		report.Usage.Total, report.SampledKeys, report.MedianBytes, report.P95Bytes)
	for _, issue := range report.Issues {
		fmt.Printf("issue: %s\n", issue)
	}

	threshold := viper.GetFloat64("threshold")
	for _, area := range []kv.AreaName{kv.AreaLocal, kv.AreaSync} {
		status, err := monitor.IsNearQuota(area, threshold)
		if err != nil {
			return err
		}
		for _, rec := range status.Recommendations {
			fmt.Printf("recommendation: %s (%s, %d bytes)\n", rec.Action, rec.Key, rec.Bytes)
		}
	}
	return nil
}
