package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard statistics",
	Long: `Compute every dashboard statistic over the current snapshot.

Examples:
  protask stats
  protask stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	d := aggregate.Compute(snap, time.Now())

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	printDashboard(d)
	return nil
}
