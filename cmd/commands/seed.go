package commands

// Command to create the usage table and fill it with sample rows

import (
	"context"
	"fmt"
	"time"

	"usage-report-bot/internal/clients_api/usage"
	"usage-report-bot/internal/features/reports"
	logging "usage-report-bot/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the usage table and insert generated sample data",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().Int("days", 14, "days of history to generate, ending today")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, tp, err := setupRuntime(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")

	store, err := usage.Open(ctx, usage.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Table:  cfg.Database.Table,
		Schema: cfg.Database.Schema,
	})
	if err != nil {
		return fmt.Errorf("failed to open usage database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to create usage table: %w", err)
	}
	// include today so hourly reports have data
	rows := reports.SampleRows(time.Now().In(loc).AddDate(0, 0, 1), days+1, loc)
	if err := store.Insert(ctx, rows...); err != nil {
		return fmt.Errorf("failed to insert sample rows: %w", err)
	}

	logging.LogSuccess("Sample usage inserted", zap.Int("rows", len(rows)), zap.Int("days", days))
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows into %s\n", len(rows), cfg.Database.Table)
	return nil
}
