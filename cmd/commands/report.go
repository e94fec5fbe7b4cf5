package commands

// Command to build and deliver a single report now

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"usage-report-bot/internal/features/reports"
	logging "usage-report-bot/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send one report for the last complete period",
	Example: `  usage-report-bot report --kind daily
  usage-report-bot report --kind weekly --force`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("kind", string(reports.KindDaily), "report kind: hourly, daily or weekly")
	reportCmd.Flags().Bool("force", false, "send even if the period was already sent")
}

func runReport(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := reports.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	report, err := a.runner.Run(ctx, kind, force)
	if errors.Is(err, reports.ErrAlreadySent) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s report already sent, use --force to send again\n", kind)
		return nil
	}
	if err != nil {
		logging.LogError("Report failed", zap.String("kind", string(kind)), zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d charts)\n", report.Title, len(report.Charts))
	for _, c := range report.Charts {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", c.Name, c.URL)
	}
	return nil
}
