package commands

// Command to run the scheduled report bot
// Catches up on missed daily/weekly reports, then runs the scheduler
// Implements graceful shutdown for proper termination

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"usage-report-bot/bots_monitor"
	logging "usage-report-bot/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the report scheduler (hourly, daily and weekly reports)",
	Long:  `Run the bot: hourly reports at minute 0 when enabled, daily reports at schedule.daily_time and weekly reports on schedule.weekly_day.`,
	RunE:  runBot,
}

func init() {
	botCmd.Flags().Bool("schedule.hourly", false, "also send hourly reports")
	botCmd.Flags().String("schedule.daily_time", "", "daily report time, HH:MM")
	botCmd.Flags().String("schedule.weekly_day", "", "weekly report day")
	botCmd.Flags().Bool("no-catch-up", false, "do not send missed reports on startup")
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	schedule, err := bots_monitor.ScheduleFromConfig(a.cfg.Schedule)
	if err != nil {
		return err
	}
	monitor := bots_monitor.NewReportMonitor(a.runner, schedule, a.loc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if skip, _ := cmd.Flags().GetBool("no-catch-up"); !skip {
			monitor.CatchUp(ctx)
		}
		monitor.Run(ctx)
	}()

	logging.LogSuccess("Report bot is running",
		zap.Bool("hourly", schedule.Hourly),
		zap.String("dailyTime", a.cfg.Schedule.DailyTime),
		zap.String("weeklyDay", schedule.WeeklyDay.String()))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, gracefully stopping report monitor...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Report monitor stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for report monitor to stop, forcing shutdown")
	}
	return nil
}
