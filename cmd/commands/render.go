package commands

// Command to render every chart kind from generated sample data
// Useful to check fonts, colors and layout without a database

import (
	"context"
	"fmt"
	"time"

	"usage-report-bot/internal/features/charts"
	"usage-report-bot/internal/features/reports"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render sample bar, pie, line, stacked and fallback charts",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().String("out", "", "output directory (default: app.output_dir)")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, tp, err := setupRuntime(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.App.OutputDir = out
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	rows := reports.SampleRows(now, 7, loc)
	weekStart := now.AddDate(0, 0, -7)
	yesterday := now.AddDate(0, 0, -1)
	axes := func(x string) charts.Axes { return charts.Axes{Y: "Usage (" + cfg.App.ValueUnit + ")", X: x} }

	barLabels, barValues := reports.TopApps(rows, 10)
	pieLabels, pieValues := reports.TopApps(rows, cfg.Schedule.TopApps)
	dayLabels, dayTotals := reports.DailyTotals(rows, weekStart, 7, loc)
	_, dayStacks := reports.DailyByApp(reports.FoldApps(rows, cfg.Schedule.TopApps), weekStart, 7, loc)
	hourLabels, hourStacks := reports.HourlyByApp(rows, yesterday, loc)

	jobs := []struct {
		name   string
		render func() (string, error)
	}{
		{"bar", func() (string, error) {
			return renderer.RenderBarChart(ctx, barLabels, barValues, "Usage by app", axes("App"))
		}},
		{"pie", func() (string, error) { return renderer.RenderPieChart(ctx, pieLabels, pieValues, "Top apps") }},
		{"line", func() (string, error) {
			return renderer.RenderLineChart(ctx, dayLabels, dayTotals, "Daily total", axes("Day"))
		}},
		{"stacked", func() (string, error) {
			return renderer.RenderStackedBarChart(ctx, dayLabels, dayStacks, "Daily usage by app", axes("Day"))
		}},
		{"hourly_stacked", func() (string, error) {
			return renderer.RenderHourlyStackedBarChart(ctx, hourLabels, hourStacks, "Usage by hour", axes("Hour"))
		}},
		{"fallback", func() (string, error) {
			return renderer.RenderFallback(ctx, "Usage by app", charts.MessageNoData)
		}},
	}

	for _, job := range jobs {
		path, err := job.render()
		if err != nil {
			return fmt.Errorf("render %s: %w", job.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", job.name, path)
	}
	return nil
}
