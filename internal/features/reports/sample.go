package reports

import (
	"math"
	"time"

	"usage-report-bot/internal/clients_api/usage"
)

var sampleApps = []struct {
	name   string
	weight float64
}{
	{"Chrome", 1.0},
	{"Slack", 0.7},
	{"VS Code", 0.8},
	{"Twitter", 0.45},
	{"Spotify", 0.35},
	{"Mail", 0.25},
	{"Zoom", 0.2},
}

// SampleRows generates a deterministic usage history for the days before
// end: one row per app per active hour, with a daytime peak and quieter
// weekends. Used by the render preview and the seed command.
func SampleRows(end time.Time, days int, loc *time.Location) []usage.Row {
	if loc == nil {
		loc = time.Local
	}
	start := startOfDay(end, loc).AddDate(0, 0, -days)

	var rows []usage.Row
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		dayFactor := 1.0
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			dayFactor = 0.55
		}
		for h := 7; h < 24; h++ {
			// bell around 14:00
			hourFactor := math.Exp(-math.Pow(float64(h)-14, 2) / 18)
			for i, app := range sampleApps {
				minutes := 60 * app.weight * hourFactor * dayFactor * (0.8 + 0.05*float64((d+h+i)%5))
				minutes = math.Round(minutes*10) / 10
				if minutes < 1 {
					continue
				}
				rows = append(rows, usage.Row{
					App:        app.name,
					Minutes:    math.Min(minutes, 60),
					RecordedAt: time.Date(day.Year(), day.Month(), day.Day(), h, (i*7)%60, 0, 0, loc),
				})
			}
		}
	}
	return rows
}
