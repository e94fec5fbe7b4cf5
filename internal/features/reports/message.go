package reports

import (
	"fmt"
	"math"
	"strings"
	"time"

	"usage-report-bot/internal/clients_api/usage"
	"usage-report-bot/internal/features/charts"

	"github.com/dustin/go-humanize"
)

func titleFor(p Period, loc *time.Location) string {
	switch p.Kind {
	case KindHourly:
		return fmt.Sprintf("Hourly usage report · %s until %s",
			p.From.In(loc).Format("Mon, Jan 2"), p.To.In(loc).Format("15:04"))
	case KindDaily:
		return "Daily usage report · " + p.From.In(loc).Format("Mon, Jan 2 2006")
	default:
		return fmt.Sprintf("Weekly usage report · %s – %s",
			p.From.In(loc).Format("Jan 2"), p.To.AddDate(0, 0, -1).In(loc).Format("Jan 2 2006"))
	}
}

func formatMinutes(v float64, unit string) string {
	return humanize.CommafWithDigits(math.Round(v*10)/10, 1) + " " + unit
}

func formatChange(cur, prev float64) string {
	if prev <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", (cur-prev)/prev*100)
}

// BuildSummary renders the plain-text report body. rows may extend before
// p.From; only the comparison window is read from that part.
func BuildSummary(p Period, rows []usage.Row, topN int, unit string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	current := between(rows, p.From, p.To)
	total := totalMinutes(current)
	apps := appTotals(current)

	var b strings.Builder
	b.WriteString(titleFor(p, loc))
	b.WriteString("\n\n")

	if len(current) == 0 {
		b.WriteString("No usage recorded in this period.")
		return b.String()
	}

	fmt.Fprintf(&b, "Total: %s across %s\n", formatMinutes(total, unit), pluralApps(len(apps)))

	switch p.Kind {
	case KindHourly:
		last := totalMinutes(between(current, p.To.Add(-time.Hour), p.To))
		fmt.Fprintf(&b, "Last hour: %s\n", formatMinutes(last, unit))
		_, stacks := HourlyByApp(current, p.From, loc)
		if h, v := peak(stackTotals(stacks, 24)); h >= 0 && v > 0 {
			fmt.Fprintf(&b, "Peak hour: %02d:00 (%s)\n", h, formatMinutes(v, unit))
		}
	case KindDaily:
		if from, to, ok := p.Previous(); ok {
			prev := totalMinutes(between(rows, from, to))
			fmt.Fprintf(&b, "vs previous day: %s\n", formatChange(total, prev))
		}
	case KindWeekly:
		labels, daily := DailyTotals(current, p.From, p.Days(), loc)
		fmt.Fprintf(&b, "Daily average: %s\n", formatMinutes(total/float64(p.Days()), unit))
		if i, v := peak(daily); i >= 0 && v > 0 {
			fmt.Fprintf(&b, "Busiest day: %s (%s)\n", labels[i], formatMinutes(v, unit))
		}
		if from, to, ok := p.Previous(); ok {
			prev := totalMinutes(between(rows, from, to))
			fmt.Fprintf(&b, "vs previous week: %s\n", formatChange(total, prev))
		}
	}

	labels, values := TopApps(current, topN)
	b.WriteString("\nTop apps:\n")
	for i, name := range labels {
		share := 0.0
		if total > 0 {
			share = values[i] / total * 100
		}
		fmt.Fprintf(&b, "%d. %s: %s (%.1f%%)\n", i+1, name, formatMinutes(values[i], unit), share)
	}
	return strings.TrimRight(b.String(), "\n")
}

func pluralApps(n int) string {
	if n == 1 {
		return "1 app"
	}
	return humanize.Comma(int64(n)) + " apps"
}

func stackTotals(stacks []charts.Stack, buckets int) []float64 {
	totals := make([]float64, buckets)
	for _, s := range stacks {
		for i := 0; i < buckets && i < len(s.Values); i++ {
			totals[i] += s.Values[i]
		}
	}
	return totals
}
