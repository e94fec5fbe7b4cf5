package reports

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"usage-report-bot/internal/clients_api/usage"
	"usage-report-bot/internal/features/charts"

	"gonum.org/v1/gonum/floats"
)

// OtherLabel collects the apps that do not make the top-N cut.
const OtherLabel = "Other"

type appTotal struct {
	app   string
	total float64
}

func minutesOf(r usage.Row) float64 {
	if math.IsNaN(r.Minutes) || math.IsInf(r.Minutes, 0) || r.Minutes < 0 {
		return 0
	}
	return r.Minutes
}

func between(rows []usage.Row, from, to time.Time) []usage.Row {
	out := make([]usage.Row, 0, len(rows))
	for _, r := range rows {
		if !r.RecordedAt.Before(from) && r.RecordedAt.Before(to) {
			out = append(out, r)
		}
	}
	return out
}

// appTotals sums minutes per app, largest first, ties by name. Apps with
// no positive usage are left out.
func appTotals(rows []usage.Row) []appTotal {
	sums := make(map[string]float64)
	for _, r := range rows {
		sums[r.App] += minutesOf(r)
	}
	out := make([]appTotal, 0, len(sums))
	for app, total := range sums {
		if total > 0 {
			out = append(out, appTotal{app: app, total: total})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].total != out[j].total {
			return out[i].total > out[j].total
		}
		return out[i].app < out[j].app
	})
	return out
}

func totalMinutes(rows []usage.Row) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = minutesOf(r)
	}
	return floats.Sum(values)
}

// FoldApps renames every app outside the n largest to OtherLabel.
// n <= 0 or n >= number of apps returns rows unchanged.
func FoldApps(rows []usage.Row, n int) []usage.Row {
	totals := appTotals(rows)
	if n <= 0 || len(totals) <= n {
		return rows
	}
	keep := make(map[string]bool, n)
	for _, t := range totals[:n] {
		keep[t.app] = true
	}
	out := make([]usage.Row, len(rows))
	for i, r := range rows {
		out[i] = r
		if !keep[r.App] {
			out[i].App = OtherLabel
		}
	}
	return out
}

// TopApps returns the n largest apps by total minutes. When more apps exist
// the rest are summed into a trailing OtherLabel entry.
func TopApps(rows []usage.Row, n int) ([]string, []float64) {
	totals := appTotals(rows)
	if n <= 0 || n > len(totals) {
		n = len(totals)
	}
	labels := make([]string, 0, n+1)
	values := make([]float64, 0, n+1)
	for _, t := range totals[:n] {
		labels = append(labels, t.app)
		values = append(values, t.total)
	}
	if rest := totals[n:]; len(rest) > 0 {
		other := make([]float64, len(rest))
		for i, t := range rest {
			other[i] = t.total
		}
		labels = append(labels, OtherLabel)
		values = append(values, floats.Sum(other))
	}
	return labels, values
}

// HourlyByApp buckets the rows of the local day containing day into 24 hour
// buckets, one stack per app.
func HourlyByApp(rows []usage.Row, day time.Time, loc *time.Location) ([]string, []charts.Stack) {
	if loc == nil {
		loc = time.Local
	}
	start := startOfDay(day, loc)
	rows = between(rows, start, start.AddDate(0, 0, 1))

	labels := make([]string, 24)
	for h := range labels {
		labels[h] = strconv.Itoa(h)
	}
	return labels, stacksBy(rows, 24, func(r usage.Row) int {
		return r.RecordedAt.In(loc).Hour()
	})
}

// DailyByApp buckets rows into days calendar days starting at from's local
// midnight, one stack per app. Labels are "M/D".
func DailyByApp(rows []usage.Row, from time.Time, days int, loc *time.Location) ([]string, []charts.Stack) {
	labels, index := dayBuckets(from, days, loc)
	return labels, stacksBy(rows, days, index)
}

// DailyTotals is DailyByApp summed over apps.
func DailyTotals(rows []usage.Row, from time.Time, days int, loc *time.Location) ([]string, []float64) {
	labels, index := dayBuckets(from, days, loc)
	totals := make([]float64, max(days, 0))
	for _, r := range rows {
		if i := index(r); i >= 0 {
			totals[i] += minutesOf(r)
		}
	}
	return labels, totals
}

// dayBuckets returns day labels and a row → bucket index function (-1 when
// outside the window). Bounds come from AddDate so DST days stay aligned.
func dayBuckets(from time.Time, days int, loc *time.Location) ([]string, func(usage.Row) int) {
	if loc == nil {
		loc = time.Local
	}
	if days < 0 {
		days = 0
	}
	start := startOfDay(from, loc)
	bounds := make([]time.Time, days+1)
	labels := make([]string, days)
	for i := range bounds {
		bounds[i] = start.AddDate(0, 0, i)
		if i < days {
			labels[i] = fmt.Sprintf("%d/%d", int(bounds[i].Month()), bounds[i].Day())
		}
	}
	index := func(r usage.Row) int {
		if days == 0 || r.RecordedAt.Before(bounds[0]) || !r.RecordedAt.Before(bounds[days]) {
			return -1
		}
		// first bound strictly after the timestamp, minus one
		return sort.Search(days+1, func(i int) bool { return bounds[i].After(r.RecordedAt) }) - 1
	}
	return labels, index
}

func stacksBy(rows []usage.Row, buckets int, index func(usage.Row) int) []charts.Stack {
	var inWindow []usage.Row
	for _, r := range rows {
		if i := index(r); i >= 0 && i < buckets {
			inWindow = append(inWindow, r)
		}
	}
	totals := appTotals(inWindow)
	pos := make(map[string]int, len(totals))
	stacks := make([]charts.Stack, len(totals))
	for i, t := range totals {
		pos[t.app] = i
		stacks[i] = charts.Stack{Name: t.app, Values: make([]float64, buckets)}
	}
	for _, r := range inWindow {
		if i, ok := pos[r.App]; ok {
			stacks[i].Values[index(r)] += minutesOf(r)
		}
	}
	return stacks
}

// peak returns the index and value of the largest entry, -1 when empty.
func peak(values []float64) (int, float64) {
	if len(values) == 0 {
		return -1, 0
	}
	i := floats.MaxIdx(values)
	return i, values[i]
}
