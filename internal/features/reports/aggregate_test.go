package reports

import (
	"math"
	"testing"
	"time"

	"usage-report-bot/internal/clients_api/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.April, day, hour, minute, 0, 0, time.UTC)
}

// sampleRows covers 2026-03-31 (previous day) and 2026-04-01 plus one row
// past the end of the day.
func sampleRows() []usage.Row {
	return []usage.Row{
		{App: "Twitter", Minutes: 60, RecordedAt: time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)},
		{App: "Chrome", Minutes: 40, RecordedAt: time.Date(2026, time.March, 31, 15, 0, 0, 0, time.UTC)},
		{App: "Twitter", Minutes: 30, RecordedAt: at(1, 8, 10)},
		{App: "Chrome", Minutes: 60, RecordedAt: at(1, 8, 40)},
		{App: "Twitter", Minutes: 90, RecordedAt: at(1, 20, 0)},
		{App: "Slack", Minutes: 10, RecordedAt: at(1, 23, 59)},
		{App: "Chrome", Minutes: math.NaN(), RecordedAt: at(1, 9, 0)},
		{App: "Slack", Minutes: -5, RecordedAt: at(1, 10, 0)},
		{App: "Mail", Minutes: 5, RecordedAt: at(2, 0, 0)},
	}
}

func TestTopAppsFoldsRemainder(t *testing.T) {
	rows := between(sampleRows(), at(1, 0, 0), at(2, 0, 0))

	labels, values := TopApps(rows, 2)
	assert.Equal(t, []string{"Twitter", "Chrome", OtherLabel}, labels)
	assert.Equal(t, []float64{120, 60, 10}, values)

	labels, values = TopApps(rows, 0)
	assert.Equal(t, []string{"Twitter", "Chrome", "Slack"}, labels)
	assert.Equal(t, []float64{120, 60, 10}, values)

	labels, _ = TopApps(rows, 3)
	assert.NotContains(t, labels, OtherLabel)

	labels, values = TopApps(nil, 5)
	assert.Empty(t, labels)
	assert.Empty(t, values)
}

func TestAppTotalsTieBreakByName(t *testing.T) {
	rows := []usage.Row{
		{App: "b", Minutes: 10, RecordedAt: at(1, 1, 0)},
		{App: "a", Minutes: 10, RecordedAt: at(1, 2, 0)},
		{App: "c", Minutes: 20, RecordedAt: at(1, 3, 0)},
	}
	labels, _ := TopApps(rows, 0)
	assert.Equal(t, []string{"c", "a", "b"}, labels)
}

func TestFoldApps(t *testing.T) {
	rows := between(sampleRows(), at(1, 0, 0), at(2, 0, 0))
	folded := FoldApps(rows, 1)
	require.Len(t, folded, len(rows))
	for i, r := range folded {
		if rows[i].App == "Twitter" {
			assert.Equal(t, "Twitter", r.App)
		} else {
			assert.Equal(t, OtherLabel, r.App)
		}
	}
	// input untouched
	assert.Equal(t, "Chrome", rows[1].App)

	assert.Equal(t, rows, FoldApps(rows, 5))
}

func TestHourlyByApp(t *testing.T) {
	labels, stacks := HourlyByApp(sampleRows(), at(1, 12, 0), time.UTC)

	require.Len(t, labels, 24)
	assert.Equal(t, "0", labels[0])
	assert.Equal(t, "23", labels[23])

	require.Len(t, stacks, 3)
	assert.Equal(t, "Twitter", stacks[0].Name)
	assert.Equal(t, "Chrome", stacks[1].Name)
	assert.Equal(t, "Slack", stacks[2].Name)
	for _, s := range stacks {
		assert.Len(t, s.Values, 24)
	}
	assert.Equal(t, 30.0, stacks[0].Values[8])
	assert.Equal(t, 90.0, stacks[0].Values[20])
	assert.Equal(t, 60.0, stacks[1].Values[8])
	assert.Equal(t, 0.0, stacks[1].Values[9], "NaN counts as zero")
	assert.Equal(t, 10.0, stacks[2].Values[23])
}

func TestHourlyByAppUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	rows := []usage.Row{{App: "Line", Minutes: 15, RecordedAt: time.Date(2026, time.April, 1, 0, 30, 0, 0, time.UTC)}}
	_, stacks := HourlyByApp(rows, time.Date(2026, time.April, 1, 12, 0, 0, 0, tokyo), tokyo)
	require.Len(t, stacks, 1)
	assert.Equal(t, 15.0, stacks[0].Values[9])
}

func TestDailyByAppAndTotals(t *testing.T) {
	from := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	labels, stacks := DailyByApp(sampleRows(), from, 2, time.UTC)
	assert.Equal(t, []string{"3/31", "4/1"}, labels)
	require.Len(t, stacks, 3)
	assert.Equal(t, "Twitter", stacks[0].Name)
	assert.Equal(t, []float64{60, 120}, stacks[0].Values)
	assert.Equal(t, []float64{40, 60}, stacks[1].Values)
	assert.Equal(t, []float64{0, 10}, stacks[2].Values)

	labels, totals := DailyTotals(sampleRows(), from, 2, time.UTC)
	assert.Equal(t, []string{"3/31", "4/1"}, labels)
	assert.Equal(t, []float64{100, 190}, totals)
}

func TestDailyBucketsAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08 is 23 hours long in New York
	rows := []usage.Row{
		{App: "a", Minutes: 1, RecordedAt: time.Date(2026, time.March, 8, 23, 30, 0, 0, ny)},
		{App: "a", Minutes: 2, RecordedAt: time.Date(2026, time.March, 9, 0, 30, 0, 0, ny)},
	}
	labels, totals := DailyTotals(rows, time.Date(2026, time.March, 7, 0, 0, 0, 0, ny), 3, ny)
	assert.Equal(t, []string{"3/7", "3/8", "3/9"}, labels)
	assert.Equal(t, []float64{0, 1, 2}, totals)
}

func TestPeak(t *testing.T) {
	i, v := peak([]float64{1, 7, 3})
	assert.Equal(t, 1, i)
	assert.Equal(t, 7.0, v)

	i, _ = peak(nil)
	assert.Equal(t, -1, i)
}
