package charts

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackSegmentsSumToBucketTotal(t *testing.T) {
	stacks := []Stack{
		{Name: "A", Values: []float64{10, 0, 42}},
		{Name: "B", Values: []float64{30, 5, math.NaN()}},
		{Name: "C", Values: []float64{7.5, 2, -3}},
	}
	totals := bucketTotals(stacks, 3)
	assert.Equal(t, []float64{47.5, 7, 42}, totals)

	for _, v := range []stackedVariant{dailyStacked, hourlyStacked} {
		scale := v.valueScale(totals, 340, 50)
		for i := range totals {
			segs := stackSegments(stacks, i, scale)
			require.Len(t, segs, len(stacks))

			sum := 0.0
			for _, s := range segs {
				assert.GreaterOrEqual(t, s.h, 0.0)
				sum += s.h
			}
			assert.InDelta(t, scale.Height(totals[i]), sum, 1)

			// first stack sits on the axis, the last ends at the total
			assert.InDelta(t, scale.Map(0), segs[0].y+segs[0].h, 1e-9)
			assert.InDelta(t, scale.Map(totals[i]), segs[len(segs)-1].y, 1)
			for j := 1; j < len(segs); j++ {
				assert.InDelta(t, segs[j-1].y, segs[j].y+segs[j].h, 1e-9)
			}
		}
	}
}

func TestStackedValueScalePerVariant(t *testing.T) {
	totals := []float64{47.5, 7, 42}

	daily := dailyStacked.valueScale(totals, 340, 50)
	wantMax, wantStep := niceDomain(47.5, tickCount)
	assert.Equal(t, wantMax, daily.Max())
	assert.Equal(t, wantStep, daily.Step())
	assert.InDelta(t, 50, daily.Max(), 1e-9)

	hourly := hourlyStacked.valueScale(totals, 340, 50)
	assert.GreaterOrEqual(t, hourly.Max(), 1.1*47.5)
	assert.InDelta(t, 60, hourly.Max(), 1e-9)

	huge := hourlyStacked.valueScale([]float64{math.MaxFloat64}, 340, 50)
	assert.Equal(t, math.MaxFloat64, huge.Max())
}

func TestSegmentLabeledPerVariant(t *testing.T) {
	const total = 100.0
	cases := []struct {
		name       string
		seg        segment
		wantDaily  bool
		wantHourly bool
	}{
		{name: "large share and tall", seg: segment{value: 30, h: 40}, wantDaily: true, wantHourly: true},
		{name: "large share but short", seg: segment{value: 30, h: 10}},
		{name: "tall but small share", seg: segment{value: 5, h: 40}},
		{name: "between share thresholds", seg: segment{value: 12, h: 40}, wantDaily: true},
		{name: "between height thresholds", seg: segment{value: 30, h: 22}, wantDaily: true},
		{name: "share exactly at daily threshold", seg: segment{value: 10, h: 40}},
		{name: "height exactly at hourly threshold", seg: segment{value: 30, h: 25}, wantDaily: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantDaily, dailyStacked.segmentLabeled(tc.seg, total), "daily")
			assert.Equal(t, tc.wantHourly, hourlyStacked.segmentLabeled(tc.seg, total), "hourly")
		})
	}
}

func TestBucketTotalsSaturate(t *testing.T) {
	stacks := []Stack{
		{Name: "A", Values: []float64{1e308}},
		{Name: "B", Values: []float64{1e308}},
	}
	assert.Equal(t, []float64{math.MaxFloat64}, bucketTotals(stacks, 1))
}

func TestPieSlicesWithHugeValues(t *testing.T) {
	slices := pieSlices([]string{"a", "b"}, []float64{math.MaxFloat64, math.MaxFloat64})
	require.Len(t, slices, 2)
	assert.InDelta(t, 50, slices[0].percent, 1e-9)
	assert.InDelta(t, 50, slices[1].percent, 1e-9)
	assert.InDelta(t, math.Pi, slices[0].end, 1e-9)
}

func TestValidStacksDropsLengthMismatch(t *testing.T) {
	labels := []string{"4/1", "4/2"}
	stacks := []Stack{
		{Name: "A", Values: []float64{10, 0}},
		{Name: "B", Values: []float64{5}},
		{Name: "C", Values: []float64{1, 2, 3}},
	}
	valid := validStacks(labels, stacks)
	require.Len(t, valid, 1)
	assert.Equal(t, "A", valid[0].Name)
	assert.Equal(t, []float64{10, 0}, bucketTotals(valid, len(labels)))

	assert.Empty(t, validStacks(labels, stacks[1:]))
}

func TestPieSlices(t *testing.T) {
	slices := pieSlices([]string{"Twitter", "YouTube"}, []float64{120, 90})
	require.Len(t, slices, 2)

	assert.Equal(t, "57.1%", formatPercent(slices[0].percent))
	assert.Equal(t, "42.9%", formatPercent(slices[1].percent))
	assert.InDelta(t, 120.0/210.0*100, slices[0].percent, 1e-9)

	assert.Zero(t, slices[0].start)
	assert.InDelta(t, slices[0].end, slices[1].start, 1e-12)
	assert.InDelta(t, 2*math.Pi, slices[1].end, 1e-12)
	assert.Equal(t, PaletteColor(0), slices[0].color)
	assert.Equal(t, PaletteColor(1), slices[1].color)
}

func TestPieSlicesDropsNonPositive(t *testing.T) {
	slices := pieSlices([]string{"a", "b", "c", "d"}, []float64{0, -1, 5, math.NaN()})
	require.Len(t, slices, 1)
	assert.Equal(t, "c", slices[0].label)
	assert.InDelta(t, 100, slices[0].percent, 1e-9)

	assert.Empty(t, pieSlices([]string{"a"}, []float64{0}))
	assert.Empty(t, pieSlices(nil, nil))

	// extra labels are ignored
	slices = pieSlices([]string{"a", "b", "c"}, []float64{1, 3})
	require.Len(t, slices, 2)
	assert.Equal(t, "b", slices[1].label)
}

func TestPiePercentagesRoundToHundred(t *testing.T) {
	inputs := [][]float64{
		{1, 1, 1},
		{120, 90},
		{3, 7, 11, 13, 17, 19, 23},
		{0.1, 1000},
	}
	for _, values := range inputs {
		labels := make([]string, len(values))
		slices := pieSlices(labels, values)

		sum := 0.0
		for _, s := range slices {
			shown, err := strconv.ParseFloat(formatValue(s.percent), 64)
			require.NoError(t, err)
			sum += shown
		}
		// each displayed percentage is off by at most 0.05
		assert.InDelta(t, 100, sum, 0.05*float64(len(slices)))
	}
}

func TestLineLabelIndexesShortSeriesLabelsAll(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4}, lineLabelIndexes([]float64{3, 1, 4, 1, 5}))
	assert.Len(t, lineLabelIndexes(make([]float64, 12)), 12)
	assert.Empty(t, lineLabelIndexes(nil))
}

func TestLineLabelIndexesLongSeries(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i)
	}
	got := lineLabelIndexes(values)
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 23}, got)

	values[5] = 100 // peak, then a trough right after it
	got = lineLabelIndexes(values)
	assert.Contains(t, got, 5)
	assert.Contains(t, got, 6)
	assert.IsIncreasing(t, got)
	assert.Equal(t, got, lineLabelIndexes(values))
}

func TestDecimateLabels(t *testing.T) {
	assert.Nil(t, decimateLabels(0))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, decimateLabels(7))
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12}, decimateLabels(13))

	got := decimateLabels(24)
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 23}, got)

	got = decimateLabels(31)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 30, got[len(got)-1])
	assert.LessOrEqual(t, len(got), maxAxisLabels+1)
}

func TestLegendCapacity(t *testing.T) {
	box := rect{h: 290}

	shown, hidden := legendCapacity(10, box)
	assert.Equal(t, 10, shown)
	assert.Zero(t, hidden)

	shown, hidden = legendCapacity(20, box)
	assert.Equal(t, 13, shown)
	assert.Equal(t, 7, hidden)

	shown, hidden = legendCapacity(3, rect{h: 15})
	assert.Zero(t, shown)
	assert.Equal(t, 3, hidden)
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Twitter", truncateName("Twitter", hourlyLegendMaxChars))
	assert.Equal(t, "VeryLongApplica…", truncateName("VeryLongApplicationName", hourlyLegendMaxChars))
	assert.Equal(t, "微信微信微信微信微信微信微信微…", truncateName("微信微信微信微信微信微信微信微信", hourlyLegendMaxChars))
	assert.Equal(t, "VeryLongApplicationName", truncateName("VeryLongApplicationName", 0))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0", formatTick(0))
	assert.Equal(t, "0", formatTick(-0.01))
	assert.Equal(t, "2.5", formatTick(2.5))
	assert.Equal(t, "10", formatTick(10))
	assert.Equal(t, "0.3", formatTick(0.30000000000000004))

	assert.Equal(t, "120.0", formatValue(120))
	assert.Equal(t, "57.1", formatValue(57.142857))

	assert.Equal(t, "1.8e+308", formatValue(math.MaxFloat64))
	assert.Equal(t, "5e+307", formatTick(5e307))
}

func TestColorAlpha(t *testing.T) {
	c := PaletteColor(0)
	assert.Equal(t, uint8(153), c.Fill().A)
	assert.Equal(t, uint8(255), c.Stroke().A)
	assert.Equal(t, c.Fill().R, c.Stroke().R)

	assert.Equal(t, PaletteColor(0), PaletteColor(7))
	assert.Equal(t, uint8(0), c.WithFillAlpha(-1).Fill().A)

	// the line area is the second series color, mostly transparent
	assert.Equal(t, PaletteColor(1).Stroke(), lineColor.Stroke())
	assert.Equal(t, uint8(51), lineColor.Fill().A)
}
