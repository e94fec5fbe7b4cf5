package charts

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%02d", i)
	}
	return out
}

func TestBandScaleBandsIncreaseWithoutOverlap(t *testing.T) {
	for _, n := range []int{1, 2, 7, 24, 31} {
		for _, padding := range []float64{0, 0.1, 0.15, 0.2} {
			t.Run(fmt.Sprintf("n=%d/p=%.2f", n, padding), func(t *testing.T) {
				b := NewBandScale(hourLabels(n), 70, 620, padding)
				require.Equal(t, n, b.Len())
				assert.Greater(t, b.Bandwidth(), 0.0)

				for i := 1; i < n; i++ {
					assert.Greater(t, b.Start(i), b.Start(i-1))
					assert.LessOrEqual(t, b.End(i-1), b.Start(i)+1e-9)
				}
				assert.GreaterOrEqual(t, b.Start(0), 70.0)
				assert.LessOrEqual(t, b.End(n-1), 620.0+1e-9)

				// outer gaps are equal on both sides
				assert.InDelta(t, b.Start(0)-70, 620-b.End(n-1), 1e-9)
			})
		}
	}
}

func TestBandScaleEmptyAndCenters(t *testing.T) {
	empty := NewBandScale(nil, 0, 100, 0.2)
	assert.Equal(t, 0, empty.Len())
	assert.Zero(t, empty.Bandwidth())

	b := NewBandScale([]string{"Mon", "Tue", "Mon"}, 0, 300, 0)
	assert.InDelta(t, 100, b.Bandwidth(), 1e-9)
	assert.InDelta(t, 150, b.Center(1), 1e-9)
	assert.Equal(t, "Mon", b.Label(2))
}

func TestLinearScaleNiceDomain(t *testing.T) {
	cases := []struct {
		name     string
		dataMax  float64
		wantMax  float64
		wantStep float64
	}{
		{name: "exact", dataMax: 65, wantMax: 70, wantStep: 10},
		{name: "rounds up", dataMax: 123, wantMax: 140, wantStep: 20},
		{name: "all zero", dataMax: 0, wantMax: 10, wantStep: 2},
		{name: "negative", dataMax: -5, wantMax: 10, wantStep: 2},
		{name: "nan", dataMax: math.NaN(), wantMax: 10, wantStep: 2},
		{name: "inf", dataMax: math.Inf(1), wantMax: 10, wantStep: 2},
		{name: "small", dataMax: 0.7, wantMax: 0.7, wantStep: 0.1},
		{name: "below one tick step", dataMax: 0.3, wantMax: 0.3, wantStep: 0.1},
		{name: "tiny", dataMax: 0.01, wantMax: 0.1, wantStep: 0.1},
		{name: "max float", dataMax: math.MaxFloat64, wantMax: math.MaxFloat64, wantStep: 5e307},
		{name: "near max float", dataMax: 1.6e308, wantMax: 1.6e308, wantStep: 5e307},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewLinearScale(tc.dataMax, 340, 50)
			assert.InEpsilon(t, tc.wantMax, s.Max(), 1e-9)
			assert.InEpsilon(t, tc.wantStep, s.Step(), 1e-9)
			assert.False(t, math.IsInf(s.Max(), 0))
			if !math.IsNaN(tc.dataMax) && tc.dataMax > 0 && !math.IsInf(tc.dataMax, 0) {
				assert.GreaterOrEqual(t, s.Max(), tc.dataMax)
			}
		})
	}
}

func TestLinearScaleMapping(t *testing.T) {
	s := NewLinearScale(65, 340, 50)

	assert.InDelta(t, 340, s.Map(0), 1e-9)
	assert.InDelta(t, 50, s.Map(s.Max()), 1e-9)
	assert.InDelta(t, 195, s.Map(35), 1e-9)
	assert.Less(t, s.Map(65), s.Map(59))

	// bar heights stay proportional to their values
	assert.InDelta(t, 65.0/59.0, s.Height(65)/s.Height(59), 1e-9)
}

func TestLinearScaleTicks(t *testing.T) {
	s := NewLinearScale(0, 340, 50)
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, s.Ticks())

	s = NewLinearScale(65, 340, 50)
	ticks := s.Ticks()
	require.Len(t, ticks, 8)
	assert.Equal(t, 0.0, ticks[0])
	assert.InDelta(t, 70, ticks[len(ticks)-1], 1e-9)
}

func TestLinearScaleTicksStayFiniteAndDistinct(t *testing.T) {
	for _, dataMax := range []float64{0.3, 0.05, 1e308, 1.6e308, math.MaxFloat64} {
		t.Run(fmt.Sprint(dataMax), func(t *testing.T) {
			s := NewLinearScale(dataMax, 340, 50)
			ticks := s.Ticks()
			require.NotEmpty(t, ticks)

			seen := map[string]bool{}
			for _, v := range ticks {
				assert.False(t, math.IsInf(v, 0))
				assert.LessOrEqual(t, v, s.Max()*(1+1e-9))
				label := formatTick(v)
				assert.False(t, seen[label], "repeated tick label %q", label)
				seen[label] = true
			}
		})
	}

	s := NewLinearScale(0.3, 340, 50)
	labels := make([]string, 0, 4)
	for _, v := range s.Ticks() {
		labels = append(labels, formatTick(v))
	}
	assert.Equal(t, []string{"0", "0.1", "0.2", "0.3"}, labels)
}

func TestHeadroomAndSumsSaturate(t *testing.T) {
	assert.InDelta(t, 110, withHeadroom(100, 1.1), 1e-9)
	assert.Equal(t, math.MaxFloat64, withHeadroom(math.MaxFloat64, 1.1))
	assert.Equal(t, 3.0, addSaturating(1, 2))
	assert.Equal(t, math.MaxFloat64, addSaturating(1e308, 1e308))
}
