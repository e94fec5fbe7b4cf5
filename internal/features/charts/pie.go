package charts

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
)

const (
	pieRadius  = 155.0
	pieCenterX = 225.0
	pieCenterY = 215.0

	pieLegendGap      = 50.0
	pieLegendMaxChars = 24
	// pieInlineMinPercent is the smallest slice that gets its percentage drawn inside.
	pieInlineMinPercent = 8.0
)

type pieSlice struct {
	label   string
	value   float64
	percent float64
	start   float64 // radians, clockwise from 3 o'clock
	end     float64
	color   Color
}

// pieSlices zips labels and values, drops non-positive values and lays the rest
// out in input order starting at angle 0. Extra labels or values are ignored.
func pieSlices(labels []string, values []float64) []pieSlice {
	n := min(len(labels), len(values))
	slices := make([]pieSlice, 0, n)
	largest := 0.0
	for i := 0; i < n; i++ {
		v := clampValue(values[i])
		if v <= 0 {
			continue
		}
		slices = append(slices, pieSlice{label: labels[i], value: v})
		largest = math.Max(largest, v)
	}
	if len(slices) == 0 {
		return nil
	}

	// shares are summed relative to the largest slice so huge values cannot overflow
	total := 0.0
	for _, sl := range slices {
		total += sl.value / largest
	}
	angle := 0.0
	for i := range slices {
		share := slices[i].value / largest / total
		slices[i].percent = share * 100
		slices[i].start = angle
		angle += 2 * math.Pi * share
		slices[i].end = angle
		slices[i].color = PaletteColor(i)
	}
	slices[len(slices)-1].end = 2 * math.Pi
	return slices
}

// RenderPieChart draws a pie of the positive values with a legend listing
// each slice's value and share of the total.
func (r *Renderer) RenderPieChart(ctx context.Context, labels []string, values []float64, title string) (string, error) {
	ctx, span := r.startSpan(ctx, "pie", title)

	slices := pieSlices(labels, values)
	span.SetAttributes(attribute.Int("chart.slices", len(slices)))
	if len(slices) == 0 {
		return r.renderFallback(ctx, span, "pie", title, MessageNoData)
	}

	s := r.newSurface()
	drawTitle(s, title)

	inside := textStyle{size: valueLabelFontSize, bold: true, color: textColor, align: alignCenter, anchor: baselineMiddle}
	for _, sl := range slices {
		s.wedge(pieCenterX, pieCenterY, pieRadius, sl.start, sl.end, sl.color.Fill(), sliceBorder, 2)
	}
	for _, sl := range slices {
		if sl.percent < pieInlineMinPercent {
			continue
		}
		mid := (sl.start + sl.end) / 2
		x := pieCenterX + math.Cos(mid)*pieRadius*0.65
		y := pieCenterY + math.Sin(mid)*pieRadius*0.65
		s.text(formatPercent(sl.percent), x, y, inside)
	}

	entries := make([]legendEntry, len(slices))
	for i, sl := range slices {
		name := truncateName(sl.label, pieLegendMaxChars)
		entries[i] = legendEntry{label: r.pieLegendLabel(name, sl), color: sl.color}
	}
	legendX := pieCenterX + pieRadius + pieLegendGap
	legendH := legendRowHeight * float64(len(entries))
	top := math.Max(defaultMargins.top, pieCenterY-legendH/2)
	drawLegend(s, entries, legendLayout{
		box: rect{x: legendX, y: top, w: s.width() - legendX - defaultMargins.right, h: s.height() - top - 10},
	})

	return r.finish(ctx, span, s, "pie")
}

// pieLegendLabel renders "Twitter: 120.0 min (57.1%)".
func (r *Renderer) pieLegendLabel(name string, sl pieSlice) string {
	return fmt.Sprintf("%s: %s %s (%s)", name, formatValue(sl.value), r.unit, formatPercent(sl.percent))
}

func formatPercent(p float64) string {
	return formatValue(p) + "%"
}
