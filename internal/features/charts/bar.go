package charts

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
)

const barPadding = 0.2

// RenderBarChart draws one bar per label in label order. Bars take their color
// from the palette by position and carry a value label when above zero.
func (r *Renderer) RenderBarChart(ctx context.Context, labels []string, values []float64, title string, axes Axes) (string, error) {
	ctx, span := r.startSpan(ctx, "bar", title)
	span.SetAttributes(attribute.Int("chart.points", len(values)))

	if len(labels) == 0 || len(values) == 0 {
		return r.renderFallback(ctx, span, "bar", title, MessageNoData)
	}
	if len(labels) != len(values) {
		return r.renderFallback(ctx, span, "bar", title, MessageInvalidData)
	}

	s := r.newSurface()
	plot := plotArea(s.width(), s.height(), defaultMargins)
	band := NewBandScale(labels, plot.x, plot.right(), barPadding)
	scale := NewLinearScale(maxOf(values), plot.bottom(), plot.y)

	drawTitle(s, title)
	drawAxes(s, plot, band, scale, axes)

	valueStyle := textStyle{size: valueLabelFontSize, color: textColor, align: alignCenter, anchor: baselineAlphabetic}
	for i, v := range values {
		v = clampValue(v)
		c := PaletteColor(i)
		h := scale.Height(v)
		x, y := band.Start(i), scale.Map(v)
		s.fillRect(x, y, band.Bandwidth(), h, c.Fill())
		s.strokeRect(x, y, band.Bandwidth(), h, c.Stroke(), 1)
		if v > 0 {
			s.text(formatValue(v), band.Center(i), y-4, valueStyle)
		}
	}

	return r.finish(ctx, span, s, "bar")
}

// clampValue maps negative and non-finite inputs to zero; bars and stacks start at the axis.
func clampValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v = clampValue(v); v > m {
			m = v
		}
	}
	return m
}
