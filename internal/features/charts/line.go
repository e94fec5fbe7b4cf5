package charts

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
)

const (
	linePadding     = 0.1
	lineHeadroom    = 1.1
	lineWidth       = 2.0
	linePointRadius = 4.0
)

// RenderLineChart draws the series as a polyline over a filled area. Points
// are marked with circles and labeled following lineLabelIndexes.
func (r *Renderer) RenderLineChart(ctx context.Context, labels []string, values []float64, title string, axes Axes) (string, error) {
	ctx, span := r.startSpan(ctx, "line", title)
	span.SetAttributes(attribute.Int("chart.points", len(values)))

	if len(labels) == 0 || len(values) == 0 {
		return r.renderFallback(ctx, span, "line", title, MessageNoData)
	}
	if len(labels) != len(values) {
		return r.renderFallback(ctx, span, "line", title, MessageInvalidData)
	}

	s := r.newSurface()
	plot := plotArea(s.width(), s.height(), defaultMargins)
	band := NewBandScale(labels, plot.x, plot.right(), linePadding)
	scale := NewLinearScale(withHeadroom(maxOf(values), lineHeadroom), plot.bottom(), plot.y)

	drawTitle(s, title)
	drawAxes(s, plot, band, scale, axes)

	pts := make([]point, len(values))
	for i, v := range values {
		pts[i] = point{X: band.Center(i), Y: scale.Map(clampValue(v))}
	}

	area := make([]point, 0, len(pts)+2)
	area = append(area, point{X: pts[0].X, Y: plot.bottom()})
	area = append(area, pts...)
	area = append(area, point{X: pts[len(pts)-1].X, Y: plot.bottom()})
	s.fillPolygon(area, lineColor.Fill())
	s.polyline(pts, lineColor.Stroke(), lineWidth)

	for _, p := range pts {
		s.circle(p.X, p.Y, linePointRadius, lineColor.Stroke(), backgroundColor, 2)
	}

	valueStyle := textStyle{size: valueLabelFontSize, color: textColor, align: alignCenter, anchor: baselineAlphabetic}
	for _, i := range lineLabelIndexes(values) {
		s.text(formatValue(clampValue(values[i])), pts[i].X, pts[i].Y-10, valueStyle)
	}

	return r.finish(ctx, span, s, "line")
}

// lineLabelIndexes picks the points that get a value label. Up to 12 points
// are all labeled. Longer series label the first and last point, local maxima
// and minima, and every k-th point with k = ceil(n/12). The result is sorted.
func lineLabelIndexes(values []float64) []int {
	n := len(values)
	if n <= maxAxisLabels {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	k := int(math.Ceil(float64(n) / maxAxisLabels))
	var out []int
	for i := 0; i < n; i++ {
		if i == 0 || i == n-1 || i%k == 0 || isLocalExtremum(values, i) {
			out = append(out, i)
		}
	}
	return out
}

// isLocalExtremum reports whether values[i] is a peak or a trough. On a flat
// run only the first point of the run counts.
func isLocalExtremum(values []float64, i int) bool {
	if i <= 0 || i >= len(values)-1 {
		return false
	}
	prev, cur, next := clampValue(values[i-1]), clampValue(values[i]), clampValue(values[i+1])
	return (cur > prev && cur >= next) || (cur < prev && cur <= next)
}
