package charts

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// stackedVariant holds the settings that differ between the daily and the
// hourly stacked charts.
type stackedVariant struct {
	kind     string
	padding  float64
	headroom float64 // multiplier applied to the largest bucket total
	// A segment is labeled when its value exceeds labelShare of the bucket
	// total and its height exceeds labelMinPx.
	labelShare     float64
	labelMinPx     float64
	legendMaxChars int
}

var (
	dailyStacked = stackedVariant{
		kind:       "stacked",
		padding:    0.15,
		headroom:   1,
		labelShare: 0.10,
		labelMinPx: 20,
	}
	hourlyStacked = stackedVariant{
		kind:           "hourly_stacked",
		padding:        0.1,
		headroom:       1.1,
		labelShare:     0.15,
		labelMinPx:     25,
		legendMaxChars: hourlyLegendMaxChars,
	}
)

// RenderStackedBarChart draws day buckets. The value axis ends at the largest
// bucket total without headroom.
func (r *Renderer) RenderStackedBarChart(ctx context.Context, labels []string, stacks []Stack, title string, axes Axes) (string, error) {
	return r.renderStacked(ctx, dailyStacked, labels, stacks, title, axes)
}

// RenderHourlyStackedBarChart draws hour buckets with 10% headroom above the
// largest total and legend names cut at 15 characters.
func (r *Renderer) RenderHourlyStackedBarChart(ctx context.Context, hourLabels []string, stacks []Stack, title string, axes Axes) (string, error) {
	return r.renderStacked(ctx, hourlyStacked, hourLabels, stacks, title, axes)
}

func (r *Renderer) renderStacked(ctx context.Context, v stackedVariant, labels []string, stacks []Stack, title string, axes Axes) (string, error) {
	ctx, span := r.startSpan(ctx, v.kind, title)

	if len(labels) == 0 || len(stacks) == 0 {
		return r.renderFallback(ctx, span, v.kind, title, MessageNoData)
	}
	valid := validStacks(labels, stacks)
	span.SetAttributes(
		attribute.Int("chart.buckets", len(labels)),
		attribute.Int("chart.stacks", len(stacks)),
		attribute.Int("chart.stacks_valid", len(valid)),
	)
	if len(valid) == 0 {
		return r.renderFallback(ctx, span, v.kind, title, MessageInvalidData)
	}

	s := r.newSurface()
	m := defaultMargins
	m.right += legendColumnWidth
	plot := plotArea(s.width(), s.height(), m)

	totals := bucketTotals(valid, len(labels))
	band := NewBandScale(labels, plot.x, plot.right(), v.padding)
	scale := v.valueScale(totals, plot.bottom(), plot.y)

	drawTitle(s, title)
	drawAxes(s, plot, band, scale, axes)

	inside := textStyle{size: valueLabelFontSize, color: textColor, align: alignCenter, anchor: baselineMiddle}
	above := textStyle{size: valueLabelFontSize, bold: true, color: textColor, align: alignCenter, anchor: baselineAlphabetic}
	for i := range labels {
		segs := stackSegments(valid, i, scale)
		for j, seg := range segs {
			c := PaletteColor(j)
			s.fillRect(band.Start(i), seg.y, band.Bandwidth(), seg.h, c.Fill())
			s.strokeRect(band.Start(i), seg.y, band.Bandwidth(), seg.h, c.Stroke(), 1)
			if v.segmentLabeled(seg, totals[i]) {
				s.text(formatValue(seg.value), band.Center(i), seg.y+seg.h/2, inside)
			}
		}
		if totals[i] > 0 {
			s.text(formatValue(totals[i]), band.Center(i), scale.Map(totals[i])-4, above)
		}
	}

	entries := make([]legendEntry, len(valid))
	for j, st := range valid {
		entries[j] = legendEntry{label: st.Name, color: PaletteColor(j)}
	}
	drawLegend(s, entries, legendLayout{
		box:      rect{x: plot.right() + 20, y: plot.y, w: legendColumnWidth - 20, h: plot.h},
		maxChars: v.legendMaxChars,
	})

	return r.finish(ctx, span, s, v.kind)
}

// valueScale sizes the value axis from the largest bucket total.
func (v stackedVariant) valueScale(totals []float64, bottom, top float64) LinearScale {
	return NewLinearScale(withHeadroom(maxOf(totals), v.headroom), bottom, top)
}

// segmentLabeled reports whether seg is large enough, both as a share of its
// bucket and in pixels, to carry its own value label.
func (v stackedVariant) segmentLabeled(seg segment, total float64) bool {
	return seg.value > total*v.labelShare && seg.h > v.labelMinPx
}

// validStacks keeps the stacks carrying exactly one value per label.
func validStacks(labels []string, stacks []Stack) []Stack {
	out := make([]Stack, 0, len(stacks))
	for _, st := range stacks {
		if len(st.Values) == len(labels) {
			out = append(out, st)
		}
	}
	return out
}

func bucketTotals(stacks []Stack, buckets int) []float64 {
	totals := make([]float64, buckets)
	for _, st := range stacks {
		for i := 0; i < buckets; i++ {
			totals[i] = addSaturating(totals[i], clampValue(st.Values[i]))
		}
	}
	return totals
}

type segment struct {
	value float64
	y     float64 // top edge
	h     float64
}

// stackSegments lays out bucket i bottom-up in stack order: the first stack
// sits on the axis and each next one starts where the previous one ended.
func stackSegments(stacks []Stack, i int, scale LinearScale) []segment {
	segs := make([]segment, len(stacks))
	y := scale.Map(0)
	for j, st := range stacks {
		v := clampValue(st.Values[i])
		h := scale.Height(v)
		y -= h
		segs[j] = segment{value: v, y: y, h: h}
	}
	return segs
}
