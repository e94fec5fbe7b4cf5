package charts

import (
	"math"
	"strconv"
)

const (
	titleFontSize      = 16.0
	axisTitleFontSize  = 12.0
	tickFontSize       = 11.0
	valueLabelFontSize = 10.0

	// maxAxisLabels is the number of x labels drawn before decimation kicks in.
	maxAxisLabels = 12
)

// margins reserved around the plot area for titles, ticks and legends.
type margins struct {
	top, right, bottom, left float64
}

var defaultMargins = margins{top: 50, right: 30, bottom: 60, left: 70}

// legendColumnWidth is added to the right margin of charts with a legend.
const legendColumnWidth = 150.0

type rect struct {
	x, y, w, h float64
}

func (r rect) right() float64 { return r.x + r.w }
func (r rect) bottom() float64 { return r.y + r.h }

// plotArea is always derived from the canvas size minus margins.
func plotArea(width, height float64, m margins) rect {
	return rect{
		x: m.left,
		y: m.top,
		w: math.Max(0, width-m.left-m.right),
		h: math.Max(0, height-m.top-m.bottom),
	}
}

// Axes carries optional axis titles.
type Axes struct {
	Y string
	X string
}

func drawTitle(s *surface, title string) {
	s.text(title, s.width()/2, 25, textStyle{
		size: titleFontSize, bold: true, color: textColor,
		align: alignCenter, anchor: baselineMiddle,
	})
}

// drawAxes draws gridlines at the value ticks, both axis lines, tick labels and
// axis titles for a band/linear scale pair.
func drawAxes(s *surface, plot rect, band BandScale, values LinearScale, axes Axes) {
	tickStyle := textStyle{size: tickFontSize, color: mutedTextColor, align: alignRight, anchor: baselineMiddle}
	for _, tick := range values.Ticks() {
		y := values.Map(tick)
		if tick > 0 {
			s.line(plot.x, y, plot.right(), y, gridColor, 1)
		}
		s.text(formatTick(tick), plot.x-8, y, tickStyle)
	}

	s.line(plot.x, plot.bottom(), plot.right(), plot.bottom(), axisColor, 1)
	s.line(plot.x, plot.y, plot.x, plot.bottom(), axisColor, 1)

	labelStyle := textStyle{size: tickFontSize, color: mutedTextColor, align: alignCenter, anchor: baselineTop}
	for _, i := range decimateLabels(band.Len()) {
		s.line(band.Center(i), plot.bottom(), band.Center(i), plot.bottom()+4, axisColor, 1)
		s.text(band.Label(i), band.Center(i), plot.bottom()+8, labelStyle)
	}

	titleStyle := textStyle{size: axisTitleFontSize, color: textColor, align: alignCenter, anchor: baselineMiddle}
	if axes.X != "" {
		s.text(axes.X, plot.x+plot.w/2, s.height()-15, titleStyle)
	}
	if axes.Y != "" {
		s.textRotated(axes.Y, 18, plot.y+plot.h/2, -90, titleStyle)
	}
}

// decimateLabels returns the label positions to draw: every k-th label with
// k = ceil(n/12), plus the last one.
func decimateLabels(n int) []int {
	if n <= 0 {
		return nil
	}
	k := int(math.Ceil(float64(n) / maxAxisLabels))
	if k < 1 {
		k = 1
	}
	out := make([]int, 0, n/k+2)
	for i := 0; i < n; i += k {
		out = append(out, i)
	}
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return out
}

// largeValue is where one-decimal rounding stops being meaningful.
const largeValue = 1e15

// formatTick rounds to one decimal place and drops a trailing ".0".
func formatTick(v float64) string {
	if math.Abs(v) >= largeValue {
		return strconv.FormatFloat(v, 'g', 3, 64)
	}
	r := math.Round(v*10) / 10
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// formatValue always shows one decimal place.
func formatValue(v float64) string {
	if math.Abs(v) >= largeValue {
		return strconv.FormatFloat(v, 'g', 3, 64)
	}
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}
