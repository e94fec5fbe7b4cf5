package charts

import "fmt"

const (
	legendFontSize  = 11.0
	legendRowHeight = 20.0
	legendSwatch    = 12.0
	legendPadding   = 6.0

	// hourlyLegendMaxChars is the longest stack name the hourly legend prints in full.
	hourlyLegendMaxChars = 15
)

type legendEntry struct {
	label string
	color Color
}

type legendLayout struct {
	box      rect
	maxChars int // 0 keeps labels intact
}

// legendCapacity splits n entries into drawn entries and a hidden remainder.
// When everything does not fit, the last row is used for a "+N more" line.
func legendCapacity(n int, box rect) (shown, hidden int) {
	rows := int(box.h / legendRowHeight)
	if n <= rows {
		return n, 0
	}
	if rows <= 1 {
		return 0, n
	}
	return rows - 1, n - (rows - 1)
}

// drawLegend draws a vertical color key inside box and returns the number of
// entries drawn.
func drawLegend(s *surface, entries []legendEntry, layout legendLayout) int {
	shown, hidden := legendCapacity(len(entries), layout.box)

	labelStyle := textStyle{size: legendFontSize, color: textColor, align: alignLeft, anchor: baselineMiddle}
	x := layout.box.x
	y := layout.box.y
	for _, e := range entries[:shown] {
		mid := y + legendRowHeight/2
		s.fillRect(x, mid-legendSwatch/2, legendSwatch, legendSwatch, e.color.Fill())
		s.strokeRect(x, mid-legendSwatch/2, legendSwatch, legendSwatch, e.color.Stroke(), 1)
		s.text(truncateName(e.label, layout.maxChars), x+legendSwatch+legendPadding, mid, labelStyle)
		y += legendRowHeight
	}
	if hidden > 0 {
		more := labelStyle
		more.color = mutedTextColor
		s.text(fmt.Sprintf("+%d more", hidden), x, y+legendRowHeight/2, more)
	}
	return shown
}

// truncateName shortens names longer than max runes and appends an ellipsis.
func truncateName(name string, max int) string {
	if max <= 0 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max]) + "…"
}
