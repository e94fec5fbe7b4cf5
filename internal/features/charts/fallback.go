package charts

const fallbackFontSize = 14.0

func drawFallback(s *surface, title, message string) {
	drawTitle(s, title)
	s.text(message, s.width()/2, s.height()/2, textStyle{
		size: fallbackFontSize, color: fallbackColor,
		align: alignCenter, anchor: baselineMiddle,
	})
}
