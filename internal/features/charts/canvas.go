package charts

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

const (
	canvasWidth  = 800
	canvasHeight = 400
)

type hAlign int

const (
	alignLeft hAlign = iota
	alignCenter
	alignRight
)

type vAlign int

const (
	baselineAlphabetic vAlign = iota
	baselineTop
	baselineMiddle
)

type point struct{ X, Y float64 }

// surface is the raster drawing target of one render call.
type surface struct {
	dc    *gg.Context
	faces *faceCache
}

// newSurface allocates a canvas with an opaque white background.
func newSurface(width, height int, fonts *fontSet) *surface {
	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.Clear()
	dc.SetLineJoin(gg.LineJoinRound)
	return &surface{dc: dc, faces: newFaceCache(fonts)}
}

func (s *surface) width() float64 { return float64(s.dc.Width()) }
func (s *surface) height() float64 { return float64(s.dc.Height()) }
func (s *surface) image() image.Image {
	return s.dc.Image()
}

func (s *surface) fillRect(x, y, w, h float64, c color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.SetColor(c)
	s.dc.Fill()
}

func (s *surface) strokeRect(x, y, w, h float64, c color.Color, lineWidth float64) {
	if w <= 0 || h <= 0 {
		return
	}
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.SetColor(c)
	s.dc.SetLineWidth(lineWidth)
	s.dc.Stroke()
}

func (s *surface) line(x1, y1, x2, y2 float64, c color.Color, lineWidth float64) {
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.SetColor(c)
	s.dc.SetLineWidth(lineWidth)
	s.dc.Stroke()
}

func (s *surface) tracePath(pts []point) {
	s.dc.NewSubPath()
	for i, p := range pts {
		if i == 0 {
			s.dc.MoveTo(p.X, p.Y)
			continue
		}
		s.dc.LineTo(p.X, p.Y)
	}
}

func (s *surface) polyline(pts []point, c color.Color, lineWidth float64) {
	if len(pts) < 2 {
		return
	}
	s.tracePath(pts)
	s.dc.SetColor(c)
	s.dc.SetLineWidth(lineWidth)
	s.dc.Stroke()
}

func (s *surface) fillPolygon(pts []point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	s.tracePath(pts)
	s.dc.ClosePath()
	s.dc.SetColor(c)
	s.dc.Fill()
}

// wedge draws a pie slice between two angles in radians; 0 points right and
// angles grow clockwise because y grows downward.
func (s *surface) wedge(cx, cy, r, from, to float64, fill, border color.Color, lineWidth float64) {
	s.dc.NewSubPath()
	s.dc.MoveTo(cx, cy)
	s.dc.DrawArc(cx, cy, r, from, to)
	s.dc.ClosePath()
	s.dc.SetColor(fill)
	s.dc.FillPreserve()
	s.dc.SetColor(border)
	s.dc.SetLineWidth(lineWidth)
	s.dc.Stroke()
}

func (s *surface) circle(cx, cy, r float64, fill, border color.Color, lineWidth float64) {
	s.dc.DrawCircle(cx, cy, r)
	s.dc.SetColor(fill)
	s.dc.FillPreserve()
	s.dc.SetColor(border)
	s.dc.SetLineWidth(lineWidth)
	s.dc.Stroke()
}

type textStyle struct {
	size   float64
	bold   bool
	color  color.Color
	align  hAlign
	anchor vAlign
}

func (s *surface) measure(text string, size float64, bold bool) (float64, float64) {
	s.dc.SetFontFace(s.faces.face(size, bold))
	return s.dc.MeasureString(text)
}

func (s *surface) text(text string, x, y float64, st textStyle) {
	if text == "" {
		return
	}
	s.dc.SetFontFace(s.faces.face(st.size, st.bold))
	s.dc.SetColor(st.color)
	s.dc.DrawStringAnchored(text, x, y, st.align.anchor(), st.anchor.anchor())
}

// textRotated draws text rotated by degrees around (x, y); -90 reads bottom-up.
func (s *surface) textRotated(text string, x, y, degrees float64, st textStyle) {
	s.dc.Push()
	s.dc.RotateAbout(gg.Radians(degrees), x, y)
	s.text(text, x, y, st)
	s.dc.Pop()
}

func (a hAlign) anchor() float64 {
	switch a {
	case alignCenter:
		return 0.5
	case alignRight:
		return 1
	default:
		return 0
	}
}

// gg shifts the baseline down by ay * text height.
func (v vAlign) anchor() float64 {
	switch v {
	case baselineTop:
		return 1
	case baselineMiddle:
		return 0.5
	default:
		return 0
	}
}
