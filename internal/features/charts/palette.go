package charts

import (
	"image/color"
	"math"
)

// Color is an RGB triple with separate fill and stroke opacity.
type Color struct {
	R, G, B     uint8
	FillAlpha   float64
	StrokeAlpha float64
}

func (c Color) Fill() color.NRGBA { return c.nrgba(c.FillAlpha) }
func (c Color) Stroke() color.NRGBA { return c.nrgba(c.StrokeAlpha) }

// WithFillAlpha returns a copy of c with a different fill opacity.
func (c Color) WithFillAlpha(a float64) Color {
	c.FillAlpha = a
	return c
}

func (c Color) nrgba(alpha float64) color.NRGBA {
	alpha = math.Max(0, math.Min(1, alpha))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(alpha * 255))}
}

// palette repeats after len(palette) entries.
var palette = []Color{
	{R: 255, G: 99, B: 132, FillAlpha: 0.6, StrokeAlpha: 1},
	{R: 54, G: 162, B: 235, FillAlpha: 0.6, StrokeAlpha: 1},
	{R: 255, G: 206, B: 86, FillAlpha: 0.6, StrokeAlpha: 1},
	{R: 75, G: 192, B: 192, FillAlpha: 0.6, StrokeAlpha: 1},
	{R: 153, G: 102, B: 255, FillAlpha: 0.6, StrokeAlpha: 1},
	{R: 255, G: 159, B: 64, FillAlpha: 0.6, StrokeAlpha: 1},
	{R: 201, G: 203, B: 207, FillAlpha: 0.6, StrokeAlpha: 1},
}

// PaletteColor returns the series color for position i.
func PaletteColor(i int) Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

var (
	backgroundColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	textColor       = color.NRGBA{R: 51, G: 51, B: 51, A: 255}
	mutedTextColor  = color.NRGBA{R: 102, G: 102, B: 102, A: 255}
	fallbackColor   = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	gridColor       = color.NRGBA{R: 230, G: 230, B: 230, A: 255}
	axisColor       = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	sliceBorder     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	lineColor = PaletteColor(1).WithFillAlpha(0.2)
)
