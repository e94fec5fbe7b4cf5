package charts

import "math"

const (
	// minDomainMax keeps gridlines visible when every value is zero.
	minDomainMax = 10.0
	tickCount    = 5
	niceEpsilon  = 1e-9
	// minTickStep keeps one-decimal tick labels distinct.
	minTickStep = 0.1
	maxTicks    = 1000
)

// BandScale maps label positions to contiguous, equally wide pixel bands.
// Inner and outer padding are the same fraction of a step, so the gaps
// between bands and at both ends are symmetric.
type BandScale struct {
	labels    []string
	step      float64
	bandwidth float64
	offset    float64
}

// NewBandScale lays labels out across [start, end]. Callers check for an empty
// label set first; an empty scale maps nothing and has zero bandwidth.
func NewBandScale(labels []string, start, end, padding float64) BandScale {
	padding = math.Max(0, math.Min(padding, 0.9))
	b := BandScale{labels: labels}
	n := float64(len(labels))
	if n == 0 || end <= start {
		return b
	}
	b.step = (end - start) / (n + padding)
	b.bandwidth = b.step * (1 - padding)
	b.offset = start + padding*b.step
	return b
}

func (b BandScale) Len() int { return len(b.labels) }
func (b BandScale) Label(i int) string { return b.labels[i] }
func (b BandScale) Bandwidth() float64 { return b.bandwidth }
func (b BandScale) Step() float64 { return b.step }
func (b BandScale) Start(i int) float64 { return b.offset + float64(i)*b.step }
func (b BandScale) Center(i int) float64 { return b.Start(i) + b.bandwidth/2 }
func (b BandScale) End(i int) float64 { return b.Start(i) + b.bandwidth }

// LinearScale maps [0, Max()] onto a vertical pixel range. Pixel y grows
// downward, so larger values map to smaller y.
type LinearScale struct {
	max    float64
	step   float64
	bottom float64
	top    float64
}

// NewLinearScale builds a scale whose upper bound is dataMax rounded up to a
// multiple of a "nice" step (1, 2, 5 times a power of ten) giving about five
// divisions. Non-positive or non-finite maxima fall back to minDomainMax.
func NewLinearScale(dataMax, bottom, top float64) LinearScale {
	if !(dataMax > 0) || math.IsInf(dataMax, 0) {
		dataMax = minDomainMax
	}
	niceMax, step := niceDomain(dataMax, tickCount)
	return LinearScale{max: niceMax, step: step, bottom: bottom, top: top}
}

func (s LinearScale) Max() float64 { return s.max }
func (s LinearScale) Step() float64 { return s.step }

// Map returns the pixel y for v.
func (s LinearScale) Map(v float64) float64 {
	return s.bottom - s.Height(v)
}

// Height returns the pixel length of a value measured from zero.
func (s LinearScale) Height(v float64) float64 {
	if s.max <= 0 {
		return 0
	}
	return v / s.max * (s.bottom - s.top)
}

// Ticks returns 0, step, 2*step, ... up to Max().
func (s LinearScale) Ticks() []float64 {
	if s.step <= 0 {
		return []float64{0}
	}
	ratio := s.max / s.step
	if math.IsNaN(ratio) || ratio > maxTicks {
		return []float64{0}
	}
	n := int(math.Floor(ratio + 1e-6))
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		ticks = append(ticks, float64(i)*s.step)
	}
	return ticks
}

func niceDomain(dataMax float64, count int) (float64, float64) {
	niceMax := dataMax
	var step float64
	for i := 0; i < 10; i++ {
		s := niceStep(niceMax, count)
		if s == step {
			break
		}
		next := float64(multiples(dataMax, s)) * s
		if math.IsInf(next, 0) {
			// rounding up would pass the largest float64
			step, niceMax = s, dataMax
			break
		}
		step, niceMax = s, next
	}
	if step < minTickStep {
		step = minTickStep
		niceMax = float64(multiples(dataMax, step)) * step
	}
	return niceMax, step
}

// withHeadroom scales a domain maximum by factor without overflowing.
func withHeadroom(v, factor float64) float64 {
	out := v * factor
	if math.IsInf(out, 1) {
		return math.MaxFloat64
	}
	return out
}

// addSaturating adds finite values, capping at the largest float64.
func addSaturating(a, b float64) float64 {
	out := a + b
	if math.IsInf(out, 1) {
		return math.MaxFloat64
	}
	return out
}

func multiples(v, step float64) int {
	n := int(math.Ceil(v/step - niceEpsilon))
	if n < 1 {
		n = 1
	}
	return n
}

func niceStep(span float64, count int) float64 {
	raw := span / float64(count)
	power := math.Floor(math.Log10(raw))
	base := math.Pow(10, power)
	switch e := raw / base; {
	case e >= math.Sqrt(50):
		return 10 * base
	case e >= math.Sqrt(10):
		return 5 * base
	case e >= math.Sqrt2:
		return 2 * base
	default:
		return base
	}
}
