package charts

import (
	"context"
	"fmt"

	"usage-report-bot/internal/infra/fs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MessageNoData      = "No data available"
	MessageInvalidData = "Invalid data format"

	defaultValueUnit = "min"
)

// Options configures a Renderer. Every field is optional.
type Options struct {
	// OutputDir receives the PNG files. Defaults to fs.DefaultChartsDir.
	OutputDir string
	// FontPath and BoldFontPath replace the embedded Go fonts.
	FontPath     string
	BoldFontPath string
	// ValueUnit is appended to values in the pie legend.
	ValueUnit string
}

// Stack is one named series of a stacked bar chart. Values[i] belongs to the
// i-th bucket label of the call.
type Stack struct {
	Name   string
	Values []float64
}

// Renderer draws 800x400 PNG charts. It only holds immutable state, so one
// Renderer can serve concurrent calls; each call allocates its own canvas.
type Renderer struct {
	sink   *fs.ChartSink
	fonts  *fontSet
	unit   string
	tracer trace.Tracer
}

func NewRenderer(opts Options) (*Renderer, error) {
	fonts, err := loadFonts(opts.FontPath, opts.BoldFontPath)
	if err != nil {
		return nil, err
	}
	unit := opts.ValueUnit
	if unit == "" {
		unit = defaultValueUnit
	}
	return &Renderer{
		sink:   fs.NewChartSink(opts.OutputDir),
		fonts:  fonts,
		unit:   unit,
		tracer: otel.Tracer("usage-report-bot/charts"),
	}, nil
}

// OutputDir returns the directory charts are written to.
func (r *Renderer) OutputDir() string { return r.sink.Dir() }

// Cleanup removes a chart written by this renderer.
func (r *Renderer) Cleanup(path string) error { return r.sink.Remove(path) }

func (r *Renderer) newSurface() *surface {
	return newSurface(canvasWidth, canvasHeight, r.fonts)
}

func (r *Renderer) startSpan(ctx context.Context, kind, title string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "charts."+kind, trace.WithAttributes(
		attribute.String("chart.kind", kind),
		attribute.String("chart.title", title),
	))
}

// finish writes the surface and closes the span. A cancelled context stops the
// call before anything is written.
func (r *Renderer) finish(ctx context.Context, span trace.Span, s *surface, kind string) (string, error) {
	defer span.End()
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("render %s chart: %w", kind, err)
	}
	path, err := r.sink.SavePNG(s.image(), kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("render %s chart: %w", kind, err)
	}
	span.SetAttributes(attribute.String("chart.path", path))
	return path, nil
}

// renderFallback writes the title and a centered gray message on a blank canvas.
func (r *Renderer) renderFallback(ctx context.Context, span trace.Span, kind, title, message string) (string, error) {
	span.SetAttributes(attribute.String("chart.fallback", message))
	s := r.newSurface()
	drawFallback(s, title, message)
	return r.finish(ctx, span, s, kind)
}

// RenderFallback writes a placeholder chart carrying only a title and a message.
func (r *Renderer) RenderFallback(ctx context.Context, title, message string) (string, error) {
	ctx, span := r.startSpan(ctx, "fallback", title)
	return r.renderFallback(ctx, span, "fallback", title, message)
}
