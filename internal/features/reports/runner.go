package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"usage-report-bot/internal/clients_api/storage"
	"usage-report-bot/internal/clients_api/usage"
	"usage-report-bot/internal/features/charts"
	logging "usage-report-bot/internal/infra/log"
	"usage-report-bot/internal/infra/state"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrAlreadySent is returned by Run when the period was delivered before and
// the run is not forced.
var ErrAlreadySent = errors.New("report already sent for this period")

const (
	defaultTopApps = 5
	barChartApps   = 10
)

type Options struct {
	Source     usage.Source
	Renderer   *charts.Renderer
	Uploader   storage.Uploader
	Publishers []Publisher
	// Ledger is optional; without it every run delivers.
	Ledger    state.Ledger
	Location  *time.Location
	TopApps   int
	Prefix    string
	ValueUnit string
	Now       func() time.Time
}

// Runner builds and delivers reports:
// fetch rows → aggregate → render → upload → publish → remove temp files → mark sent.
type Runner struct {
	source     usage.Source
	renderer   *charts.Renderer
	uploader   storage.Uploader
	publishers []Publisher
	ledger     state.Ledger
	loc        *time.Location
	topApps    int
	prefix     string
	unit       string
	now        func() time.Time
	tracer     trace.Tracer
}

func NewRunner(opts Options) (*Runner, error) {
	if opts.Source == nil {
		return nil, errors.New("reports: usage source is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("reports: chart renderer is required")
	}
	if opts.Uploader == nil {
		return nil, errors.New("reports: uploader is required")
	}
	if len(opts.Publishers) == 0 {
		return nil, errors.New("reports: at least one publisher is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TopApps <= 0 {
		opts.TopApps = defaultTopApps
	}
	if opts.ValueUnit == "" {
		opts.ValueUnit = "min"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		source:     opts.Source,
		renderer:   opts.Renderer,
		uploader:   opts.Uploader,
		publishers: opts.Publishers,
		ledger:     opts.Ledger,
		loc:        opts.Location,
		topApps:    opts.TopApps,
		prefix:     opts.Prefix,
		unit:       opts.ValueUnit,
		now:        opts.Now,
		tracer:     otel.Tracer("usage-report-bot/reports"),
	}, nil
}

type chartJob struct {
	name   string
	title  string
	render func(ctx context.Context) (string, error)
}

// Run builds and delivers the last complete period of kind. A chart that
// fails to render or upload is logged and left out; the report fails only
// when no publisher accepted it.
func (r *Runner) Run(ctx context.Context, kind Kind, force bool) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "reports.run", trace.WithAttributes(
		attribute.String("report.kind", string(kind)),
		attribute.Bool("report.force", force),
	))
	defer span.End()

	p, err := PeriodFor(kind, r.now(), r.loc)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("report.period", p.Key))

	if !force && r.ledger != nil {
		sent, err := r.ledger.IsSent(ctx, string(kind), p.Key)
		if err != nil {
			logging.LogWarn("Failed to read sent-report ledger, sending anyway",
				zap.String("kind", string(kind)), zap.String("period", p.Key), zap.Error(err))
		} else if sent {
			logging.LogInfo("Report already sent, skipping", zap.String("kind", string(kind)), zap.String("period", p.Key))
			return nil, ErrAlreadySent
		}
	}

	fetchFrom := p.From
	if prevFrom, _, ok := p.Previous(); ok {
		fetchFrom = prevFrom
	}
	rows, err := r.source.FetchRows(ctx, fetchFrom, p.To)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("fetch usage rows: %w", err)
	}
	logging.LogDebug("Usage rows fetched", zap.String("kind", string(kind)), zap.Int("rows", len(rows)))

	report := &Report{
		Kind:        kind,
		Period:      p,
		Title:       titleFor(p, r.loc),
		Summary:     BuildSummary(p, rows, r.topApps, r.unit, r.loc),
		GeneratedAt: r.now(),
	}

	defer func() {
		for _, c := range report.Charts {
			if err := r.renderer.Cleanup(c.Path); err != nil {
				logging.LogWarn("Failed to remove chart file", zap.String("path", c.Path), zap.Error(err))
			}
		}
	}()

	for _, job := range r.plan(p, rows) {
		path, err := job.render(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("render %s: %w", job.name, ctx.Err())
			}
			logging.LogError("Failed to render chart", zap.String("chart", job.name), zap.Error(err))
			continue
		}
		chart := Chart{Name: job.name, Title: job.title, Path: path}

		key := ObjectKey(r.prefix, kind, p.To, job.name)
		if url, err := r.uploader.Upload(ctx, path, key); err != nil {
			logging.LogError("Failed to upload chart",
				zap.String("chart", job.name), zap.String("provider", r.uploader.Name()), zap.Error(err))
		} else {
			chart.URL = url
		}
		report.Charts = append(report.Charts, chart)
	}

	var errs []error
	delivered := 0
	for _, pub := range r.publishers {
		if err := pub.Publish(ctx, report); err != nil {
			logging.LogError("Failed to publish report",
				zap.String("publisher", pub.Name()), zap.String("kind", string(kind)), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", pub.Name(), err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "not delivered")
		return report, fmt.Errorf("report not delivered: %w", err)
	}

	if r.ledger != nil {
		if err := r.ledger.MarkSent(ctx, string(kind), p.Key, r.now()); err != nil {
			logging.LogWarn("Failed to record sent report", zap.String("period", p.Key), zap.Error(err))
		}
	}

	logging.LogSuccess("Report delivered",
		zap.String("kind", string(kind)),
		zap.String("period", p.Key),
		zap.Int("charts", len(report.Charts)),
		zap.Int("publishers", delivered))
	return report, nil
}

func (r *Runner) plan(p Period, rows []usage.Row) []chartJob {
	current := between(rows, p.From, p.To)
	axisY := fmt.Sprintf("Usage (%s)", r.unit)

	hourly := chartJob{
		name:  "hourly",
		title: "Usage by hour",
		render: func(ctx context.Context) (string, error) {
			labels, stacks := HourlyByApp(FoldApps(current, r.topApps), p.From, r.loc)
			return r.renderer.RenderHourlyStackedBarChart(ctx, labels, stacks, "Usage by hour", charts.Axes{Y: axisY, X: "Hour"})
		},
	}
	pie := chartJob{
		name:  "top_apps",
		title: "Top apps",
		render: func(ctx context.Context) (string, error) {
			labels, values := TopApps(current, r.topApps)
			return r.renderer.RenderPieChart(ctx, labels, values, "Top apps")
		},
	}

	switch p.Kind {
	case KindHourly:
		return []chartJob{hourly}
	case KindDaily:
		bar := chartJob{
			name:  "apps",
			title: "Usage by app",
			render: func(ctx context.Context) (string, error) {
				labels, values := TopApps(current, barChartApps)
				return r.renderer.RenderBarChart(ctx, labels, values, "Usage by app", charts.Axes{Y: axisY, X: "App"})
			},
		}
		return []chartJob{bar, pie, hourly}
	default:
		stacked := chartJob{
			name:  "daily_apps",
			title: "Daily usage by app",
			render: func(ctx context.Context) (string, error) {
				labels, stacks := DailyByApp(FoldApps(current, r.topApps), p.From, p.Days(), r.loc)
				return r.renderer.RenderStackedBarChart(ctx, labels, stacks, "Daily usage by app", charts.Axes{Y: axisY, X: "Day"})
			},
		}
		trend := chartJob{
			name:  "daily_total",
			title: "Daily total",
			render: func(ctx context.Context) (string, error) {
				labels, values := DailyTotals(current, p.From, p.Days(), r.loc)
				return r.renderer.RenderLineChart(ctx, labels, values, "Daily total", charts.Axes{Y: axisY, X: "Day"})
			},
		}
		return []chartJob{stacked, trend, pie}
	}
}
