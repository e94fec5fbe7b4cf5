package reports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"usage-report-bot/internal/clients_api/storage"
	"usage-report-bot/internal/clients_api/telegram"
	"usage-report-bot/internal/clients_api/usage"
	"usage-report-bot/internal/clients_api/webhook"
	"usage-report-bot/internal/features/charts"
	"usage-report-bot/internal/infra/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows []usage.Row
	err  error
}

func (s *fakeSource) FetchRows(_ context.Context, from, to time.Time) ([]usage.Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	return between(s.rows, from, to), nil
}

func (s *fakeSource) Close() error { return nil }

type publishedChart struct {
	Chart
	fileExisted bool
}

type fakePublisher struct {
	name string
	err  error

	mu      sync.Mutex
	reports []*Report
	charts  []publishedChart
}

func (p *fakePublisher) Name() string { return p.name }

func (p *fakePublisher) Publish(_ context.Context, r *Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	for _, c := range r.Charts {
		_, err := os.Stat(c.Path)
		p.charts = append(p.charts, publishedChart{Chart: c, fileExisted: err == nil})
	}
	return p.err
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, string) (string, error) {
	return "", errors.New("bucket unavailable")
}
func (failingUploader) Name() string { return "failing" }
func (failingUploader) Close() error { return nil }

type runnerFixture struct {
	runner    *Runner
	outputDir string
	storeDir  string
	ledger    *state.FileLedger
	pub       *fakePublisher
}

func newRunnerFixture(t *testing.T, mutate func(*Options)) *runnerFixture {
	t.Helper()
	outputDir := filepath.Join(t.TempDir(), "charts")
	storeDir := t.TempDir()

	renderer, err := charts.NewRenderer(charts.Options{OutputDir: outputDir})
	require.NoError(t, err)
	uploader, err := storage.NewLocalUploader(storeDir, "https://cdn.example.com")
	require.NoError(t, err)
	ledger := state.NewFileLedger(filepath.Join(t.TempDir(), "sent.json"))
	pub := &fakePublisher{name: "fake"}

	opts := Options{
		Source:     &fakeSource{rows: sampleRows()},
		Renderer:   renderer,
		Uploader:   uploader,
		Publishers: []Publisher{pub},
		Ledger:     ledger,
		Location:   time.UTC,
		TopApps:    2,
		Prefix:     "reports",
		Now:        func() time.Time { return at(2, 9, 30) },
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return &runnerFixture{runner: r, outputDir: outputDir, storeDir: storeDir, ledger: ledger, pub: pub}
}

func pngFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	return matches
}

func TestRunDailyReport(t *testing.T) {
	f := newRunnerFixture(t, nil)

	report, err := f.runner.Run(context.Background(), KindDaily, false)
	require.NoError(t, err)

	require.Len(t, report.Charts, 3)
	assert.Equal(t, []string{"apps", "top_apps", "hourly"},
		[]string{report.Charts[0].Name, report.Charts[1].Name, report.Charts[2].Name})
	assert.Equal(t, "https://cdn.example.com/reports/daily/20260402-0000/apps.png", report.Charts[0].URL)
	assert.Equal(t, "Daily usage report · Wed, Apr 1 2026", report.Title)
	assert.Contains(t, report.Summary, "Total: 190 min")

	_, err = os.Stat(filepath.Join(f.storeDir, "reports", "daily", "20260402-0000", "hourly.png"))
	assert.NoError(t, err)

	require.Len(t, f.pub.charts, 3)
	for _, c := range f.pub.charts {
		assert.True(t, c.fileExisted, "%s must exist while publishing", c.Name)
	}
	assert.Empty(t, pngFiles(t, f.outputDir), "temp charts are removed after delivery")

	sent, err := f.ledger.IsSent(context.Background(), "daily", "2026-04-01")
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestRunSkipsSentPeriodUnlessForced(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	_, err := f.runner.Run(ctx, KindDaily, false)
	require.NoError(t, err)

	_, err = f.runner.Run(ctx, KindDaily, false)
	assert.ErrorIs(t, err, ErrAlreadySent)
	assert.Len(t, f.pub.reports, 1)

	_, err = f.runner.Run(ctx, KindDaily, true)
	require.NoError(t, err)
	assert.Len(t, f.pub.reports, 2)
}

func TestRunHourlyAndWeeklyPlans(t *testing.T) {
	f := newRunnerFixture(t, nil)

	report, err := f.runner.Run(context.Background(), KindHourly, false)
	require.NoError(t, err)
	require.Len(t, report.Charts, 1)
	assert.Equal(t, "hourly", report.Charts[0].Name)
	assert.Equal(t, "2026-04-02T08", report.Period.Key)

	report, err = f.runner.Run(context.Background(), KindWeekly, false)
	require.NoError(t, err)
	require.Len(t, report.Charts, 3)
	assert.Equal(t, "daily_apps", report.Charts[0].Name)
	assert.Equal(t, "daily_total", report.Charts[1].Name)
	assert.Equal(t, "top_apps", report.Charts[2].Name)
}

func TestRunKeepsChartsWhenUploadFails(t *testing.T) {
	f := newRunnerFixture(t, func(o *Options) { o.Uploader = failingUploader{} })

	report, err := f.runner.Run(context.Background(), KindDaily, false)
	require.NoError(t, err)
	require.Len(t, report.Charts, 3)
	for _, c := range report.Charts {
		assert.Empty(t, c.URL)
	}
	assert.Empty(t, pngFiles(t, f.outputDir))
}

func TestRunFailsWhenNoPublisherAccepts(t *testing.T) {
	failing := &fakePublisher{name: "down", err: errors.New("503")}
	f := newRunnerFixture(t, func(o *Options) { o.Publishers = []Publisher{failing} })

	_, err := f.runner.Run(context.Background(), KindDaily, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")

	sent, err := f.ledger.IsSent(context.Background(), "daily", "2026-04-01")
	require.NoError(t, err)
	assert.False(t, sent, "undelivered report must be retried")
	assert.Empty(t, pngFiles(t, f.outputDir))
}

func TestRunSucceedsWhenOnePublisherAccepts(t *testing.T) {
	failing := &fakePublisher{name: "down", err: errors.New("503")}
	ok := &fakePublisher{name: "ok"}
	f := newRunnerFixture(t, func(o *Options) { o.Publishers = []Publisher{failing, ok} })

	_, err := f.runner.Run(context.Background(), KindDaily, false)
	require.NoError(t, err)
	assert.Len(t, ok.reports, 1)
}

func TestRunFetchError(t *testing.T) {
	f := newRunnerFixture(t, func(o *Options) { o.Source = &fakeSource{err: errors.New("connection refused")} })

	_, err := f.runner.Run(context.Background(), KindDaily, false)
	require.Error(t, err)
	assert.Empty(t, f.pub.reports)
}

func TestRunCancelled(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.Run(ctx, KindDaily, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.pub.reports)
}

func TestNewRunnerValidation(t *testing.T) {
	renderer, err := charts.NewRenderer(charts.Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	uploader, err := storage.NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)

	_, err = NewRunner(Options{Renderer: renderer, Uploader: uploader, Publishers: []Publisher{&fakePublisher{}}})
	assert.Error(t, err)
	_, err = NewRunner(Options{Source: &fakeSource{}, Renderer: renderer, Uploader: uploader})
	assert.Error(t, err)
}

type capturePoster struct {
	msgs []webhook.Message
}

func (c *capturePoster) Post(_ context.Context, msg webhook.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestWebhookPublisher(t *testing.T) {
	poster := &capturePoster{}
	pub := NewWebhookPublisher(poster)

	err := pub.Publish(context.Background(), &Report{
		Kind:        KindDaily,
		Summary:     "Daily usage report",
		GeneratedAt: time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC),
		Charts: []Chart{
			{Name: "apps", Title: "Usage by app", URL: "https://cdn.example.com/a.png"},
			{Name: "pie", Title: "Top apps", URL: "file:///tmp/pie.png"},
			{Name: "hourly", Title: "Usage by hour"},
		},
	})
	require.NoError(t, err)
	require.Len(t, poster.msgs, 1)

	msg := poster.msgs[0]
	assert.Equal(t, "Daily usage report", msg.Content)
	require.Len(t, msg.Embeds, 2)
	require.NotNil(t, msg.Embeds[0].Image)
	assert.Equal(t, "https://cdn.example.com/a.png", msg.Embeds[0].Image.URL)
	assert.Equal(t, "2026-04-02T09:00:00Z", msg.Embeds[0].Timestamp)
	assert.Nil(t, msg.Embeds[1].Image)
	assert.Equal(t, "file:///tmp/pie.png", msg.Embeds[1].Description)
}

type captureSender struct {
	text   string
	photos []telegram.Photo
}

func (c *captureSender) Send(_ context.Context, text string, photos []telegram.Photo) error {
	c.text, c.photos = text, photos
	return nil
}

func TestTelegramPublisher(t *testing.T) {
	sender := &captureSender{}
	pub := NewTelegramPublisher(sender)

	err := pub.Publish(context.Background(), &Report{
		Summary: "Weekly usage report",
		Charts:  []Chart{{Title: "Daily total", Path: "/tmp/line.png"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly usage report", sender.text)
	assert.Equal(t, []telegram.Photo{{Path: "/tmp/line.png", Caption: "Daily total"}}, sender.photos)
}
