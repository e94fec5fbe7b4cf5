package bots_monitor

// Scheduled usage reports: hourly at minute 0, daily at the configured
// HH:MM and weekly on the configured weekday at the same time.

import (
	"context"
	"errors"
	"time"

	"usage-report-bot/internal/features/reports"
	"usage-report-bot/internal/infra/config"
	log "usage-report-bot/internal/infra/log"

	"go.uber.org/zap"
)

// ReportRunner builds and delivers one report; *reports.Runner implements it.
type ReportRunner interface {
	Run(ctx context.Context, kind reports.Kind, force bool) (*reports.Report, error)
}

type Schedule struct {
	Hourly      bool
	DailyHour   int
	DailyMinute int
	WeeklyDay   time.Weekday
}

func ScheduleFromConfig(cfg config.ScheduleConfig) (Schedule, error) {
	hour, minute, err := config.ParseDailyTime(cfg.DailyTime)
	if err != nil {
		return Schedule{}, err
	}
	day, err := config.ParseWeekday(cfg.WeeklyDay)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Hourly: cfg.Hourly, DailyHour: hour, DailyMinute: minute, WeeklyDay: day}, nil
}

// NextHourly returns the next top of the hour strictly after now.
func NextHourly(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).Add(time.Hour)
}

// NextDaily returns the next hour:minute in loc strictly after now.
func NextDaily(now time.Time, hour, minute int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// NextWeekly returns the next weekday at hour:minute in loc strictly after now.
func NextWeekly(now time.Time, day time.Weekday, hour, minute int, loc *time.Location) time.Time {
	now = now.In(loc)
	ahead := (int(day) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+ahead, hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+ahead+7, hour, minute, 0, 0, loc)
	}
	return next
}

// Next returns the earliest scheduled instant after now and every report
// kind due at that instant, in hourly, daily, weekly order.
func (s Schedule) Next(now time.Time, loc *time.Location) (time.Time, []reports.Kind) {
	type slot struct {
		at   time.Time
		kind reports.Kind
	}
	slots := []slot{
		{NextDaily(now, s.DailyHour, s.DailyMinute, loc), reports.KindDaily},
		{NextWeekly(now, s.WeeklyDay, s.DailyHour, s.DailyMinute, loc), reports.KindWeekly},
	}
	if s.Hourly {
		slots = append([]slot{{NextHourly(now.In(loc)), reports.KindHourly}}, slots...)
	}

	earliest := slots[0].at
	for _, sl := range slots[1:] {
		if sl.at.Before(earliest) {
			earliest = sl.at
		}
	}
	var kinds []reports.Kind
	for _, sl := range slots {
		if sl.at.Equal(earliest) {
			kinds = append(kinds, sl.kind)
		}
	}
	return earliest, kinds
}

// ReportMonitor runs reports on a Schedule until its context is cancelled.
type ReportMonitor struct {
	runner   ReportRunner
	schedule Schedule
	loc      *time.Location

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewReportMonitor(runner ReportRunner, schedule Schedule, loc *time.Location) *ReportMonitor {
	if loc == nil {
		loc = time.Local
	}
	return &ReportMonitor{
		runner:   runner,
		schedule: schedule,
		loc:      loc,
		now:      time.Now,
		after:    time.After,
	}
}

// RunReportMonitor blocks until ctx is cancelled.
func RunReportMonitor(ctx context.Context, runner ReportRunner, schedule Schedule, loc *time.Location) {
	NewReportMonitor(runner, schedule, loc).Run(ctx)
}

// CatchUp sends the reports whose slot already passed today and that the
// ledger has not seen, so a restart after the slot does not lose a day.
func (m *ReportMonitor) CatchUp(ctx context.Context) {
	now := m.now().In(m.loc)
	slot := time.Date(now.Year(), now.Month(), now.Day(), m.schedule.DailyHour, m.schedule.DailyMinute, 0, 0, m.loc)
	if now.Before(slot) {
		log.LogDebug("Daily slot not reached yet, nothing to catch up", zap.Time("slot", slot))
		return
	}
	m.runKind(ctx, reports.KindDaily)
	if now.Weekday() == m.schedule.WeeklyDay {
		m.runKind(ctx, reports.KindWeekly)
	}
}

func (m *ReportMonitor) Run(ctx context.Context) {
	log.LogInfo("Starting report monitor",
		zap.Bool("hourly", m.schedule.Hourly),
		zap.Int("dailyHour", m.schedule.DailyHour),
		zap.Int("dailyMinute", m.schedule.DailyMinute),
		zap.String("weeklyDay", m.schedule.WeeklyDay.String()),
		zap.String("timezone", m.loc.String()))

	for {
		now := m.now()
		next, kinds := m.schedule.Next(now, m.loc)
		delay := next.Sub(now)
		log.LogInfo("Next report scheduled", zap.Time("next", next), zap.Duration("delay", delay), zap.Any("kinds", kinds))

		select {
		case <-ctx.Done():
			log.LogInfo("Report monitor stopped")
			return
		case <-m.after(delay):
		}

		for _, kind := range kinds {
			if ctx.Err() != nil {
				return
			}
			m.runKind(ctx, kind)
		}
	}
}

func (m *ReportMonitor) runKind(ctx context.Context, kind reports.Kind) {
	start := time.Now()
	report, err := m.runner.Run(ctx, kind, false)
	switch {
	case errors.Is(err, reports.ErrAlreadySent):
		log.LogDebug("Report already sent", zap.String("kind", string(kind)))
	case err != nil:
		log.LogError("Report failed", zap.String("kind", string(kind)), zap.Error(err))
	default:
		log.LogInfo("Report finished",
			zap.String("kind", string(kind)),
			zap.String("period", report.Period.Key),
			zap.Int("charts", len(report.Charts)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	}
}
