package reports

import (
	"fmt"
	"path"
	"strings"
	"time"
)

type Kind string

const (
	KindHourly Kind = "hourly"
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHourly, KindDaily, KindWeekly:
		return k, nil
	default:
		return "", fmt.Errorf("unknown report kind %q (want hourly, daily or weekly)", s)
	}
}

// Period is the reporting window [From, To) in the report time zone.
// Key identifies the period in the sent-report ledger.
type Period struct {
	Kind Kind
	From time.Time
	To   time.Time
	Key  string
}

// Previous is the window of equal length right before p, used for
// comparison lines. Hourly periods have none.
func (p Period) Previous() (time.Time, time.Time, bool) {
	switch p.Kind {
	case KindDaily:
		return p.From.AddDate(0, 0, -1), p.From, true
	case KindWeekly:
		return p.From.AddDate(0, 0, -7), p.From, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Days is the number of calendar days the period covers.
func (p Period) Days() int {
	switch p.Kind {
	case KindWeekly:
		return 7
	default:
		return 1
	}
}

// PeriodFor returns the last complete period of kind at now.
//
// hourly: from local midnight of the last full hour to the top of the current hour
// daily:  yesterday
// weekly: the 7 days ending at today's midnight
func PeriodFor(kind Kind, now time.Time, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := startOfDay(now, loc)

	switch kind {
	case KindHourly:
		to := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, loc)
		lastHour := to.Add(-time.Hour)
		return Period{
			Kind: kind,
			From: startOfDay(lastHour, loc),
			To:   to,
			Key:  lastHour.Format("2006-01-02T15"),
		}, nil
	case KindDaily:
		from := today.AddDate(0, 0, -1)
		return Period{Kind: kind, From: from, To: today, Key: from.Format("2006-01-02")}, nil
	case KindWeekly:
		from := today.AddDate(0, 0, -7)
		return Period{Kind: kind, From: from, To: today, Key: from.Format("2006-01-02") + "_7d"}, nil
	default:
		return Period{}, fmt.Errorf("unknown report kind %q", kind)
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ObjectKey is the storage key of a chart image:
// <prefix>/<kind>/<YYYYMMDD-HHMM>/<chart>.png
func ObjectKey(prefix string, kind Kind, at time.Time, chart string) string {
	return path.Join(prefix, string(kind), at.Format("20060102-1504"), chart+".png")
}
