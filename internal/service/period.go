package service

import (
	"errors"
	"time"

	"github.com/savedfeast/api/internal/enum"
)

var (
	// ErrUnsupportedPeriod is returned for any period keyword other than weekly.
	ErrUnsupportedPeriod = errors.New("unsupported invoice period")
	// ErrPeriodNotClosed is returned for a window that has not ended yet.
	// Orders completed later in that week could never be invoiced.
	ErrPeriodNotClosed = errors.New("invoice period has not ended yet")
)

// Period is a settlement window. Start is a Monday 00:00:00 and End the
// following Sunday 23:59:59, both in the configured location.
type Period struct {
	Start time.Time
	End   time.Time
}

// before is the exclusive upper bound used when selecting orders.
func (p Period) before() time.Time {
	return p.End.Add(time.Second)
}

// WeekContaining returns the Monday-to-Sunday week that contains t in loc.
func WeekContaining(t time.Time, loc *time.Location) Period {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
	end := time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, 0, loc)
	return Period{Start: start, End: end}
}

// PreviousWeek returns the calendar week before the one containing now.
func PreviousWeek(now time.Time, loc *time.Location) Period {
	current := WeekContaining(now, loc)
	return WeekContaining(current.Start.AddDate(0, 0, -1), loc)
}

// ResolvePeriod validates the keyword and returns the window to invoice.
// start, when set, selects the week containing it; otherwise the previous
// calendar week relative to now is used. The window must have ended
// before now.
func ResolvePeriod(keyword string, start *time.Time, now time.Time, loc *time.Location) (Period, error) {
	switch keyword {
	case enum.InvoicePeriodWeekly, enum.InvoicePeriodPrevious:
	default:
		return Period{}, ErrUnsupportedPeriod
	}
	if start == nil {
		return PreviousWeek(now, loc), nil
	}
	p := WeekContaining(*start, loc)
	if !p.before().After(now) {
		return p, nil
	}
	return Period{}, ErrPeriodNotClosed
}
