package dates

import (
	"fmt"
	"time"
)

// ShortDate is the institution's day/month/year textual format, two-digit
// day and month.
const ShortDate = "02/01/2006"

// ParseShortDate parses an institution date string. Failures return the zero
// time rather than an error: an unreadable date must flow through the
// pipeline, not sink the record carrying it.
func ParseShortDate(s string) (time.Time, bool) {
	t, err := time.Parse(ShortDate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Month is a canonical (year, month) pair.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf truncates an instant to its calendar month.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns the month's first day at midnight UTC, the derived
// billing-period instant used by the dashboard endpoint.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

func (m Month) String() string {
	return fmt.Sprintf("%d-%02d", m.Year, int(m.Month))
}

// Sequence returns every calendar month from start's month through now's
// month inclusive, in chronological order. A start after now yields only
// now's month.
func Sequence(start, now time.Time) []Month {
	last := MonthOf(now)
	months := []Month{}
	for m := MonthOf(start); !last.First().Before(m.First()); m = m.Next() {
		months = append(months, m)
	}
	if len(months) == 0 {
		months = append(months, last)
	}
	return months
}
