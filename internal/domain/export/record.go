// internal/domain/export/record.go
package export

import (
	"time"
)

// Record is the outcome of one day's data export.
// Corresponds to a row of the exports table.
type Record struct {
	ID         int64
	Date       time.Time
	Successful bool
	Month      int    // 1..12
	Week       int    // ISO-8601 week number
	Year       int
	Weekday    string // Mon, Tue, ...
	CreatedAt  time.Time
}

// NewRecord builds a record for date, deriving the calendar fields from the UTC day.
func NewRecord(date time.Time, successful bool) *Record {
	utc := date.UTC()
	_, week := utc.ISOWeek()
	return &Record{
		Date:       utc,
		Successful: successful,
		Month:      int(utc.Month()),
		Week:       week,
		Year:       utc.Year(),
		Weekday:    utc.Weekday().String()[:3],
	}
}

// DayBounds returns the first and last instant of date's UTC calendar day,
// at the microsecond precision dates are stored with.
func DayBounds(date time.Time) (time.Time, time.Time) {
	utc := date.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Microsecond)
	return start, end
}

// Marker is +1 for a successful export and -1 otherwise.
func (r *Record) Marker() int {
	if r.Successful {
		return 1
	}
	return -1
}
