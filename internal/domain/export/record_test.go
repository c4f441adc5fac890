package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordDerivesCalendarFields(t *testing.T) {
	rec := NewRecord(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true)

	assert.True(t, rec.Successful)
	assert.Equal(t, 1, rec.Month)
	assert.Equal(t, 1, rec.Week)
	assert.Equal(t, 2024, rec.Year)
	assert.Equal(t, "Fri", rec.Weekday)
}

func TestNewRecordUsesISOWeekAcrossYearBoundary(t *testing.T) {
	// 2020-12-31 belongs to ISO week 53 of 2020, 2021-01-03 too.
	rec := NewRecord(time.Date(2021, 1, 3, 12, 0, 0, 0, time.UTC), false)

	assert.Equal(t, 53, rec.Week)
	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, "Sun", rec.Weekday)
}

func TestNewRecordNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	rec := NewRecord(time.Date(2024, 1, 1, 5, 0, 0, 0, loc), true)

	assert.Equal(t, time.UTC, rec.Date.Location())
	assert.Equal(t, 2023, rec.Year)
	assert.Equal(t, 12, rec.Month)
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999000, time.UTC), end)
	assert.True(t, end.Before(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestMarker(t *testing.T) {
	assert.Equal(t, 1, (&Record{Successful: true}).Marker())
	assert.Equal(t, -1, (&Record{Successful: false}).Marker())
}
