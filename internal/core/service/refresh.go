package service

import (
	"time"

	"oustad/internal/core/domain"
)

// DailyRefresh decides whether a stored snapshot still belongs to today.
// Only the calendar date in the configured location matters.
type DailyRefresh struct {
	location *time.Location
	now      func() time.Time
}

func NewDailyRefresh(location *time.Location) *DailyRefresh {
	if location == nil {
		location = time.Local
	}
	return &DailyRefresh{location: location, now: time.Now}
}

func (d *DailyRefresh) Now() time.Time {
	return d.now().In(d.location)
}

// Today returns the current calendar date as a snapshot date.
func (d *DailyRefresh) Today() string {
	return d.Now().Format(domain.DateLayout)
}

// IsStale reports whether a snapshot written at lastModified must be rebuilt.
// A zero timestamp means nothing was ever written.
func (d *DailyRefresh) IsStale(lastModified time.Time) bool {
	if lastModified.IsZero() {
		return true
	}
	return lastModified.In(d.location).Format(domain.DateLayout) != d.Today()
}

// NextReset returns the next date boundary.
func (d *DailyRefresh) NextReset() time.Time {
	now := d.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, d.location)
}
