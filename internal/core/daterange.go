package core

import (
	"fmt"
	"sync"
	"time"
)

// ZoneName is the gym's fixed civil-day timezone. Every daily and
// monthly range is interpreted in this zone and converted to UTC
// instants for range queries.
const ZoneName = "America/Mexico_City"

var (
	zoneOnce sync.Once
	zone     *time.Location
)

func gymZone() *time.Location {
	zoneOnce.Do(func() {
		loc, err := time.LoadLocation(ZoneName)
		if err != nil {
			// Mexico City abolished DST in 2022; the fixed offset is
			// the correct fallback when tzdata is unavailable.
			loc = time.FixedZone("CST", -6*60*60)
		}
		zone = loc
	})
	return zone
}

// Zone returns the gym's civil-day location.
func Zone() *time.Location {
	return gymZone()
}

// ParseCivilDate validates a YYYY-MM-DD string and returns midnight of
// that civil day in the gym zone.
func ParseCivilDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, gymZone())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidRange, date)
	}
	return t, nil
}

// DayRange returns the UTC instants [start, end) covering one civil day.
func DayRange(date string) (start, end time.Time, err error) {
	day, err := ParseCivilDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}

// MonthRange returns the UTC instants [start, end) covering one civil
// month given in YYYY-MM form, plus the first and last civil dates of
// the month for date-column filters.
func MonthRange(month string) (start, end time.Time, firstDay, lastDay string, err error) {
	t, err := time.ParseInLocation("2006-01", month, gymZone())
	if err != nil {
		return time.Time{}, time.Time{}, "", "", fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidRange, month)
	}
	next := t.AddDate(0, 1, 0)
	firstDay = t.Format("2006-01-02")
	lastDay = next.AddDate(0, 0, -1).Format("2006-01-02")
	return t.UTC(), next.UTC(), firstDay, lastDay, nil
}
