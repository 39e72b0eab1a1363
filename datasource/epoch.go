package datasource

import (
	"time"
)

// mjdUnixEpoch is the modified Julian date of 1970-01-01.
const mjdUnixEpoch = 40587

// Epoch splits t into an integer MJD and seconds since UTC midnight of that day.
func Epoch(t time.Time) (int, float64) {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	mjd := int(midnight.Unix()/86400) + mjdUnixEpoch
	return mjd, t.Sub(midnight).Seconds()
}

// Time converts a time offset in seconds since the start of the data into an
// absolute time.
func (g Geometry) Time(offset float64) time.Time {
	midnight := time.Unix(int64(g.MJD-mjdUnixEpoch)*86400, 0).UTC()
	return midnight.Add(time.Duration((g.StartTime + offset) * float64(time.Second)))
}
