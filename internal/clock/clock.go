// Package clock converts absolute instants to the civil date and
// time-of-day of the booking timezone.
package clock

import "time"

// Location is the fixed booking timezone (IST, UTC+5:30). Bookings are
// interpreted at a constant offset; the zone has no DST transitions.
var Location = time.FixedZone("IST", 5*3600+30*60)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02T15:04"
)

// Clock supplies the current instant. Handlers take it as a dependency so
// tests can pin "now".
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now().In(Location)
}

// Fixed always reports the same instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant.In(Location)
}

// CivilDate returns the calendar date (YYYY-MM-DD) of t in the booking zone.
func CivilDate(t time.Time) string {
	return t.In(Location).Format(dateLayout)
}

// CivilTime returns the 24-hour time of day (HH:mm) of t in the booking zone.
func CivilTime(t time.Time) string {
	return t.In(Location).Format(timeLayout)
}

// MinuteOfDay returns minutes elapsed since local midnight for t.
func MinuteOfDay(t time.Time) int {
	local := t.In(Location)
	return local.Hour()*60 + local.Minute()
}

// Compose parses a civil date (YYYY-MM-DD) and time of day (HH:mm) into an
// absolute instant in the booking zone.
func Compose(date, timeOfDay string) (time.Time, error) {
	return time.ParseInLocation(dateTimeLayout, date+"T"+timeOfDay, Location)
}
