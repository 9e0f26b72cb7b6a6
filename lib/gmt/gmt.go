// Package gmt converts seconds since the Unix epoch into civil date and time
// fields on the proleptic Gregorian calendar.
//
// The conversion is pure integer arithmetic and is valid far outside the
// 1970..9999 window (negative years and years past 9999 included). Leap
// seconds are not modelled: every day has 86400 seconds.
package gmt

import "fmt"

const (
	SECONDS_PER_MINUTE = 60
	MINUTES_PER_HOUR   = 60
	SECONDS_PER_DAY    = 86400

	// DAYS_PER_ERA is the length of the 400 year Gregorian cycle
	DAYS_PER_ERA = 146097

	// EPOCH_SHIFT is the day number of 1970-01-01 counted from 0000-03-01
	EPOCH_SHIFT = 719468
)

// SecondsToDHMS splits seconds since the epoch into whole days and the
// hour, minute and second within the last day.
func SecondsToDHMS(seconds uint64) (days uint64, hour, minute, second uint8) {
	days = seconds / SECONDS_PER_DAY
	rest := uint32(seconds % SECONDS_PER_DAY)
	second = uint8(rest % SECONDS_PER_MINUTE)
	rest = rest / SECONDS_PER_MINUTE
	minute = uint8(rest % MINUTES_PER_HOUR)
	hour = uint8(rest / MINUTES_PER_HOUR)
	return days, hour, minute, second
}

// DaysToCivil converts a count of days since 1970-01-01 (negative before it)
// into year, month (1-12) and day (1-31).
//
// Implementation notes:
//   - Days are re-based on 0000-03-01 so the leap day is the last day of
//     the computational year.
//   - era is the 400 year cycle, floored for negative day counts.
//   - yoe (year of era, 0-399) corrects for the 4/100/400 leap rules
//     using truncated divisions of the day of era.
//   - mp numbers months from March (0) to February (11) and is mapped back
//     to January based months at the end; January and February belong to
//     the following civil year.
func DaysToCivil(days int64) (year int64, month, day uint8) {
	days = days + EPOCH_SHIFT
	era := days
	if era < 0 {
		era = era - (DAYS_PER_ERA - 1)
	}
	era = era / DAYS_PER_ERA

	var (
		doe = days - era*DAYS_PER_ERA
		yoe = (doe - doe/1460 + doe/36524 - doe/146096) / 365
		doy = doe - (365*yoe + yoe/4 - yoe/100)
		mp  = (5*doy + 2) / 153
		d   = doy - (153*mp+2)/5 + 1
		m   = mp + 3
	)
	if mp >= 10 {
		m = mp - 9
	}
	year = yoe + era*400
	if m <= 2 {
		year = year + 1
	}
	return year, uint8(m), uint8(d)
}

// Decomposed is a point in time broken down into UTC calendar fields.
// Values are only produced by Parse and never change afterwards.
type Decomposed struct {
	year   int64
	month  uint8
	day    uint8
	hour   uint8
	minute uint8
	second uint8
}

// Parse decomposes seconds since the Unix epoch.
func Parse(seconds uint64) Decomposed {
	days, hour, minute, second := SecondsToDHMS(seconds)
	year, month, day := DaysToCivil(int64(days))
	return Decomposed{
		year:   year,
		month:  month,
		day:    day,
		hour:   hour,
		minute: minute,
		second: second,
	}
}

func (d Decomposed) Year() int64   { return d.year }
func (d Decomposed) Month() uint8  { return d.month }
func (d Decomposed) Day() uint8    { return d.day }
func (d Decomposed) Hour() uint8   { return d.hour }
func (d Decomposed) Minute() uint8 { return d.minute }
func (d Decomposed) Second() uint8 { return d.second }

// IsZero reports whether d is the zero value rather than the result of
// Parse. Parse never yields month 0.
func (d Decomposed) IsZero() bool {
	return d.month == 0
}

// String renders the value as an ISO 8601 UTC timestamp.
func (d Decomposed) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ",
		d.year, d.month, d.day, d.hour, d.minute, d.second)
}
