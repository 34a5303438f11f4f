// Package clock supplies the current local calendar date.
//
// WHY ABSTRACT "TODAY" BEHIND AN INTERFACE?
// Streak logic depends entirely on what day it is. If the service called
// time.Now() directly, testing "check in today, then again tomorrow" would
// require actually waiting a day (or mocking the system clock, which Go
// doesn't support). With a one-method interface, tests inject a fixed clock
// and move it forward at will. Production code uses the real system clock.
//
// DATES AS STRINGS — A DELIBERATE CHOICE:
// The whole app represents calendar days as "YYYY-MM-DD" strings (e.g.
// "2025-03-15"). Because the format is zero-padded and fixed-width,
// comparing two date strings with < and > gives the same answer as
// comparing the dates chronologically. That one property lets the streak
// engine and the database work with plain string equality and ordering —
// no time zones, no midnight-boundary bugs, no timestamp maths.
package clock

import "time"

// DateLayout is the canonical calendar-day format used everywhere:
// zero-padded, fixed-width, so lexical order == chronological order.
const DateLayout = "2006-01-02"

// Clock provides the current local calendar date.
type Clock interface {
	// Today returns the current date in DateLayout, local time.
	Today() string
}

// System is the production Clock — it reads the machine's local time.
type System struct{}

func (System) Today() string {
	return time.Now().Format(DateLayout)
}

// Fixed is a Clock pinned to one date. Used by tests to simulate specific
// days and day rollovers.
type Fixed struct {
	Date string
}

func (f Fixed) Today() string {
	return f.Date
}

// Yesterday returns the calendar day before the given date.
//
// CALENDAR ARITHMETIC, NOT TIMESTAMP ARITHMETIC:
// It would be tempting to subtract 24 hours from a timestamp instead. Don't.
// On daylight-saving transition days the local day is 23 or 25 hours long,
// so "now minus 24h" can land on the wrong calendar day. time.AddDate
// operates on date components (year, month, day), which handles DST, leap
// days, and month/year boundaries correctly.
//
// An unparseable input returns "" — callers only pass dates that came from
// Today() or from the database, so this is a programming error, not a
// runtime condition to recover from.
func Yesterday(date string) string {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// ValidDate reports whether s is a real calendar day in DateLayout.
// "2025-02-30" fails here even though it matches the shape.
func ValidDate(s string) bool {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return false
	}
	// time.Parse normalises (Feb 30 → Mar 2), so round-trip to catch that.
	return t.Format(DateLayout) == s
}
