// Package streak implements the check-in decision logic.
//
// PURE FUNCTIONS — THE EASIEST CODE TO TEST:
// Decide takes plain values in and returns a plain value out. No database,
// no clock, no globals. That's deliberate: this is the one piece of the app
// with real temporal logic, so it lives where it can be tested exhaustively
// with a table of dates. The service layer is responsible for fetching the
// habit, supplying today's date, and persisting whatever Decide says.
//
// This is also the ONLY place streak transitions are computed. The store
// persists whatever it's told; no other component recomputes streak values.
package streak

import "github.com/jonathanm/habit-tracker/internal/clock"

// Result is the outcome of a check-in decision.
type Result struct {
	// AlreadyDone means the habit was checked in today already.
	// Nothing should be written — the check-in is an idempotent no-op.
	AlreadyDone bool
	// NewStreak is the streak value to persist (meaningless when
	// AlreadyDone is true — the current value stands).
	NewStreak int
}

// Decide applies the streak-transition rule:
//
//	last check-in == today     → already done, streak unchanged
//	last check-in == yesterday → streak continues, +1
//	anything else              → streak (re)starts at 1
//
// "Anything else" covers never-checked-in (empty string), a gap of two or
// more days, and — as a deliberate edge case — a FUTURE last check-in.
// A future date can only happen if the system clock went backwards; we
// treat it like "never checked in" and start fresh at 1 rather than trying
// to guess what the clock did.
//
// Dates are "YYYY-MM-DD" strings (see the clock package), so equality
// comparison is exact and yesterday is derived by calendar arithmetic.
func Decide(lastCheckedIn string, currentStreak int, today string) Result {
	if lastCheckedIn == today {
		return Result{AlreadyDone: true, NewStreak: currentStreak}
	}
	if lastCheckedIn != "" && lastCheckedIn == clock.Yesterday(today) {
		return Result{AlreadyDone: false, NewStreak: currentStreak + 1}
	}
	return Result{AlreadyDone: false, NewStreak: 1}
}
