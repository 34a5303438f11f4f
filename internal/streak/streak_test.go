package streak

import "testing"

// Every branch of the transition rule, as a table. The dates are fixed
// strings — no real clock involved, which is the whole point of keeping
// Decide pure.

func TestDecide(t *testing.T) {
	cases := []struct {
		name            string
		lastCheckedIn   string
		currentStreak   int
		today           string
		wantAlreadyDone bool
		wantNewStreak   int
	}{
		{
			name:            "never checked in starts at 1",
			lastCheckedIn:   "",
			currentStreak:   0,
			today:           "2025-03-15",
			wantAlreadyDone: false,
			wantNewStreak:   1,
		},
		{
			name:            "same day is idempotent",
			lastCheckedIn:   "2025-03-15",
			currentStreak:   4,
			today:           "2025-03-15",
			wantAlreadyDone: true,
			wantNewStreak:   4,
		},
		{
			name:            "yesterday continues the streak",
			lastCheckedIn:   "2025-03-14",
			currentStreak:   4,
			today:           "2025-03-15",
			wantAlreadyDone: false,
			wantNewStreak:   5,
		},
		{
			name:            "two-day gap resets to 1",
			lastCheckedIn:   "2025-03-13",
			currentStreak:   9,
			today:           "2025-03-15",
			wantAlreadyDone: false,
			wantNewStreak:   1,
		},
		{
			name:            "long gap resets to 1",
			lastCheckedIn:   "2024-11-02",
			currentStreak:   30,
			today:           "2025-03-15",
			wantAlreadyDone: false,
			wantNewStreak:   1,
		},
		{
			name:            "streak continues across month boundary",
			lastCheckedIn:   "2025-02-28",
			currentStreak:   2,
			today:           "2025-03-01",
			wantAlreadyDone: false,
			wantNewStreak:   3,
		},
		{
			name:            "streak continues across leap day",
			lastCheckedIn:   "2024-02-29",
			currentStreak:   1,
			today:           "2024-03-01",
			wantAlreadyDone: false,
			wantNewStreak:   2,
		},
		{
			name:            "streak continues across year boundary",
			lastCheckedIn:   "2024-12-31",
			currentStreak:   6,
			today:           "2025-01-01",
			wantAlreadyDone: false,
			wantNewStreak:   7,
		},
		{
			// Clock skew: last check-in is in the future. Treated exactly
			// like "never checked in" — reset to 1, don't guess.
			name:            "future last check-in resets to 1",
			lastCheckedIn:   "2025-03-20",
			currentStreak:   5,
			today:           "2025-03-15",
			wantAlreadyDone: false,
			wantNewStreak:   1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.lastCheckedIn, tc.currentStreak, tc.today)
			if got.AlreadyDone != tc.wantAlreadyDone {
				t.Errorf("AlreadyDone = %v, want %v", got.AlreadyDone, tc.wantAlreadyDone)
			}
			if got.NewStreak != tc.wantNewStreak {
				t.Errorf("NewStreak = %d, want %d", got.NewStreak, tc.wantNewStreak)
			}
		})
	}
}

// TestDecide_SpecScenario walks the exact multi-day scenario from the
// product requirements: check in, repeat same day, next day, then after a
// gap.
func TestDecide_SpecScenario(t *testing.T) {
	// Fresh habit, first check-in on 2025-03-15.
	r := Decide("", 0, "2025-03-15")
	if r.AlreadyDone || r.NewStreak != 1 {
		t.Fatalf("first check-in: got %+v, want streak 1", r)
	}

	// Same day again — no change.
	r = Decide("2025-03-15", 1, "2025-03-15")
	if !r.AlreadyDone || r.NewStreak != 1 {
		t.Fatalf("duplicate check-in: got %+v, want alreadyDone with streak 1", r)
	}

	// Next day — streak grows to 2.
	r = Decide("2025-03-15", 1, "2025-03-16")
	if r.AlreadyDone || r.NewStreak != 2 {
		t.Fatalf("consecutive day: got %+v, want streak 2", r)
	}

	// Four-day gap — back to 1.
	r = Decide("2025-03-16", 2, "2025-03-20")
	if r.AlreadyDone || r.NewStreak != 1 {
		t.Fatalf("after gap: got %+v, want streak reset to 1", r)
	}
}
