// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Default card appearance applied when a habit is created without an
// explicit emoji or colour.
const (
	DefaultEmoji  = "⭐"
	DefaultColour = "#6c8cff"
)

// Habit represents one tracked habit and its streak state.
//
// The `json:"..."` tags control how encoding/json serialises the struct.
// Field names are snake_case on the wire because that's what the front end
// (and the habits table) uses — current_streak, last_checked_in, etc.
//
// NULLABLE FIELDS:
//   - LastCheckedIn is a "YYYY-MM-DD" string; the empty string means the
//     habit has never been checked in (stored as NULL).
//   - ArchivedAt is a *time.Time; nil means the habit is active. A pointer
//     is Go's usual way to say "this value might be absent" — it marshals
//     to JSON null when nil.
type Habit struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Emoji         string     `json:"emoji"`
	Colour        string     `json:"colour"`
	CurrentStreak int        `json:"current_streak"`
	LastCheckedIn string     `json:"last_checked_in,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Archived reports whether the habit is soft-deleted.
// Derived from ArchivedAt rather than stored as a separate flag —
// one source of truth, nothing to keep in sync.
func (h *Habit) Archived() bool {
	return h.ArchivedAt != nil
}

// Checkin is one immutable per-day proof of completion. Rows are only ever
// inserted (by a successful check-in) or removed (by cascade when the habit
// is deleted) — never updated.
type Checkin struct {
	ID          string    `json:"id"`
	HabitID     int64     `json:"habit_id"`
	CheckinDate string    `json:"checkin_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateHabitInput carries a partial update: nil means "leave this field
// alone", a non-nil pointer means "set it to this value". This is how the
// API distinguishes "emoji not sent" from "emoji sent as empty string".
type UpdateHabitInput struct {
	Name   *string `json:"name,omitempty"`
	Emoji  *string `json:"emoji,omitempty"`
	Colour *string `json:"colour,omitempty"`
}
