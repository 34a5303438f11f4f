package repository

import (
	"context"

	"github.com/jonathanm/habit-tracker/internal/model"
)

// HabitRepository is the persistence contract for habits and their per-day
// check-in history. The service layer depends on this interface, not on the
// sqlite package — tests substitute an in-memory mock, and the storage
// engine could be swapped without touching business logic.
type HabitRepository interface {
	// List returns habits newest-created first. Archived habits are
	// excluded unless includeArchived is true.
	List(ctx context.Context, includeArchived bool) ([]model.Habit, error)

	// Create inserts the habit, applying default emoji/colour for empty
	// fields, and fills in the assigned ID and CreatedAt.
	Create(ctx context.Context, habit *model.Habit) error

	GetByID(ctx context.Context, id int64) (*model.Habit, error)

	// Update persists name, emoji and colour. ID, streak state and
	// timestamps are never written by Update.
	Update(ctx context.Context, habit *model.Habit) error

	// Archive soft-deletes the habit. Archiving a missing or
	// already-archived habit returns a not-found error.
	Archive(ctx context.Context, id int64) (*model.Habit, error)

	// Restore clears the archived state. Restoring an active habit is a
	// harmless no-op; only a missing id is an error.
	Restore(ctx context.Context, id int64) (*model.Habit, error)

	// RecordCheckin atomically sets current_streak and last_checked_in and
	// inserts the per-day check-in row if one doesn't already exist for
	// (id, date). Returns the refreshed habit.
	RecordCheckin(ctx context.Context, id int64, date string, newStreak int) (*model.Habit, error)

	// History returns check-in records for the habit, most recent
	// checkin_date first, capped at limit.
	History(ctx context.Context, id int64, limit int) ([]model.Checkin, error)

	// Delete permanently removes the habit and (by cascade) its check-ins.
	Delete(ctx context.Context, id int64) error
}
