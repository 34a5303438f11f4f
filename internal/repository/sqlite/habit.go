package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/jonathanm/habit-tracker/internal/apperror"
	"github.com/jonathanm/habit-tracker/internal/model"
	"github.com/jonathanm/habit-tracker/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *DB to the interface type. If *DB
// stops implementing HabitRepository (say, a method signature drifts), the
// compiler errors right here instead of at some distant call site.
var _ repository.HabitRepository = (*DB)(nil)

// habitColumns is the canonical SELECT list. Keeping it in one constant
// means every query scans the same columns in the same order — scanHabit
// depends on that order.
const habitColumns = `id, name, emoji, colour, current_streak, last_checked_in, archived_at, created_at`

// scanHabit reads one habits row into a model.Habit.
//
// NULLABLE COLUMNS:
// last_checked_in and archived_at can be NULL, and you can't scan NULL into
// a plain string or time.Time. sql.NullString/sql.NullTime are the standard
// bridge: Valid says whether the column was NULL. We translate NULL
// last_checked_in to "" (never checked in) and NULL archived_at to a nil
// pointer (active).
func scanHabit(row interface{ Scan(...any) error }) (*model.Habit, error) {
	var (
		h           model.Habit
		lastChecked sql.NullString
		archivedAt  sql.NullTime
	)
	err := row.Scan(
		&h.ID, &h.Name, &h.Emoji, &h.Colour,
		&h.CurrentStreak, &lastChecked, &archivedAt, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastChecked.Valid {
		h.LastCheckedIn = lastChecked.String
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		h.ArchivedAt = &t
	}
	return &h, nil
}

// nullableDate converts our "empty string means NULL" convention back into
// something the driver writes as SQL NULL.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns habits newest-created first, filtering archived ones out
// unless asked for.
func (db *DB) List(ctx context.Context, includeArchived bool) ([]model.Habit, error) {
	// Two queries instead of string-building a WHERE clause — SQL stays
	// static and obviously injection-free.
	query := `SELECT ` + habitColumns + `
		 FROM habits
		 WHERE archived_at IS NULL
		 ORDER BY created_at DESC, id DESC`
	if includeArchived {
		query = `SELECT ` + habitColumns + `
		 FROM habits
		 ORDER BY created_at DESC, id DESC`
	}

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing habits: %w", err)
	}
	// sql.Rows holds a pool connection — forgetting Close leaks it.
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning habit row: %w", err)
		}
		habits = append(habits, *h)
	}
	// rows.Err catches failures that happened DURING iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating habits: %w", err)
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	return habits, nil
}

// Create inserts a new habit and fills in its assigned ID and stored state.
//
// The id comes from INTEGER PRIMARY KEY AUTOINCREMENT — SQLite assigns the
// next positive integer and LastInsertId returns it. (Unlike snippet-style
// apps that generate string IDs in Go, the habit API exposes small numeric
// ids, so we let the database number the rows.)
func (db *DB) Create(ctx context.Context, habit *model.Habit) error {
	emoji := habit.Emoji
	if emoji == "" {
		emoji = model.DefaultEmoji
	}
	colour := habit.Colour
	if colour == "" {
		colour = model.DefaultColour
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO habits (name, emoji, colour) VALUES (?, ?, ?)`,
		habit.Name, emoji, colour,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating habit: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new habit id: %w", err)
	}

	// Read the row back so the caller sees exactly what was stored —
	// including the database-assigned created_at and applied defaults.
	stored, err := db.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("sqlite: reading back created habit: %w", err)
	}
	*habit = *stored
	return nil
}

// GetByID retrieves a single habit, archived or not.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Habit, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)

	h, err := scanHabit(row)
	if err != nil {
		// sql.ErrNoRows is not really an error — it means "no such row".
		// Translate it to the domain's NotFound so the handler returns 404.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("habit", id)
		}
		return nil, fmt.Errorf("sqlite: getting habit %d: %w", id, err)
	}
	return h, nil
}

// Update writes the editable fields (name, emoji, colour). Streak state and
// timestamps are owned by check-in recording and are never touched here.
func (db *DB) Update(ctx context.Context, habit *model.Habit) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE habits SET name = ?, emoji = ?, colour = ? WHERE id = ?`,
		habit.Name, habit.Emoji, habit.Colour, habit.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating habit %d: %w", habit.ID, err)
	}

	// RowsAffected tells us whether the WHERE clause matched anything.
	// 0 rows changed → the habit doesn't exist.
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("habit", habit.ID)
	}
	return nil
}

// Archive soft-deletes a habit by stamping archived_at.
//
// The `AND archived_at IS NULL` guard makes double-archiving report
// not-found, exactly like archiving a habit that never existed: in both
// cases there is no active habit with that id. Streak and history are
// untouched — archive hides, it doesn't destroy.
func (db *DB) Archive(ctx context.Context, id int64) (*model.Habit, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE habits SET archived_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND archived_at IS NULL`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: archiving habit %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("habit", id)
	}
	return db.GetByID(ctx, id)
}

// Restore clears archived_at. Restoring an already-active habit is a
// harmless no-op (the UPDATE matches, sets NULL to NULL); only a missing id
// is not-found.
func (db *DB) Restore(ctx context.Context, id int64) (*model.Habit, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE habits SET archived_at = NULL WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: restoring habit %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("habit", id)
	}
	return db.GetByID(ctx, id)
}

// RecordCheckin persists a successful check-in: the new streak value, the
// new last_checked_in date, and the per-day history row — atomically.
//
// WHY A TRANSACTION?
// Two writes must succeed or fail together. If the streak update landed but
// the history insert didn't (crash between statements), current_streak
// would claim a day that the history table can't prove. BEGIN...COMMIT
// makes the pair all-or-nothing.
//
// INSERT OR IGNORE:
// The UNIQUE(habit_id, checkin_date) constraint means a second insert for
// the same day would error. OR IGNORE turns that into a silent no-op, which
// is what we want — the service already decided this check-in is valid; if
// a racing request inserted the row a microsecond earlier, the state we
// wanted is simply already there.
func (db *DB) RecordCheckin(ctx context.Context, id int64, date string, newStreak int) (*model.Habit, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning check-in transaction: %w", err)
	}
	// Rollback after Commit is a harmless no-op, so a single deferred
	// Rollback covers every early-return error path below.
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE habits SET current_streak = ?, last_checked_in = ? WHERE id = ?`,
		newStreak, nullableDate(date), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating streak for habit %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("habit", id)
	}

	// xid gives a sortable, URL-safe unique id for the history row.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO habit_checkins (id, habit_id, checkin_date)
		 VALUES (?, ?, ?)`,
		xid.New().String(), id, date,
	); err != nil {
		return nil, fmt.Errorf("sqlite: inserting check-in for habit %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing check-in for habit %d: %w", id, err)
	}

	return db.GetByID(ctx, id)
}

// History returns the habit's check-in records, most recent day first.
// The limit is clamped by the service; this layer just applies it.
func (db *DB) History(ctx context.Context, id int64, limit int) ([]model.Checkin, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, habit_id, checkin_date, created_at
		 FROM habit_checkins
		 WHERE habit_id = ?
		 ORDER BY checkin_date DESC
		 LIMIT ?`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing check-ins for habit %d: %w", id, err)
	}
	defer rows.Close()

	checkins := make([]model.Checkin, 0, limit)
	for rows.Next() {
		var c model.Checkin
		if err := rows.Scan(&c.ID, &c.HabitID, &c.CheckinDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning check-in row: %w", err)
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating check-ins: %w", err)
	}
	return checkins, nil
}

// Delete permanently removes a habit. The foreign key's ON DELETE CASCADE
// removes its habit_checkins rows in the same statement — no orphans.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting habit %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("habit", id)
	}
	return nil
}
