// Package sqlite implements the repository interface using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a
// single file. No separate database server to install, configure, or
// manage. For a single-process personal app like this, it's the right
// amount of database: durable, transactional, zero infrastructure.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a
// C compiler installed and cross-compilation becomes painful.
// modernc.org/sqlite is a pure Go translation of the SQLite C code — no C
// compiler needed, works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// `_ "modernc.org/sqlite"` is a side-effect-only import. The package's
	// init() registers itself with database/sql as a driver named "sqlite".
	// After this import, sql.Open("sqlite", ...) knows how to talk to
	// SQLite. This is Go's plugin pattern — drivers register at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.HabitRepository.
// Wrapping the pool in our own struct lets us attach methods, control the
// lifecycle (New creates, Close destroys), and keep migration logic here.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/habits.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	// sql.Open does NOT actually connect — it just creates a pool manager.
	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// ONE CONNECTION, THREE REASONS:
	// 1. SQLite allows a single writer at a time; with a bigger pool,
	//    concurrent writes surface as SQLITE_BUSY errors instead of just
	//    queueing on the pool.
	// 2. PRAGMAs below are per-connection — with one connection they are
	//    guaranteed to apply to every query we ever run.
	// 3. Each ":memory:" connection is its OWN empty database; a pool of
	//    them would silently give tests different databases per query.
	conn.SetMaxOpenConns(1)

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the whole database during writes. WAL allows
	// concurrent reads WHILE a write is happening — important for a web
	// server where list requests and check-ins overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We need them ON: deleting a habit must cascade-delete its check-in
	// rows, and that cascade is declared via a foreign key.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool. Always defer this next to New — it
// flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema if it doesn't exist yet. CREATE TABLE IF NOT
// EXISTS is idempotent, so this runs safely on every startup.
func (db *DB) migrate() error {
	// The habits table. Column notes:
	//   last_checked_in — "YYYY-MM-DD" string, NULL until first check-in.
	//     Stored as TEXT deliberately: the format sorts chronologically,
	//     so date comparisons in SQL are plain string comparisons.
	//   archived_at — NULL means active; set means soft-deleted.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS habits (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT NOT NULL,
			emoji           TEXT NOT NULL DEFAULT '⭐',
			colour          TEXT NOT NULL DEFAULT '#6c8cff',
			current_streak  INTEGER NOT NULL DEFAULT 0,
			last_checked_in TEXT,
			archived_at     DATETIME,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_habits_created_at ON habits(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating habits table: %w", err)
	}

	// Per-day check-in history.
	//
	// UNIQUE(habit_id, checkin_date) is the backstop invariant: no matter
	// what races happen above this layer, the database physically cannot
	// hold two check-ins for the same habit on the same day.
	//
	// ON DELETE CASCADE means deleting a habit automatically deletes its
	// history rows — no orphans, and no second DELETE statement to forget.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS habit_checkins (
			id           TEXT PRIMARY KEY,
			habit_id     INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
			checkin_date TEXT NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (habit_id, checkin_date)
		);
		CREATE INDEX IF NOT EXISTS idx_habit_checkins_habit_date
			ON habit_checkins(habit_id, checkin_date DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating habit_checkins table: %w", err)
	}

	return nil
}
