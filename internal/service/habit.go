// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// The service is where the habit lifecycle rules live: what makes a valid
// habit, what happens on check-in, what an archived habit may and may not
// do. It depends on the repository INTERFACE (not the sqlite package) and
// on an injected clock, so tests drive it with an in-memory mock and a
// fixed date — no database, no waiting for midnight.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jonathanm/habit-tracker/internal/apperror"
	"github.com/jonathanm/habit-tracker/internal/clock"
	"github.com/jonathanm/habit-tracker/internal/model"
	"github.com/jonathanm/habit-tracker/internal/repository"
	"github.com/jonathanm/habit-tracker/internal/streak"
)

// Validation limits. Name and emoji limits count CHARACTERS (runes), not
// bytes — "🏃" is one character but four bytes, and users shouldn't be
// penalised for picking multi-byte emoji.
const (
	MaxNameLength  = 50
	MaxEmojiLength = 8

	MinHistoryLimit     = 1
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 90
)

// colourPattern accepts exactly a 6-digit hex colour like #6c8cff.
// Compiled once at package load — MustCompile panics on a bad pattern,
// which is what you want for a constant regex (it's a programming error).
var colourPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CheckinResult is what a check-in attempt reports back.
//
// Note that neither flag is an error: "you already did this today" and
// "this habit is archived" are normal, reportable outcomes. The habit is
// returned unmutated in both cases.
type CheckinResult struct {
	Habit       *model.Habit
	AlreadyDone bool
	Archived    bool
}

// HabitService orchestrates validation, the streak engine and the store.
type HabitService struct {
	repo   repository.HabitRepository
	clock  clock.Clock
	logger *slog.Logger

	// Per-habit check-in locks. See Checkin for why these exist.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewHabitService wires the service up. The caller (the composition root in
// internal/server) decides which repository and clock implementation to use.
func NewHabitService(repo repository.HabitRepository, clk clock.Clock, logger *slog.Logger) *HabitService {
	return &HabitService{
		repo:   repo,
		clock:  clk,
		logger: logger,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// habitLock returns the mutex for one habit id, creating it on first use.
// The outer s.mu only guards the map itself — it's held for nanoseconds,
// never across database calls.
func (s *HabitService) habitLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// validateName trims and checks a habit name. Returns the cleaned value.
func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.ValidationFailed("name", "habit name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("habit name must be %d characters or less", MaxNameLength))
	}
	return name, nil
}

func validateEmoji(raw string) (string, error) {
	emoji := strings.TrimSpace(raw)
	if utf8.RuneCountInString(emoji) > MaxEmojiLength {
		return "", apperror.ValidationFailed("emoji",
			fmt.Sprintf("emoji must be %d characters or less", MaxEmojiLength))
	}
	return emoji, nil
}

func validateColour(raw string) (string, error) {
	colour := strings.TrimSpace(raw)
	if colour != "" && !colourPattern.MatchString(colour) {
		return "", apperror.ValidationFailed("colour",
			"colour must be a 6-digit hex value like #6c8cff")
	}
	return colour, nil
}

// Create validates input and stores a new habit. Empty emoji/colour fall
// back to the defaults (star and #6c8cff) in the repository.
func (s *HabitService) Create(ctx context.Context, rawName, rawEmoji, rawColour string) (*model.Habit, error) {
	name, err := validateName(rawName)
	if err != nil {
		return nil, err
	}
	emoji, err := validateEmoji(rawEmoji)
	if err != nil {
		return nil, err
	}
	colour, err := validateColour(rawColour)
	if err != nil {
		return nil, err
	}

	habit := &model.Habit{Name: name, Emoji: emoji, Colour: colour}
	if err := s.repo.Create(ctx, habit); err != nil {
		s.logger.Error("failed to create habit",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating habit: %w", err)
	}

	s.logger.Info("habit created",
		slog.Int64("id", habit.ID),
		slog.String("name", habit.Name),
	)
	return habit, nil
}

// List returns habits newest first, hiding archived ones by default.
func (s *HabitService) List(ctx context.Context, includeArchived bool) ([]model.Habit, error) {
	habits, err := s.repo.List(ctx, includeArchived)
	if err != nil {
		s.logger.Error("failed to list habits", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	return habits, nil
}

// GetByID fetches one habit (archived or active).
func (s *HabitService) GetByID(ctx context.Context, id int64) (*model.Habit, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update: only the fields present in the input
// change, the rest keep their stored values.
//
// STRATEGY: fetch then update. Fetching first confirms the habit exists
// (consistent NotFound), gives us the current values to merge into, and
// lets us return the full updated habit.
func (s *HabitService) Update(ctx context.Context, id int64, input model.UpdateHabitInput) (*model.Habit, error) {
	if input.Name == nil && input.Emoji == nil && input.Colour == nil {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}

	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate only what was supplied. A failed validation returns before
	// anything is written — the stored habit is untouched.
	if input.Name != nil {
		name, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		habit.Name = name
	}
	if input.Emoji != nil {
		emoji, err := validateEmoji(*input.Emoji)
		if err != nil {
			return nil, err
		}
		if emoji == "" {
			emoji = model.DefaultEmoji
		}
		habit.Emoji = emoji
	}
	if input.Colour != nil {
		colour, err := validateColour(*input.Colour)
		if err != nil {
			return nil, err
		}
		if colour == "" {
			colour = model.DefaultColour
		}
		habit.Colour = colour
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		s.logger.Error("failed to update habit",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating habit: %w", err)
	}

	s.logger.Info("habit updated", slog.Int64("id", habit.ID))
	return habit, nil
}

// Checkin records today's check-in for a habit.
//
// THE SEQUENCE (read → decide → write) MUST BE ATOMIC PER HABIT:
// Imagine two check-in requests for habit 5 arriving together. Without a
// lock, both read streak=3, both decide streak=4, and the streak silently
// loses a day (or worse, both insert history rows — the UNIQUE constraint
// stops that one, but not the stale-read double-write on the streak).
// Holding a per-habit mutex across the whole sequence serializes them: the
// second request re-reads AFTER the first committed, sees today's date, and
// reports alreadyDone. Requests for DIFFERENT habits don't contend — each
// id has its own mutex.
func (s *HabitService) Checkin(ctx context.Context, id int64) (*CheckinResult, error) {
	lock := s.habitLock(id)
	lock.Lock()
	defer lock.Unlock()

	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Archived habits keep their streak and history for display but reject
	// new check-ins. This is a reportable state, not an error.
	if habit.Archived() {
		s.logger.Info("check-in on archived habit", slog.Int64("id", id))
		return &CheckinResult{Habit: habit, Archived: true}, nil
	}

	today := s.clock.Today()
	decision := streak.Decide(habit.LastCheckedIn, habit.CurrentStreak, today)

	if decision.AlreadyDone {
		// Idempotent no-op: same state, flagged so the UI can say
		// "already done today" instead of animating a new check-in.
		return &CheckinResult{Habit: habit, AlreadyDone: true}, nil
	}

	updated, err := s.repo.RecordCheckin(ctx, id, today, decision.NewStreak)
	if err != nil {
		s.logger.Error("failed to record check-in",
			slog.Int64("id", id),
			slog.String("date", today),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording check-in: %w", err)
	}

	s.logger.Info("habit checked in",
		slog.Int64("id", id),
		slog.String("date", today),
		slog.Int("streak", updated.CurrentStreak),
	)
	return &CheckinResult{Habit: updated}, nil
}

// Archive soft-deletes a habit. Surfaces NotFound for missing ids and for
// habits that are already archived.
func (s *HabitService) Archive(ctx context.Context, id int64) (*model.Habit, error) {
	habit, err := s.repo.Archive(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("habit archived", slog.Int64("id", id))
	return habit, nil
}

// Restore brings an archived habit back into the active list.
func (s *HabitService) Restore(ctx context.Context, id int64) (*model.Habit, error) {
	habit, err := s.repo.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("habit restored", slog.Int64("id", id))
	return habit, nil
}

// History returns the habit's most recent check-in records, newest first.
// The limit is clamped to [MinHistoryLimit, MaxHistoryLimit]; zero or
// negative means the default.
func (s *HabitService) History(ctx context.Context, id int64, limit int) ([]model.Checkin, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit < MinHistoryLimit {
		limit = MinHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	// Fetch the habit first so a bad id reports NotFound rather than an
	// empty history — the two cases mean different things to the caller.
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	checkins, err := s.repo.History(ctx, id, limit)
	if err != nil {
		s.logger.Error("failed to fetch history",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	return checkins, nil
}

// Delete permanently removes a habit and all of its check-in history.
func (s *HabitService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// The habit's lock entry is no longer needed; drop it so the map
	// doesn't grow forever across create/delete cycles.
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	s.logger.Info("habit deleted", slog.Int64("id", id))
	return nil
}
