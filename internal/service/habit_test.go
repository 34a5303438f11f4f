package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonathanm/habit-tracker/internal/apperror"
	"github.com/jonathanm/habit-tracker/internal/clock"
	"github.com/jonathanm/habit-tracker/internal/model"
	"github.com/jonathanm/habit-tracker/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// WHY A HAND-WRITTEN MOCK?
// The service only needs *some* repository.HabitRepository — not SQLite.
// A small in-memory fake keeps these tests fast and, more importantly,
// readable: you can see exactly what the storage layer "did". Libraries
// like github.com/stretchr/testify/mock exist for more elaborate setups;
// for one interface a fake is clearer.

type mockHabitRepo struct {
	habits   map[int64]*model.Habit
	checkins []model.Checkin
	nextID   int64

	// lastHistoryLimit records what limit the service actually asked the
	// store for, so the clamping tests can observe it.
	lastHistoryLimit int
}

func newMockRepo() *mockHabitRepo {
	return &mockHabitRepo{habits: make(map[int64]*model.Habit), nextID: 1}
}

// copyOf hands out an independent copy, the way a real store hands out a
// freshly scanned row. If the mock returned its stored pointer, a caller
// mutating the result would silently rewrite the "database".
func copyOf(h *model.Habit) *model.Habit {
	c := *h
	return &c
}

func (m *mockHabitRepo) Create(ctx context.Context, habit *model.Habit) error {
	habit.ID = m.nextID
	m.nextID++
	if habit.Emoji == "" {
		habit.Emoji = model.DefaultEmoji
	}
	if habit.Colour == "" {
		habit.Colour = model.DefaultColour
	}
	m.habits[habit.ID] = copyOf(habit)
	return nil
}

func (m *mockHabitRepo) List(ctx context.Context, includeArchived bool) ([]model.Habit, error) {
	out := []model.Habit{}
	for _, h := range m.habits {
		if !includeArchived && h.Archived() {
			continue
		}
		out = append(out, *h)
	}
	return out, nil
}

func (m *mockHabitRepo) GetByID(ctx context.Context, id int64) (*model.Habit, error) {
	h, ok := m.habits[id]
	if !ok {
		return nil, apperror.NotFound("habit", id)
	}
	return copyOf(h), nil
}

func (m *mockHabitRepo) Update(ctx context.Context, habit *model.Habit) error {
	stored, ok := m.habits[habit.ID]
	if !ok {
		return apperror.NotFound("habit", habit.ID)
	}
	stored.Name = habit.Name
	stored.Emoji = habit.Emoji
	stored.Colour = habit.Colour
	return nil
}

func (m *mockHabitRepo) Archive(ctx context.Context, id int64) (*model.Habit, error) {
	h, ok := m.habits[id]
	if !ok || h.Archived() {
		return nil, apperror.NotFound("habit", id)
	}
	now := time.Now()
	h.ArchivedAt = &now
	return copyOf(h), nil
}

func (m *mockHabitRepo) Restore(ctx context.Context, id int64) (*model.Habit, error) {
	h, ok := m.habits[id]
	if !ok {
		return nil, apperror.NotFound("habit", id)
	}
	h.ArchivedAt = nil
	return copyOf(h), nil
}

func (m *mockHabitRepo) RecordCheckin(ctx context.Context, id int64, date string, newStreak int) (*model.Habit, error) {
	h, ok := m.habits[id]
	if !ok {
		return nil, apperror.NotFound("habit", id)
	}
	h.CurrentStreak = newStreak
	h.LastCheckedIn = date
	m.checkins = append(m.checkins, model.Checkin{HabitID: id, CheckinDate: date})
	return copyOf(h), nil
}

func (m *mockHabitRepo) History(ctx context.Context, id int64, limit int) ([]model.Checkin, error) {
	m.lastHistoryLimit = limit
	// Newest first, like the real store's ORDER BY checkin_date DESC.
	out := []model.Checkin{}
	for i := len(m.checkins) - 1; i >= 0 && len(out) < limit; i-- {
		if m.checkins[i].HabitID == id {
			out = append(out, m.checkins[i])
		}
	}
	return out, nil
}

func (m *mockHabitRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.habits[id]; !ok {
		return apperror.NotFound("habit", id)
	}
	delete(m.habits, id)
	return nil
}

// Compile-time check: the mock must track the real interface.
var _ repository.HabitRepository = (*mockHabitRepo)(nil)

// =========================================================================
// TEST HELPERS
// =========================================================================

// newTestService builds a service on the mock with a frozen calendar date.
// io.Discard swallows the log output — the tests assert behaviour, not logs.
func newTestService(repo *mockHabitRepo, today string) *HabitService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHabitService(repo, clock.Fixed{Date: today}, logger)
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")

	habit, err := svc.Create(context.Background(), "Read", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if habit.Name != "Read" {
		t.Errorf("Name = %q, want %q", habit.Name, "Read")
	}
	if habit.Emoji != model.DefaultEmoji {
		t.Errorf("Emoji = %q, want default %q", habit.Emoji, model.DefaultEmoji)
	}
	if habit.Colour != model.DefaultColour {
		t.Errorf("Colour = %q, want default %q", habit.Colour, model.DefaultColour)
	}
	if habit.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", habit.CurrentStreak)
	}
}

func TestCreate_TrimsName(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")

	habit, err := svc.Create(context.Background(), "  Meditate  ", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if habit.Name != "Meditate" {
		t.Errorf("Name = %q, want trimmed %q", habit.Name, "Meditate")
	}
}

func TestCreate_Validation(t *testing.T) {
	long := ""
	for i := 0; i < MaxNameLength+1; i++ {
		long += "x"
	}

	tests := []struct {
		testName string
		name     string
		emoji    string
		colour   string
		field    string
	}{
		{"empty name", "", "", "", "name"},
		{"whitespace-only name", "   ", "", "", "name"},
		{"name too long", long, "", "", "name"},
		{"emoji too long", "Read", "🏃🏃🏃🏃🏃🏃🏃🏃🏃", "", "emoji"},
		{"colour not hex", "Read", "", "blue", "colour"},
		{"colour too short", "Read", "", "#fff", "colour"},
		{"colour missing hash", "Read", "", "6c8cff", "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			repo := newMockRepo()
			svc := newTestService(repo, "2025-03-15")

			_, err := svc.Create(context.Background(), tt.name, tt.emoji, tt.colour)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}

			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if len(repo.habits) != 0 {
				t.Error("invalid habit was stored anyway")
			}
		})
	}
}

func TestCreate_MaxLengthNameAllowed(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")

	// Exactly at the limit, and multi-byte: 50 runes of "é" is 100 bytes.
	// A byte-counting implementation would wrongly reject this.
	name := ""
	for i := 0; i < MaxNameLength; i++ {
		name += "é"
	}
	if _, err := svc.Create(context.Background(), name, "", ""); err != nil {
		t.Errorf("Create() with %d-rune name error = %v, want nil", MaxNameLength, err)
	}
}

// =========================================================================
// CHECK-IN
// =========================================================================

// TestCheckin_Lifecycle walks one habit through the states that matter:
// first check-in, repeat on the same day, consecutive day, and a gap.
func TestCheckin_Lifecycle(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, err := svc.Create(context.Background(), "Read", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Day one: streak starts at 1.
	res, err := svc.Checkin(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("Checkin() error = %v", err)
	}
	if res.AlreadyDone || res.Archived {
		t.Errorf("flags = already:%v archived:%v, want neither", res.AlreadyDone, res.Archived)
	}
	if res.Habit.CurrentStreak != 1 || res.Habit.LastCheckedIn != "2025-03-15" {
		t.Errorf("after first check-in: streak=%d last=%q, want 1 and 2025-03-15",
			res.Habit.CurrentStreak, res.Habit.LastCheckedIn)
	}

	// Same day again: flagged, nothing changes.
	res, err = svc.Checkin(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("second Checkin() error = %v", err)
	}
	if !res.AlreadyDone {
		t.Error("second same-day check-in not flagged AlreadyDone")
	}
	if res.Habit.CurrentStreak != 1 {
		t.Errorf("same-day repeat changed streak to %d", res.Habit.CurrentStreak)
	}
	if len(repo.checkins) != 1 {
		t.Errorf("same-day repeat wrote %d history rows, want 1", len(repo.checkins))
	}

	// Next day: consecutive, streak grows.
	svc = newTestService(repo, "2025-03-16")
	res, err = svc.Checkin(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("Checkin() on day two error = %v", err)
	}
	if res.Habit.CurrentStreak != 2 {
		t.Errorf("consecutive-day streak = %d, want 2", res.Habit.CurrentStreak)
	}

	// After a gap: streak resets to 1, not 0 — today still counts.
	svc = newTestService(repo, "2025-03-20")
	res, err = svc.Checkin(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("Checkin() after gap error = %v", err)
	}
	if res.Habit.CurrentStreak != 1 {
		t.Errorf("streak after gap = %d, want 1", res.Habit.CurrentStreak)
	}
	if len(repo.checkins) != 3 {
		t.Errorf("history has %d rows, want 3", len(repo.checkins))
	}
}

func TestCheckin_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), "2025-03-15")

	_, err := svc.Checkin(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCheckin_ArchivedHabitIsRefused(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "", "")
	if _, err := svc.Archive(context.Background(), habit.ID); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	res, err := svc.Checkin(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("Checkin() error = %v, archived check-in is not an error", err)
	}
	if !res.Archived {
		t.Error("check-in on archived habit not flagged Archived")
	}
	if res.Habit.CurrentStreak != 0 || len(repo.checkins) != 0 {
		t.Error("check-in on archived habit mutated state")
	}
}

// =========================================================================
// UPDATE
// =========================================================================

func strPtr(s string) *string { return &s }

func TestUpdate_PartialFields(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "📚", "#112233")

	updated, err := svc.Update(context.Background(), habit.ID, model.UpdateHabitInput{
		Name: strPtr("Read fiction"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Name != "Read fiction" {
		t.Errorf("Name = %q, want %q", updated.Name, "Read fiction")
	}
	// Untouched fields keep their stored values.
	if updated.Emoji != "📚" || updated.Colour != "#112233" {
		t.Errorf("partial update clobbered emoji/colour: %q %q", updated.Emoji, updated.Colour)
	}
}

func TestUpdate_EmptyEmojiRestoresDefault(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "📚", "#112233")

	updated, err := svc.Update(context.Background(), habit.ID, model.UpdateHabitInput{
		Emoji:  strPtr(""),
		Colour: strPtr(""),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Emoji != model.DefaultEmoji || updated.Colour != model.DefaultColour {
		t.Errorf("clearing emoji/colour gave %q %q, want defaults", updated.Emoji, updated.Colour)
	}
}

func TestUpdate_NoFields(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "", "")

	_, err := svc.Update(context.Background(), habit.ID, model.UpdateHabitInput{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation for empty update", err)
	}
}

func TestUpdate_ValidationFailureLeavesStoredHabitAlone(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "", "")

	_, err := svc.Update(context.Background(), habit.ID, model.UpdateHabitInput{
		Name:   strPtr("Renamed"),
		Colour: strPtr("blue"),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	stored, _ := svc.GetByID(context.Background(), habit.ID)
	if stored.Name != "Read" {
		t.Errorf("failed update leaked a partial write: Name = %q", stored.Name)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), "2025-03-15")

	_, err := svc.Update(context.Background(), 404, model.UpdateHabitInput{Name: strPtr("x")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ARCHIVE / RESTORE
// =========================================================================

func TestArchiveAndRestore(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "", "")

	archived, err := svc.Archive(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if !archived.Archived() {
		t.Error("Archive() returned a habit without ArchivedAt set")
	}

	restored, err := svc.Restore(context.Background(), habit.ID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Archived() {
		t.Error("Restore() returned a habit still archived")
	}
}

// =========================================================================
// HISTORY
// =========================================================================

func TestHistory_LimitClamping(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"zero means default", 0, DefaultHistoryLimit},
		{"negative means default", -5, DefaultHistoryLimit},
		{"in range passes through", 14, 14},
		{"above max clamps down", 500, MaxHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc := newTestService(repo, "2025-03-15")
			habit, _ := svc.Create(context.Background(), "Read", "", "")

			if _, err := svc.History(context.Background(), habit.ID, tt.limit); err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if repo.lastHistoryLimit != tt.wantLimit {
				t.Errorf("store asked for limit %d, want %d", repo.lastHistoryLimit, tt.wantLimit)
			}
		})
	}
}

func TestHistory_NotFoundBeatsEmpty(t *testing.T) {
	svc := newTestService(newMockRepo(), "2025-03-15")

	// A missing habit must be NotFound, not a 200 with an empty list —
	// the two mean different things to the client.
	_, err := svc.History(context.Background(), 404, 10)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "", "")

	for _, day := range []string{"2025-03-15", "2025-03-16", "2025-03-17"} {
		svc = newTestService(repo, day)
		if _, err := svc.Checkin(context.Background(), habit.ID); err != nil {
			t.Fatalf("Checkin(%s) error = %v", day, err)
		}
	}

	history, err := svc.History(context.Background(), habit.ID, 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History(limit=2) returned %d rows, want 2", len(history))
	}
	if history[0].CheckinDate != "2025-03-17" || history[1].CheckinDate != "2025-03-16" {
		t.Errorf("history order = [%s %s], want newest first",
			history[0].CheckinDate, history[1].CheckinDate)
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-15")
	habit, _ := svc.Create(context.Background(), "Read", "", "")
	// A check-in creates the habit's lock entry; Delete must clean it up.
	if _, err := svc.Checkin(context.Background(), habit.ID); err != nil {
		t.Fatalf("Checkin() error = %v", err)
	}

	if err := svc.Delete(context.Background(), habit.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), habit.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}

	// The per-habit lock entry goes with it.
	svc.mu.Lock()
	_, ok := svc.locks[habit.ID]
	svc.mu.Unlock()
	if ok {
		t.Error("Delete() left the habit's lock entry behind")
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), "2025-03-15")

	err := svc.Delete(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
