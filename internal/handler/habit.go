package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jonathanm/habit-tracker/internal/model"
	"github.com/jonathanm/habit-tracker/internal/service"
)

// HabitHandler translates HTTP requests into HabitService calls and service
// results into JSON. It knows about status codes and request bodies; it
// knows nothing about streaks, validation rules, or SQL — that's the layers
// below.
type HabitHandler struct {
	habits *service.HabitService
	logger *slog.Logger
}

func NewHabitHandler(habits *service.HabitService, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: habits, logger: logger}
}

// createHabitRequest is the expected POST body. A separate request struct
// (rather than decoding straight into model.Habit) means clients can't
// smuggle in fields like id or current_streak.
type createHabitRequest struct {
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Colour string `json:"colour"`
}

// checkinResponse is a habit plus the check-in outcome flags, mirroring the
// habit's own JSON shape with already_done / archived appended.
type checkinResponse struct {
	*model.Habit
	AlreadyDone bool `json:"already_done,omitempty"`
	Archived    bool `json:"archived,omitempty"`
}

// habitID pulls the {id} URL parameter and parses it. Writes the error
// response itself and returns ok=false so callers can just `return`.
func (h *HabitHandler) habitID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "habit id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// HandleList returns all habits, newest first.
//
// HTTP: GET /api/habits            → active habits
// HTTP: GET /api/habits?include_archived=true → everything
func (h *HabitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	habits, err := h.habits.List(r.Context(), includeArchived)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

// HandleCreate makes a new habit.
//
// HTTP: POST /api/habits
// BODY: {"name": "Read", "emoji": "📚", "colour": "#6c8cff"}
// Emoji and colour are optional; the service applies defaults.
func (h *HabitHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	habit, err := h.habits.Create(r.Context(), req.Name, req.Emoji, req.Colour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

// HandleGetByID returns a single habit.
//
// HTTP: GET /api/habits/{id}
func (h *HabitHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	habit, err := h.habits.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/habits/{id}
// BODY: any subset of {"name","emoji","colour"} — absent fields keep their
// stored values (pointer fields distinguish "absent" from "empty").
func (h *HabitHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	var input model.UpdateHabitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	habit, err := h.habits.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// HandleCheckin records today's check-in.
//
// HTTP: PUT /api/habits/{id}/checkin
//
// The response is the habit plus outcome flags:
//   - fresh check-in:     habit with its new streak
//   - second time today:  {"already_done": true, ...unchanged habit}
//   - archived habit:     {"archived": true, ...unchanged habit}
//
// All three are 200s — the request was understood and answered; the flags
// tell the UI which message to show.
func (h *HabitHandler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	result, err := h.habits.Checkin(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkinResponse{
		Habit:       result.Habit,
		AlreadyDone: result.AlreadyDone,
		Archived:    result.Archived,
	})
}

// HandleArchive soft-deletes a habit.
//
// HTTP: PUT /api/habits/{id}/archive
// Archiving an already-archived (or missing) habit → 404.
func (h *HabitHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	habit, err := h.habits.Archive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// HandleRestore un-archives a habit.
//
// HTTP: PUT /api/habits/{id}/restore
func (h *HabitHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	habit, err := h.habits.Restore(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// HandleHistory returns recent check-in records, newest first.
//
// HTTP: GET /api/habits/{id}/history?limit=30
// A missing or unparseable limit means the default; the service clamps it.
func (h *HabitHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw) // bad input → 0 → default
	}

	checkins, err := h.habits.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkins)
}

// HandleDelete permanently removes a habit and its history.
//
// HTTP: DELETE /api/habits/{id} → 204 No Content
func (h *HabitHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.habitID(w, r)
	if !ok {
		return
	}

	if err := h.habits.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
