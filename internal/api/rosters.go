package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gridiron/ingestion/internal/models"
)

const maxBodyBytes = 1 << 20

func decodeWeeklyTeam(w http.ResponseWriter, r *http.Request) (models.WeeklyTeam, bool) {
	var in models.WeeklyTeamInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Request body must be a weekly team JSON object")
		return models.WeeklyTeam{}, false
	}

	team, err := in.ToWeeklyTeam()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return models.WeeklyTeam{}, false
	}
	return team, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// CreateWeeklyTeam stores a new weekly team
func (h *Handler) CreateWeeklyTeam(w http.ResponseWriter, r *http.Request) {
	team, ok := decodeWeeklyTeam(w, r)
	if !ok {
		return
	}

	created, err := h.rosters.Create(r.Context(), team)
	if err != nil {
		writeFailure(w, r, err, "Failed to create weekly team")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListWeeklyTeams lists weekly teams, optionally for one owner
func (h *Handler) ListWeeklyTeams(w http.ResponseWriter, r *http.Request) {
	owner := uuid.Nil
	if raw := strings.TrimSpace(r.URL.Query().Get("ownerId")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "ownerId must be a UUID")
			return
		}
		owner = parsed
	}

	teams, err := h.rosters.List(r.Context(), owner)
	if err != nil {
		writeFailure(w, r, err, "Failed to list weekly teams")
		return
	}
	if teams == nil {
		teams = []models.WeeklyTeam{}
	}
	writeJSON(w, http.StatusOK, teams)
}

// GetWeeklyTeam returns one weekly team
func (h *Handler) GetWeeklyTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	team, err := h.rosters.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "Weekly team not found")
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// UpdateWeeklyTeam replaces a weekly team's contents
func (h *Handler) UpdateWeeklyTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	team, ok := decodeWeeklyTeam(w, r)
	if !ok {
		return
	}

	updated, err := h.rosters.Update(r.Context(), id, team)
	if err != nil {
		writeFailure(w, r, err, "Failed to update weekly team")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteWeeklyTeam removes a weekly team
func (h *Handler) DeleteWeeklyTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.rosters.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err, "Failed to delete weekly team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
