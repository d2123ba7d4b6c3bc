package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gridiron/ingestion/internal/cache"
	"gridiron/ingestion/internal/ingest"
	"gridiron/ingestion/internal/models"
)

// HealthCheck reports store connectivity
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":    "unhealthy",
				"database":  "disconnected",
				"timestamp": now,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": now,
	})
}

// GetTeams returns every stored team and refreshes stale teams in the
// background
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	h.refresher.Trigger(r.Context(), ingest.ClassTeams)

	teams, err := cache.Fetch(r.Context(), h.cache, cache.KeyTeams, h.ttls.Teams, h.teams.List)
	if err != nil {
		writeFailure(w, r, err, "Failed to load teams")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// GetPlayersByPosition buckets stored players by position. Each query
// parameter key names a position; unknown keys are ignored and no keys
// selects every position.
func (h *Handler) GetPlayersByPosition(w http.ResponseWriter, r *http.Request) {
	h.refresher.Trigger(r.Context(), ingest.ClassPlayers)

	var filter []string
	for key := range r.URL.Query() {
		filter = append(filter, strings.ToUpper(strings.TrimSpace(key)))
	}
	slices.Sort(filter)

	buckets, err := cache.Fetch(r.Context(), h.cache, cache.PlayersKey(filter), h.ttls.Players,
		func(ctx context.Context) (map[string][]models.Player, error) {
			players, err := h.players.List(ctx)
			if err != nil {
				return nil, err
			}
			return models.GroupByPosition(players, filter), nil
		})
	if err != nil {
		writeFailure(w, r, err, "Failed to load players")
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

// GetGamesInfo refreshes the game list if stale and returns every stored game
func (h *Handler) GetGamesInfo(w http.ResponseWriter, r *http.Request) {
	games, err := cache.Fetch(r.Context(), h.cache, cache.KeyGames, h.ttls.Games,
		func(ctx context.Context) ([]models.Game, error) {
			games, _, err := h.refresher.RefreshGames(ctx)
			return games, err
		})
	if err != nil {
		writeFailure(w, r, err, "Failed to update games")
		return
	}
	if games == nil {
		games = []models.Game{}
	}
	writeJSON(w, http.StatusOK, dataResponse[[]models.Game]{Data: games})
}

// GetGameWindow returns the ids of games inside the statistics window
func (h *Handler) GetGameWindow(w http.ResponseWriter, r *http.Request) {
	ids, err := h.refresher.GameIDsInWindow(r.Context())
	if err != nil {
		writeFailure(w, r, err, "Failed to select games")
		return
	}
	if ids == nil {
		ids = []int{}
	}
	writeJSON(w, http.StatusOK, dataResponse[[]int]{Data: ids})
}

// GetPlayerStatistics returns stored statistics documents, optionally for
// one game and narrowed to one player's lines
func (h *Handler) GetPlayerStatistics(w http.ResponseWriter, r *http.Request) {
	gameID, hasGame, err := optionalInt(r, "gameId")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	playerID, hasPlayer, err := optionalInt(r, "playerId")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var docs []models.GameStatistics
	if hasGame {
		docs, err = h.stats.ListByGames(r.Context(), []int{gameID})
	} else {
		docs, err = h.stats.List(r.Context())
	}
	if err != nil {
		writeFailure(w, r, err, "Failed to load statistics")
		return
	}

	if hasPlayer {
		filtered := make([]models.GameStatistics, 0, len(docs))
		for _, doc := range docs {
			if narrowed, ok := doc.ForPlayer(playerID); ok {
				filtered = append(filtered, narrowed)
			}
		}
		docs = filtered
	}

	if len(docs) == 0 {
		writeError(w, http.StatusNotFound, CodeNotFound, "No statistics match the given criteria")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// GetStatisticsByGames nests the statistics of the listed games as
// game id -> team id -> player id -> line
func (h *Handler) GetStatisticsByGames(w http.ResponseWriter, r *http.Request) {
	ids, err := intList(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	docs, err := h.stats.ListByGames(r.Context(), ids)
	if err != nil {
		writeFailure(w, r, err, "Failed to load statistics")
		return
	}
	if len(docs) == 0 {
		writeError(w, http.StatusNotFound, CodeNotFound, "No statistics found for the given games")
		return
	}
	writeJSON(w, http.StatusOK, models.NestByTeamAndPlayer(docs))
}

// UpdateStatistics force-refreshes statistics for the games in the window
func (h *Handler) UpdateStatistics(w http.ResponseWriter, r *http.Request) {
	docs, _, err := h.refresher.RefreshStatistics(r.Context(), true)
	if err != nil {
		writeFailure(w, r, err, "Failed to update statistics")
		return
	}
	if docs == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "No statistics found for upcoming games")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// RunRefresh runs one entity class's job synchronously and returns its report
func (h *Handler) RunRefresh(w http.ResponseWriter, r *http.Request) {
	class := chi.URLParam(r, "class")
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "force must be a boolean")
			return
		}
		force = parsed
	}

	rep, err := h.refresher.Run(r.Context(), class, force)
	switch {
	case errors.Is(err, ingest.ErrUnknownClass):
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	case err != nil:
		writeFailure(w, r, err, "Refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func optionalInt(r *http.Request, name string) (int, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errors.New(name + " must be an integer")
	}
	return n, true, nil
}

func intList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids is required")
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.New("ids must be a comma separated list of integers")
		}
		ids = append(ids, n)
	}
	return ids, nil
}
