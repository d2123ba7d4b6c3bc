// Package api serves the stored entities over HTTP
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	corslib "github.com/rs/cors"

	"gridiron/ingestion/internal/cache"
	"gridiron/ingestion/internal/ingest"
	"gridiron/ingestion/internal/models"
)

// Refresher runs the ingestion jobs
type Refresher interface {
	Trigger(ctx context.Context, class string)
	RefreshGames(ctx context.Context) ([]models.Game, ingest.Report, error)
	RefreshStatistics(ctx context.Context, force bool) ([]models.GameStatistics, ingest.Report, error)
	GameIDsInWindow(ctx context.Context) ([]int, error)
	Run(ctx context.Context, class string, force bool) (ingest.Report, error)
}

// TeamReader lists stored teams
type TeamReader interface {
	List(ctx context.Context) ([]models.Team, error)
}

// PlayerReader lists stored players
type PlayerReader interface {
	List(ctx context.Context) ([]models.Player, error)
}

// StatsReader lists stored statistics documents
type StatsReader interface {
	List(ctx context.Context) ([]models.GameStatistics, error)
	ListByGames(ctx context.Context, gameIDs []int) ([]models.GameStatistics, error)
}

// RosterStore persists weekly teams
type RosterStore interface {
	Create(ctx context.Context, team models.WeeklyTeam) (models.WeeklyTeam, error)
	Get(ctx context.Context, id uuid.UUID) (models.WeeklyTeam, error)
	List(ctx context.Context, owner uuid.UUID) ([]models.WeeklyTeam, error)
	Update(ctx context.Context, id uuid.UUID, team models.WeeklyTeam) (models.WeeklyTeam, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TTLs sets how long each read endpoint's response stays cached
type TTLs struct {
	Teams   time.Duration
	Players time.Duration
	Games   time.Duration
}

// Deps are the collaborators of the HTTP handlers
type Deps struct {
	Refresher Refresher
	Teams     TeamReader
	Players   PlayerReader
	Stats     StatsReader
	Rosters   RosterStore
	// Health reports store connectivity; nil means always healthy
	Health func(ctx context.Context) error
	// Cache is optional
	Cache          cache.Cache
	TTLs           TTLs
	AllowedOrigins []string
}

// Handler holds shared dependencies for all endpoint handlers
type Handler struct {
	refresher Refresher
	teams     TeamReader
	players   PlayerReader
	stats     StatsReader
	rosters   RosterStore
	health    func(ctx context.Context) error
	cache     cache.Cache
	ttls      TTLs
}

// NewRouter creates the chi router with all middleware and routes
func NewRouter(deps Deps) *chi.Mux {
	h := &Handler{
		refresher: deps.Refresher,
		teams:     deps.Teams,
		players:   deps.Players,
		stats:     deps.Stats,
		rosters:   deps.Rosters,
		health:    deps.Health,
		cache:     deps.Cache,
		ttls:      deps.TTLs,
	}
	if h.cache == nil {
		h.cache = cache.Noop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := corslib.New(corslib.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	r.Use(c.Handler)

	r.Get("/health", h.HealthCheck)

	r.Get("/teams", h.GetTeams)
	r.Get("/players-by-position", h.GetPlayersByPosition)
	r.Get("/games-info", h.GetGamesInfo)

	r.Route("/games", func(r chi.Router) {
		r.Get("/window", h.GetGameWindow)
		r.Get("/statistics/player", h.GetPlayerStatistics)
		r.Get("/statistics/by-games", h.GetStatisticsByGames)
		r.Get("/statistics/update", h.UpdateStatistics)
	})

	r.Post("/admin/refresh/{class}", h.RunRefresh)

	r.Route("/weekly-teams", func(r chi.Router) {
		r.Post("/", h.CreateWeeklyTeam)
		r.Get("/", h.ListWeeklyTeams)
		r.Get("/{id}", h.GetWeeklyTeam)
		r.Put("/{id}", h.UpdateWeeklyTeam)
		r.Delete("/{id}", h.DeleteWeeklyTeam)
	})

	return r
}
