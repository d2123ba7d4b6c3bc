// Package app wires the configured stores, provider client and ingestion
// service together for the worker and the CLI.
package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/api"
	"gridiron/ingestion/internal/cache"
	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/config"
	"gridiron/ingestion/internal/freshness"
	"gridiron/ingestion/internal/ingest"
	"gridiron/ingestion/internal/normalizer"
	"gridiron/ingestion/internal/ratelimit"
	"gridiron/ingestion/internal/repository"
	"gridiron/ingestion/internal/scoring"
)

// App is a fully wired ingestion service
type App struct {
	Config  *config.Config
	Service *ingest.Service
	Cache   cache.Cache
	// DB is nil for the memory store driver
	DB *repository.Database

	stores  ingest.Stores
	readers readers
	closers []func()
}

type readers struct {
	teams   api.TeamReader
	players api.PlayerReader
	stats   api.StatsReader
	rosters api.RosterStore
}

// Options toggles the optional parts of the wiring
type Options struct {
	// Migrate applies pending migrations after connecting
	Migrate bool
	// Cache connects to Redis; failure falls back to no caching
	Cache bool
}

// New connects the stores and builds the ingestion service
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Cache: cache.Noop{}}

	if err := a.openStores(ctx, opts.Migrate); err != nil {
		return nil, err
	}
	if opts.Cache {
		a.openCache()
	}

	upstream, err := NewUpstream(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	norm, err := normalizer.ForProvider(cfg.Provider)
	if err != nil {
		a.Close()
		return nil, err
	}
	ruleset, err := scoring.Lookup(cfg.RulesetName())
	if err != nil {
		a.Close()
		return nil, err
	}
	windowStart, err := cfg.WindowStart()
	if err != nil {
		a.Close()
		return nil, err
	}

	svc, err := ingest.NewService(ingest.Config{
		LeagueID:    cfg.LeagueID,
		Season:      cfg.Season,
		TeamIDs:     cfg.TeamIDs,
		WindowStart: windowStart,
		WindowDays:  cfg.StatsWindowDays,
	}, ingest.Deps{
		Upstream:   upstream,
		Normalizer: norm,
		Ruleset:    ruleset,
		Policy:     freshness.NewPolicy(cfg.FreshnessThreshold),
		Stores:     a.stores,
		Cache:      a.Cache,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build ingestion service: %w", err)
	}
	a.Service = svc
	a.closers = append(a.closers, svc.Stop)

	log.Info().
		Str("provider", cfg.Provider).
		Str("ruleset", ruleset.Name()).
		Str("store", cfg.StoreDriver).
		Int("teams", len(cfg.TeamIDs)).
		Msg("Ingestion service ready")
	return a, nil
}

func (a *App) openStores(ctx context.Context, migrate bool) error {
	cfg := a.Config
	if cfg.StoreDriver == config.DriverMemory {
		mem := repository.NewMemory()
		a.stores = ingest.Stores{Teams: mem.Teams, Players: mem.Players, Games: mem.Games, Stats: mem.Stats}
		a.readers = readers{teams: mem.Teams, players: mem.Players, stats: mem.Stats, rosters: mem.Rosters}
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return nil
	}

	db, err := repository.NewDatabase(ctx, DatabaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if migrate {
		if err := db.Migrate(); err != nil {
			a.Close()
			return err
		}
	}

	a.stores = ingest.Stores{Teams: db.Teams, Players: db.Players, Games: db.Games, Stats: db.Stats}
	a.readers = readers{teams: db.Teams, players: db.Players, stats: db.Stats, rosters: db.Rosters}
	return nil
}

func (a *App) openCache() {
	cfg := a.Config
	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		return
	}
	a.Cache = redisCache
	a.closers = append(a.closers, func() { _ = redisCache.Close() })
	log.Info().Msg("Redis cache connected")
}

// APIDeps returns the HTTP API's collaborators backed by the app's stores
func (a *App) APIDeps() api.Deps {
	deps := api.Deps{
		Refresher:      a.Service,
		Teams:          a.readers.teams,
		Players:        a.readers.players,
		Stats:          a.readers.stats,
		Rosters:        a.readers.rosters,
		Cache:          a.Cache,
		AllowedOrigins: a.Config.CORSAllowedOrigins,
		TTLs: api.TTLs{
			Teams:   a.Config.CacheTTLTeams,
			Players: a.Config.CacheTTLPlayers,
			Games:   a.Config.CacheTTLGames,
		},
	}
	if a.DB != nil {
		deps.Health = a.DB.Health
	}
	return deps
}

// Close releases connections in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewUpstream builds the rate-limited client of the configured provider
func NewUpstream(cfg *config.Config) (client.Upstream, error) {
	limiter, err := ratelimit.New(cfg.RequestsPerMinute)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("provider", cfg.Provider).
		Int("requests_per_minute", cfg.RequestsPerMinute).
		Dur("interval", limiter.Interval()).
		Msg("Upstream rate limit configured")

	switch cfg.Provider {
	case client.APISportsProvider:
		return client.NewAPISportsClient(client.Config{
			BaseURL: cfg.APISportsBaseURL,
			Timeout: cfg.UpstreamTimeout,
		}, cfg.APISportsHost, cfg.APISportsKey, limiter), nil
	case client.SportDevsProvider:
		return client.NewSportDevsClient(client.Config{
			BaseURL: cfg.SportDevsBaseURL,
			Timeout: cfg.UpstreamTimeout,
		}, cfg.SportDevsKey, cfg.SportDevsPageSize, limiter), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// DatabaseConfig maps the environment configuration onto the repository's
func DatabaseConfig(cfg *config.Config) repository.Config {
	return repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}
}
