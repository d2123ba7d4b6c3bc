package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/scoring"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const windowLayout = "2006-01-02"

// Config holds all application configuration
type Config struct {
	// Upstream provider
	Provider          string        `envconfig:"PROVIDER" default:"apisports"`
	APISportsKey      string        `envconfig:"APISPORTS_KEY"`
	APISportsBaseURL  string        `envconfig:"APISPORTS_BASE_URL" default:"https://v1.american-football.api-sports.io"`
	APISportsHost     string        `envconfig:"APISPORTS_HOST" default:"v1.american-football.api-sports.io"`
	SportDevsKey      string        `envconfig:"SPORTDEVS_KEY"`
	SportDevsBaseURL  string        `envconfig:"SPORTDEVS_BASE_URL" default:"https://american-football.sportdevs.com"`
	SportDevsPageSize int           `envconfig:"SPORTDEVS_PAGE_SIZE" default:"50"`
	UpstreamTimeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	RequestsPerMinute int           `envconfig:"REQUESTS_PER_MINUTE" default:"10"`

	// Ingestion scope
	LeagueID           int           `envconfig:"LEAGUE_ID" default:"1"`
	Season             int           `envconfig:"SEASON" default:"2024"`
	TeamIDs            []int         `envconfig:"TEAM_IDS" default:"1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24,25,26,27,28,29,30,31,32,33,34"`
	ScoringRuleset     string        `envconfig:"SCORING_RULESET"`
	FreshnessThreshold time.Duration `envconfig:"FRESHNESS_THRESHOLD" default:"24h"`
	StatsWindowStart   string        `envconfig:"STATS_WINDOW_START" default:"2025-01-18"`
	StatsWindowDays    int           `envconfig:"STATS_WINDOW_DAYS" default:"5"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	TeamsPlayersCron   string `envconfig:"TEAMS_PLAYERS_CRON" default:"0 0 0 * * 3"`
	GamesStatsCron     string `envconfig:"GAMES_STATS_CRON" default:"0 37 14 * * 0,1,4,5,6"`

	// Database
	StoreDriver      string `envconfig:"STORE_DRIVER" default:"postgres"`
	RunMigrations    bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"gridiron"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"gridiron"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Caching TTL
	CacheTTLTeams   time.Duration `envconfig:"CACHE_TTL_TEAMS" default:"1h"`
	CacheTTLPlayers time.Duration `envconfig:"CACHE_TTL_PLAYERS" default:"1h"`
	CacheTTLGames   time.Duration `envconfig:"CACHE_TTL_GAMES" default:"10m"`

	// HTTP API
	HTTPPort           int      `envconfig:"HTTP_PORT" default:"8080"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Provider {
	case client.APISportsProvider:
		if c.APISportsKey == "" {
			return errors.New("APISPORTS_KEY is required for the apisports provider")
		}
	case client.SportDevsProvider:
		if c.SportDevsKey == "" {
			return errors.New("SPORTDEVS_KEY is required for the sportdevs provider")
		}
	default:
		return fmt.Errorf("unknown PROVIDER %q", c.Provider)
	}

	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("REQUESTS_PER_MINUTE must be positive, got %d", c.RequestsPerMinute)
	}
	if c.StatsWindowDays <= 0 {
		return fmt.Errorf("STATS_WINDOW_DAYS must be positive, got %d", c.StatsWindowDays)
	}
	if _, err := c.WindowStart(); err != nil {
		return err
	}
	if _, err := scoring.Lookup(c.RulesetName()); err != nil {
		return fmt.Errorf("SCORING_RULESET: %w", err)
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabasePassword == "" {
			return errors.New("DATABASE_PASSWORD is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	return nil
}

// WindowStart parses STATS_WINDOW_START as a UTC date
func (c *Config) WindowStart() (time.Time, error) {
	start, err := time.ParseInLocation(windowLayout, c.StatsWindowStart, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("STATS_WINDOW_START must be YYYY-MM-DD: %w", err)
	}
	return start, nil
}

// RulesetName returns the configured ruleset, defaulting to the provider's
func (c *Config) RulesetName() string {
	if name := strings.TrimSpace(c.ScoringRuleset); name != "" {
		return name
	}
	return c.Provider
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
