package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APISPORTS_KEY", "test-key")
	t.Setenv("DATABASE_PASSWORD", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "apisports", cfg.Provider)
	assert.Equal(t, 10, cfg.RequestsPerMinute)
	assert.Equal(t, 24*time.Hour, cfg.FreshnessThreshold)
	assert.Len(t, cfg.TeamIDs, 34)
	assert.Equal(t, 1, cfg.TeamIDs[0])
	assert.Equal(t, 34, cfg.TeamIDs[33])
	assert.Equal(t, "0 0 0 * * 3", cfg.TeamsPlayersCron)
	assert.Equal(t, "0 37 14 * * 0,1,4,5,6", cfg.GamesStatsCron)
	assert.Equal(t, "apisports", cfg.RulesetName())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)

	start, err := cfg.WindowStart()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC), start)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PROVIDER", "sportdevs")
	t.Setenv("SPORTDEVS_KEY", "devs-key")
	t.Setenv("TEAM_IDS", "7,3")
	t.Setenv("SCORING_RULESET", "apisports")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int{7, 3}, cfg.TeamIDs)
	assert.Equal(t, "apisports", cfg.RulesetName())
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider:          "apisports",
			APISportsKey:      "k",
			RequestsPerMinute: 10,
			StatsWindowStart:  "2025-01-18",
			StatsWindowDays:   5,
			StoreDriver:       DriverPostgres,
			DatabasePassword:  "p",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "espn" }, "unknown PROVIDER"},
		{"missing provider key", func(c *Config) { c.APISportsKey = "" }, "APISPORTS_KEY"},
		{"sportdevs key", func(c *Config) { c.Provider = "sportdevs" }, "SPORTDEVS_KEY"},
		{"zero rate", func(c *Config) { c.RequestsPerMinute = 0 }, "REQUESTS_PER_MINUTE"},
		{"zero window", func(c *Config) { c.StatsWindowDays = 0 }, "STATS_WINDOW_DAYS"},
		{"bad window start", func(c *Config) { c.StatsWindowStart = "18/01/2025" }, "YYYY-MM-DD"},
		{"unknown ruleset", func(c *Config) { c.ScoringRuleset = "ppr" }, "SCORING_RULESET"},
		{"missing password", func(c *Config) { c.DatabasePassword = "" }, "DATABASE_PASSWORD"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, "STORE_DRIVER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.wantErr)
		})
	}

	memory := valid()
	memory.StoreDriver = DriverMemory
	memory.DatabasePassword = ""
	assert.NoError(t, memory.Validate())
}

func TestConnectionStrings(t *testing.T) {
	cfg := &Config{
		DatabaseHost: "db", DatabasePort: 5432, DatabaseUser: "u", DatabasePassword: "p",
		DatabaseName: "gridiron", DatabaseSSLMode: "disable",
		RedisHost: "cache", RedisPort: 6379,
		AppEnv: "production",
	}

	assert.Equal(t, "postgres://u:p@db:5432/gridiron?sslmode=disable", cfg.DatabaseDSN())
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
