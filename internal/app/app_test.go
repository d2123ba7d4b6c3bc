package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridiron/ingestion/internal/api"
	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Provider:           client.APISportsProvider,
		APISportsKey:       "test-key",
		APISportsBaseURL:   "http://127.0.0.1:1",
		UpstreamTimeout:    time.Second,
		RequestsPerMinute:  600,
		LeagueID:           1,
		Season:             2024,
		TeamIDs:            []int{1, 2},
		FreshnessThreshold: 24 * time.Hour,
		StatsWindowStart:   "2025-01-18",
		StatsWindowDays:    5,
		StoreDriver:        config.DriverMemory,
	}
}

func TestNew_MemoryDriver(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Service)
	assert.Nil(t, a.DB)

	ids, err := a.Service.GameIDsInWindow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	router := api.NewRouter(a.APIDeps())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/weekly-teams", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNew_UnknownRuleset(t *testing.T) {
	cfg := memoryConfig()
	cfg.ScoringRuleset = "ppr"

	_, err := New(context.Background(), cfg, Options{})
	assert.ErrorContains(t, err, "unknown scoring ruleset")
}

func TestNewUpstream(t *testing.T) {
	cfg := memoryConfig()

	up, err := NewUpstream(cfg)
	require.NoError(t, err)
	assert.Equal(t, client.APISportsProvider, up.Provider())

	cfg.Provider = client.SportDevsProvider
	cfg.SportDevsPageSize = 50
	up, err = NewUpstream(cfg)
	require.NoError(t, err)
	assert.Equal(t, client.SportDevsProvider, up.Provider())

	cfg.Provider = "espn"
	_, err = NewUpstream(cfg)
	assert.Error(t, err)

	cfg.Provider = client.APISportsProvider
	cfg.RequestsPerMinute = 0
	_, err = NewUpstream(cfg)
	assert.Error(t, err)
}

func TestDatabaseConfig(t *testing.T) {
	cfg := &config.Config{
		DatabaseHost: "db", DatabasePort: 5433, DatabaseUser: "u",
		DatabasePassword: "p", DatabaseName: "gridiron", DatabaseSSLMode: "require",
	}

	assert.Equal(t, "postgres://u:p@db:5433/gridiron?sslmode=require", DatabaseConfig(cfg).URL())
}
