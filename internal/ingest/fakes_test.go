package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/freshness"
	"gridiron/ingestion/internal/models"
	"gridiron/ingestion/internal/normalizer"
	"gridiron/ingestion/internal/repository"
	"gridiron/ingestion/internal/scoring"
)

var clock = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

// fakeUpstream serves canned api-sports payloads and records every call
type fakeUpstream struct {
	mu      sync.Mutex
	teams   map[int][]json.RawMessage
	players map[int][]json.RawMessage
	games   []json.RawMessage
	stats   map[int][]json.RawMessage
	fail    map[string]error
	calls   []string
	// onCall runs before each response, outside the lock, with the ctx the
	// call was made with
	onCall func(ctx context.Context, call string)
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		teams:   map[int][]json.RawMessage{},
		players: map[int][]json.RawMessage{},
		stats:   map[int][]json.RawMessage{},
		fail:    map[string]error{},
	}
}

func (f *fakeUpstream) Provider() string { return client.APISportsProvider }

func (f *fakeUpstream) record(ctx context.Context, call string) error {
	if f.onCall != nil {
		f.onCall(ctx, call)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeUpstream) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeUpstream) FetchTeams(ctx context.Context, q client.Query) ([]json.RawMessage, error) {
	call := fmt.Sprintf("teams:%d", q.TeamID)
	if err := f.record(ctx, call); err != nil {
		return nil, err
	}
	return f.teams[q.TeamID], nil
}

func (f *fakeUpstream) FetchPlayers(ctx context.Context, q client.Query) ([]json.RawMessage, error) {
	call := fmt.Sprintf("players:%d", q.TeamID)
	if err := f.record(ctx, call); err != nil {
		return nil, err
	}
	return f.players[q.TeamID], nil
}

func (f *fakeUpstream) FetchGames(ctx context.Context, q client.Query) ([]json.RawMessage, error) {
	if err := f.record(ctx, fmt.Sprintf("games:%d", q.LeagueID)); err != nil {
		return nil, err
	}
	return f.games, nil
}

func (f *fakeUpstream) FetchGameStatistics(ctx context.Context, q client.Query) ([]json.RawMessage, error) {
	call := fmt.Sprintf("stats:%d", q.GameID)
	if err := f.record(ctx, call); err != nil {
		return nil, err
	}
	return f.stats[q.GameID], nil
}

// recordingCache remembers invalidated keys
type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (c *recordingCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (c *recordingCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

func teamJSON(id int, name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id": %d, "name": %q, "code": %q}`, id, name, strings.ToUpper(name[:3])))
}

func playerJSON(id int, name, position string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id": %d, "name": %q, "position": %q, "number": 8}`, id, name, position))
}

func gameJSON(id int, start time.Time) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"game": {"id": %d, "date": {"timestamp": %d}, "status": {"short": "FT", "long": "Finished"}},
		"league": {"id": 1, "season": 2024},
		"teams": {"home": {"id": 1, "name": "Home"}, "away": {"id": 2, "name": "Away"}},
		"scores": {"home": {"total": 24}, "away": {"total": 17}}
	}`, id, start.Unix()))
}

func statsJSON(teamID, playerID int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"team": {"id": %d, "name": "Team %d"},
		"groups": [{"name": "Passing", "players": [{
			"player": {"id": %d, "name": "Passer"},
			"statistics": [
				{"name": "yards", "value": "250"},
				{"name": "passing touch downs", "value": 2},
				{"name": "interceptions", "value": "1"}
			]
		}]}]
	}`, teamID, teamID, playerID))
}

// flakyStats rejects the documents of the listed teams until allowed
type flakyStats struct {
	*repository.MemoryStats
	mu     sync.Mutex
	reject map[int]bool
}

func (s *flakyStats) allow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = nil
}

func (s *flakyStats) UpsertBatch(ctx context.Context, docs []models.GameStatistics) (models.UpsertResult, error) {
	s.mu.Lock()
	reject := s.reject
	s.mu.Unlock()

	var (
		result models.UpsertResult
		errs   []error
	)
	for _, doc := range docs {
		if reject[doc.TeamID] {
			result.Failed++
			errs = append(errs, fmt.Errorf("team %d: write rejected", doc.TeamID))
			continue
		}
		r, err := s.MemoryStats.UpsertBatch(ctx, []models.GameStatistics{doc})
		result.Add(r)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return result, errors.Join(errs...)
}

type fixture struct {
	svc      *Service
	upstream *fakeUpstream
	store    *repository.Memory
	cache    *recordingCache
}

func newFixture(t *testing.T, teamIDs ...int) *fixture {
	t.Helper()
	store := repository.NewMemory()
	return buildFixture(t, store, store.Stats, teamIDs)
}

// newFlakyFixture stores statistics through a flakyStats that rejects the
// given teams
func newFlakyFixture(t *testing.T, reject ...int) (*fixture, *flakyStats) {
	t.Helper()
	store := repository.NewMemory()
	stats := &flakyStats{MemoryStats: store.Stats, reject: map[int]bool{}}
	for _, id := range reject {
		stats.reject[id] = true
	}
	return buildFixture(t, store, stats, nil), stats
}

func buildFixture(t *testing.T, store *repository.Memory, stats StatisticsStore, teamIDs []int) *fixture {
	t.Helper()

	upstream := newFakeUpstream()
	rc := &recordingCache{}

	svc, err := NewService(Config{
		LeagueID:    1,
		Season:      2024,
		TeamIDs:     teamIDs,
		WindowStart: time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC),
		WindowDays:  5,
	}, Deps{
		Upstream:   upstream,
		Normalizer: normalizer.APISports{},
		Ruleset:    scoring.APISports,
		Policy:     freshness.Policy{Threshold: 24 * time.Hour, Now: func() time.Time { return clock }},
		Stores: Stores{
			Teams:   store.Teams,
			Players: store.Players,
			Games:   store.Games,
			Stats:   stats,
		},
		Cache: rc,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, upstream: upstream, store: store, cache: rc}
}
