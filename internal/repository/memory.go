package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gridiron/ingestion/internal/models"

	"github.com/google/uuid"
)

// table is a keyed record set guarded by a lock. Writers to different keys
// never conflict; writers to the same key are last-write-wins.
type table[K comparable, V any] struct {
	mu   sync.RWMutex
	rows map[K]V
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: make(map[K]V)}
}

// put stores v under key and reports whether the key was new
func (t *table[K, V]) put(key K, v V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, existed := t.rows[key]
	t.rows[key] = v
	return !existed
}

func (t *table[K, V]) get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[key]
	return v, ok
}

func (t *table[K, V]) remove(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rows[key]
	delete(t.rows, key)
	return ok
}

// removeWhere deletes every row matching match and returns how many went
func (t *table[K, V]) removeWhere(match func(V) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, v := range t.rows {
		if match(v) {
			delete(t.rows, k)
			n++
		}
	}
	return n
}

// filter returns the matching rows sorted with cmpFn
func (t *table[K, V]) filter(keep func(V) bool, cmpFn func(a, b V) int) []V {
	t.mu.RLock()
	out := make([]V, 0, len(t.rows))
	for _, v := range t.rows {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	t.mu.RUnlock()

	slices.SortFunc(out, cmpFn)
	return out
}

func putAll[K comparable, V any](ctx context.Context, t *table[K, V], entity string, records []V, key func(V) K) (models.UpsertResult, error) {
	return upsertEach(ctx, entity, records,
		func(v V) string { return fmt.Sprint(key(v)) },
		func(ctx context.Context, v V) (bool, error) {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			return t.put(key(v), v), nil
		},
	)
}

// Memory is a process-local store with the same query surface as the
// postgres repositories. Used by the memory store driver and in tests.
type Memory struct {
	Teams   *MemoryTeams
	Players *MemoryPlayers
	Games   *MemoryGames
	Stats   *MemoryStats
	Rosters *MemoryRosters
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		Teams:   &MemoryTeams{rows: newTable[int, models.Team]()},
		Players: &MemoryPlayers{rows: newTable[int, models.Player]()},
		Games:   &MemoryGames{rows: newTable[int, models.Game]()},
		Stats:   &MemoryStats{rows: newTable[statsKey, models.GameStatistics]()},
		Rosters: &MemoryRosters{rows: newTable[uuid.UUID, models.WeeklyTeam](), now: time.Now},
	}
}

// MemoryTeams stores teams keyed by team id
type MemoryTeams struct {
	rows *table[int, models.Team]
}

func (m *MemoryTeams) UpsertBatch(ctx context.Context, teams []models.Team) (models.UpsertResult, error) {
	return putAll(ctx, m.rows, "teams", teams, func(t models.Team) int { return t.TeamID })
}

func (m *MemoryTeams) LastUpdated(_ context.Context, teamID int) (time.Time, error) {
	t, _ := m.rows.get(teamID)
	return t.LastUpdated, nil
}

func (m *MemoryTeams) List(_ context.Context) ([]models.Team, error) {
	return m.rows.filter(nil, func(a, b models.Team) int { return cmp.Compare(a.TeamID, b.TeamID) }), nil
}

func (m *MemoryTeams) GetByTeamID(_ context.Context, teamID int) (models.Team, error) {
	t, ok := m.rows.get(teamID)
	if !ok {
		return models.Team{}, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}
	return t, nil
}

// MemoryPlayers stores players keyed by player id
type MemoryPlayers struct {
	rows *table[int, models.Player]
}

func (m *MemoryPlayers) UpsertBatch(ctx context.Context, players []models.Player) (models.UpsertResult, error) {
	return putAll(ctx, m.rows, "players", players, func(p models.Player) int { return p.PlayerID })
}

func (m *MemoryPlayers) LastUpdatedForTeam(ctx context.Context, teamID int) (time.Time, error) {
	players, _ := m.ListByTeam(ctx, teamID)
	var newest time.Time
	for _, p := range players {
		if p.LastUpdated.After(newest) {
			newest = p.LastUpdated
		}
	}
	return newest, nil
}

func (m *MemoryPlayers) List(_ context.Context) ([]models.Player, error) {
	return m.rows.filter(nil, comparePlayers), nil
}

func (m *MemoryPlayers) ListByTeam(_ context.Context, teamID int) ([]models.Player, error) {
	return m.rows.filter(func(p models.Player) bool { return p.TeamID == teamID }, comparePlayers), nil
}

func comparePlayers(a, b models.Player) int { return cmp.Compare(a.PlayerID, b.PlayerID) }

// MemoryGames stores games keyed by game id
type MemoryGames struct {
	rows *table[int, models.Game]
}

func (m *MemoryGames) UpsertBatch(ctx context.Context, games []models.Game) (models.UpsertResult, error) {
	return putAll(ctx, m.rows, "games", games, func(g models.Game) int { return g.GameID })
}

func (m *MemoryGames) LatestUpdate(_ context.Context) (time.Time, error) {
	var newest time.Time
	for _, g := range m.rows.filter(nil, compareGameIDs) {
		if g.LastUpdated.After(newest) {
			newest = g.LastUpdated
		}
	}
	return newest, nil
}

// List orders by start time with unscheduled games last, then by game id
func (m *MemoryGames) List(_ context.Context) ([]models.Game, error) {
	return m.rows.filter(nil, func(a, b models.Game) int {
		switch {
		case a.StartsAt == nil && b.StartsAt == nil:
		case a.StartsAt == nil:
			return 1
		case b.StartsAt == nil:
			return -1
		default:
			if c := a.StartsAt.Compare(*b.StartsAt); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.GameID, b.GameID)
	}), nil
}

func (m *MemoryGames) IDsBetween(_ context.Context, from, to time.Time) ([]int, error) {
	games := m.rows.filter(func(g models.Game) bool { return g.StartsWithin(from, to) }, compareGameIDs)
	ids := make([]int, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.GameID)
	}
	return ids, nil
}

func compareGameIDs(a, b models.Game) int { return cmp.Compare(a.GameID, b.GameID) }

type statsKey struct {
	gameID, teamID int
}

// MemoryStats stores statistics documents keyed by (game id, team id)
type MemoryStats struct {
	rows *table[statsKey, models.GameStatistics]
}

func (m *MemoryStats) UpsertBatch(ctx context.Context, docs []models.GameStatistics) (models.UpsertResult, error) {
	return putAll(ctx, m.rows, "game_statistics", docs, func(s models.GameStatistics) statsKey {
		return statsKey{gameID: s.GameID, teamID: s.TeamID}
	})
}

func (m *MemoryStats) Exists(_ context.Context, gameID int) (bool, error) {
	docs := m.rows.filter(func(s models.GameStatistics) bool { return s.GameID == gameID }, compareStats)
	return len(docs) > 0, nil
}

func (m *MemoryStats) DeleteByGame(_ context.Context, gameID int) (int, error) {
	return m.rows.removeWhere(func(s models.GameStatistics) bool { return s.GameID == gameID }), nil
}

func (m *MemoryStats) List(_ context.Context) ([]models.GameStatistics, error) {
	return m.rows.filter(nil, compareStats), nil
}

func (m *MemoryStats) ListByGames(_ context.Context, gameIDs []int) ([]models.GameStatistics, error) {
	return m.rows.filter(func(s models.GameStatistics) bool {
		return slices.Contains(gameIDs, s.GameID)
	}, compareStats), nil
}

func compareStats(a, b models.GameStatistics) int {
	if c := cmp.Compare(a.GameID, b.GameID); c != 0 {
		return c
	}
	return cmp.Compare(a.TeamID, b.TeamID)
}

// MemoryRosters stores weekly teams keyed by id
type MemoryRosters struct {
	rows *table[uuid.UUID, models.WeeklyTeam]
	now  func() time.Time
}

func (m *MemoryRosters) Create(_ context.Context, team models.WeeklyTeam) (models.WeeklyTeam, error) {
	now := m.now().UTC()
	team.ID = uuid.New()
	team.CreatedAt, team.UpdatedAt = now, now
	m.rows.put(team.ID, team)
	return team, nil
}

func (m *MemoryRosters) Get(_ context.Context, id uuid.UUID) (models.WeeklyTeam, error) {
	team, ok := m.rows.get(id)
	if !ok {
		return models.WeeklyTeam{}, fmt.Errorf("weekly team %s: %w", id, ErrNotFound)
	}
	return team, nil
}

func (m *MemoryRosters) List(_ context.Context, owner uuid.UUID) ([]models.WeeklyTeam, error) {
	return m.rows.filter(func(t models.WeeklyTeam) bool {
		return owner == uuid.Nil || t.OwnerID == owner
	}, func(a, b models.WeeklyTeam) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	}), nil
}

func (m *MemoryRosters) Update(ctx context.Context, id uuid.UUID, team models.WeeklyTeam) (models.WeeklyTeam, error) {
	existing, err := m.Get(ctx, id)
	if err != nil {
		return models.WeeklyTeam{}, err
	}
	team.ID = id
	team.CreatedAt = existing.CreatedAt
	team.UpdatedAt = m.now().UTC()
	m.rows.put(id, team)
	return team, nil
}

func (m *MemoryRosters) Delete(_ context.Context, id uuid.UUID) error {
	if !m.rows.remove(id) {
		return fmt.Errorf("weekly team %s: %w", id, ErrNotFound)
	}
	return nil
}
