package repository

import (
	"context"
	"testing"
	"time"

	"gridiron/ingestion/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func TestMemoryTeams_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	team := models.Team{TeamID: 17, Name: "Baltimore Ravens", Code: strp("BAL"), Season: 2024}.Stamped(stamp)

	first, err := store.Teams.UpsertBatch(ctx, []models.Team{team})
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Inserted: 1}, first)

	second, err := store.Teams.UpsertBatch(ctx, []models.Team{team})
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Updated: 1}, second)

	teams, err := store.Teams.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team, teams[0])
}

func TestMemoryTeams_LastUpdated(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	missing, err := store.Teams.LastUpdated(ctx, 3)
	require.NoError(t, err)
	assert.True(t, missing.IsZero(), "absent team should have no stamp")

	_, err = store.Teams.UpsertBatch(ctx, []models.Team{models.Team{TeamID: 3}.Stamped(stamp)})
	require.NoError(t, err)

	got, err := store.Teams.LastUpdated(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, stamp, got)

	_, err = store.Teams.GetByTeamID(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTeams_ListIsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Teams.UpsertBatch(ctx, []models.Team{{TeamID: 9}, {TeamID: 2}, {TeamID: 5}})
	require.NoError(t, err)

	teams, err := store.Teams.List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, []int{2, 5, 9}, []int{teams[0].TeamID, teams[1].TeamID, teams[2].TeamID})
}

func TestMemoryPlayers_LastUpdatedForTeam(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Players.UpsertBatch(ctx, []models.Player{
		models.Player{PlayerID: 1, TeamID: 7, Position: "QB"}.Stamped(stamp.Add(-2 * time.Hour)),
		models.Player{PlayerID: 2, TeamID: 7, Position: "WR"}.Stamped(stamp),
		models.Player{PlayerID: 3, TeamID: 8, Position: "RB"}.Stamped(stamp.Add(time.Hour)),
	})
	require.NoError(t, err)

	newest, err := store.Players.LastUpdatedForTeam(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, stamp, newest)

	none, err := store.Players.LastUpdatedForTeam(ctx, 99)
	require.NoError(t, err)
	assert.True(t, none.IsZero())

	roster, err := store.Players.ListByTeam(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestMemoryGames_WindowAndLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	at := func(d time.Duration) *time.Time { v := stamp.Add(d); return &v }
	_, err := store.Games.UpsertBatch(ctx, []models.Game{
		models.Game{GameID: 30, StartsAt: at(48 * time.Hour)}.Stamped(stamp),
		models.Game{GameID: 10, StartsAt: at(0)}.Stamped(stamp.Add(-time.Hour)),
		models.Game{GameID: 20, StartsAt: at(5 * 24 * time.Hour)}.Stamped(stamp),
		models.Game{GameID: 40}.Stamped(stamp.Add(-3 * time.Hour)),
	})
	require.NoError(t, err)

	ids, err := store.Games.IDsBetween(ctx, stamp, stamp.Add(5*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, ids, "window end is exclusive")

	latest, err := store.Games.LatestUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, stamp, latest)

	games, err := store.Games.List(ctx)
	require.NoError(t, err)
	require.Len(t, games, 4)
	assert.Equal(t, 10, games[0].GameID)
	assert.Equal(t, 40, games[3].GameID, "games without a start sort last")
}

func TestMemoryStats_ExistsAndListByGames(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	exists, err := store.Stats.Exists(ctx, 100)
	require.NoError(t, err)
	assert.False(t, exists)

	result, err := store.Stats.UpsertBatch(ctx, []models.GameStatistics{
		{GameID: 101, TeamID: 2},
		{GameID: 100, TeamID: 9},
		{GameID: 100, TeamID: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)

	exists, err = store.Stats.Exists(ctx, 100)
	require.NoError(t, err)
	assert.True(t, exists)

	docs, err := store.Stats.ListByGames(ctx, []int{100, 101})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, 4, docs[0].TeamID)
	assert.Equal(t, 9, docs[1].TeamID)
	assert.Equal(t, 101, docs[2].GameID)

	docs, err = store.Stats.ListByGames(ctx, []int{555})
	require.NoError(t, err)
	assert.Empty(t, docs)

	removed, err := store.Stats.DeleteByGame(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	exists, err = store.Stats.Exists(ctx, 100)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.Stats.Exists(ctx, 101)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemory_UpsertReportsEachFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewMemory().Games.UpsertBatch(ctx, []models.Game{{GameID: 1}, {GameID: 2}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.UpsertResult{Failed: 2}, result)
}

func TestMemoryRosters_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	store.Rosters.now = func() time.Time { return stamp }

	owner := uuid.New()
	created, err := store.Rosters.Create(ctx, models.WeeklyTeam{
		OwnerID:          owner,
		TeamName:         "Sunday Squad",
		Credits:          models.DefaultCredits,
		OffensivePlayers: models.PlayerIDs{1, 2},
		DefensivePlayers: models.PlayerIDs{},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, stamp, created.CreatedAt)

	_, err = store.Rosters.Create(ctx, models.WeeklyTeam{OwnerID: uuid.New(), TeamName: "Other"})
	require.NoError(t, err)

	mine, err := store.Rosters.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := store.Rosters.List(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	store.Rosters.now = func() time.Time { return stamp.Add(time.Hour) }
	created.TeamName = "Monday Squad"
	updated, err := store.Rosters.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "Monday Squad", updated.TeamName)
	assert.Equal(t, stamp, updated.CreatedAt)
	assert.Equal(t, stamp.Add(time.Hour), updated.UpdatedAt)

	require.NoError(t, store.Rosters.Delete(ctx, created.ID))
	_, err = store.Rosters.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Rosters.Delete(ctx, created.ID), ErrNotFound)
	_, err = store.Rosters.Update(ctx, created.ID, created)
	assert.ErrorIs(t, err, ErrNotFound)
}
