package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridiron/ingestion/internal/models"
)

func TestForProvider(t *testing.T) {
	n, err := ForProvider("apisports")
	require.NoError(t, err)
	assert.Equal(t, "apisports", n.Provider())

	n, err = ForProvider("sportdevs")
	require.NoError(t, err)
	assert.Equal(t, "sportdevs", n.Provider())

	_, err = ForProvider("espn")
	assert.Error(t, err)
}

func TestAPISports_Team(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 17, "name": "Baltimore Ravens", "code": "BAL", "city": "Baltimore",
		"coach": "John Harbaugh", "owner": null, "stadium": "M&T Bank Stadium",
		"established": 1996, "logo": "https://media.example/17.png",
		"country": {"name": "USA", "code": "US", "flag": "https://media.example/us.svg"},
		"extra": "ignored"
	}`)

	team, err := APISports{}.Team(raw, 2024)
	require.NoError(t, err)

	assert.Equal(t, 17, team.TeamID)
	assert.Equal(t, "Baltimore Ravens", team.Name)
	require.NotNil(t, team.Code)
	assert.Equal(t, "BAL", *team.Code)
	assert.Nil(t, team.Owner)
	assert.Equal(t, 1996, team.Established)
	assert.Equal(t, 2024, team.Season)
	require.NotNil(t, team.Country)
	assert.Equal(t, "US", team.Country.Code)
	assert.True(t, team.LastUpdated.IsZero())
}

func TestAPISports_TeamWithoutID(t *testing.T) {
	_, err := APISports{}.Team(json.RawMessage(`{"name": "Nobody"}`), 2024)
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestAPISports_Player(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 2145, "name": "Lamar Jackson", "age": 27, "height": "6' 2\"",
		"weight": "205 lbs", "group": "Offense", "position": "QB", "number": 8,
		"image": "https://media.example/2145.png"
	}`)

	p, err := APISports{}.Player(raw, 17)
	require.NoError(t, err)

	assert.Equal(t, 2145, p.PlayerID)
	assert.Equal(t, "QB", p.Position)
	assert.Equal(t, 17, p.TeamID)
	assert.Equal(t, 8, p.ShirtNumber)
	require.NotNil(t, p.JerseyNumber)
	assert.Equal(t, "8", *p.JerseyNumber)
	require.NotNil(t, p.Group)
	assert.Equal(t, "Offense", *p.Group)
	assert.Nil(t, p.Nickname)
}

func TestAPISports_PlayerWithoutNumber(t *testing.T) {
	p, err := APISports{}.Player(json.RawMessage(`{"id": 5, "name": "X", "number": null}`), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ShirtNumber)
	assert.Nil(t, p.JerseyNumber)
}

func TestAPISports_Game(t *testing.T) {
	raw := json.RawMessage(`{
		"game": {
			"id": 12001, "stage": "Regular Season", "week": "Week 1",
			"date": {"timezone": "UTC", "date": "2024-09-06", "time": "00:20", "timestamp": 1725582000},
			"venue": {"name": "GEHA Field at Arrowhead Stadium", "city": "Kansas City"},
			"status": {"short": "FT", "long": "Finished", "timer": null}
		},
		"league": {"id": 1, "name": "NFL", "season": "2024", "logo": "https://media.example/nfl.png"},
		"teams": {
			"home": {"id": 19, "name": "Kansas City Chiefs", "logo": "k.png"},
			"away": {"id": 17, "name": "Baltimore Ravens", "logo": "b.png"}
		},
		"scores": {
			"home": {"quarter_1": 7, "quarter_2": 6, "quarter_3": 7, "quarter_4": 7, "overtime": null, "total": 27},
			"away": {"quarter_1": 7, "quarter_2": 3, "quarter_3": 0, "quarter_4": 10, "overtime": null, "total": 20}
		}
	}`)

	g, err := APISports{}.Game(raw)
	require.NoError(t, err)

	assert.Equal(t, 12001, g.GameID)
	assert.Equal(t, models.StatusFinished, g.Status.Type)
	assert.True(t, g.IsFinal())
	require.NotNil(t, g.StartsAt)
	assert.Equal(t, time.Date(2024, 9, 6, 0, 20, 0, 0, time.UTC), *g.StartsAt)
	assert.Equal(t, 2024, g.Season)
	assert.Equal(t, 1, g.League.ID)
	assert.Equal(t, 19, g.Home.TeamID)
	assert.Equal(t, 27, g.Home.Score.Current)
	assert.Equal(t, 10, g.Away.Score.Period4)
	assert.Equal(t, 0, g.Away.Score.Overtime)
	require.NotNil(t, g.Name)
	assert.Equal(t, "Kansas City Chiefs - Baltimore Ravens", *g.Name)
	require.NotNil(t, g.Venue)
	assert.Equal(t, "Kansas City", *g.Venue.City)
	assert.Nil(t, g.Tournament)
}

func TestAPISports_GameStartFromDateAndTime(t *testing.T) {
	raw := json.RawMessage(`{"game": {"id": 9, "date": {"date": "2025-01-18", "time": "21:30"}, "status": {"short": "NS"}}}`)

	g, err := APISports{}.Game(raw)
	require.NoError(t, err)
	require.NotNil(t, g.StartsAt)
	assert.Equal(t, time.Date(2025, 1, 18, 21, 30, 0, 0, time.UTC), *g.StartsAt)
	assert.Equal(t, models.StatusScheduled, g.Status.Type)
	assert.Nil(t, g.Venue)
	assert.Nil(t, g.Name)
}

func TestAPIStatusType(t *testing.T) {
	tests := map[string]string{
		"NS":   models.StatusScheduled,
		"Q2":   models.StatusInProgress,
		"HT":   models.StatusInProgress,
		"OT":   models.StatusInProgress,
		"FT":   models.StatusFinished,
		"AOT":  models.StatusFinished,
		"PST":  models.StatusPostponed,
		"CANC": models.StatusCanceled,
		"":     models.StatusUnknown,
		"XYZ":  models.StatusUnknown,
	}
	for short, want := range tests {
		assert.Equal(t, want, apiStatusType(short), short)
	}
}

func TestAPISports_GameStatistics(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{
			"team": {"id": 17, "name": "Baltimore Ravens", "logo": "b.png"},
			"groups": [
				{"name": "Passing", "players": [
					{"player": {"id": 2145, "name": "Lamar Jackson", "image": "l.png"},
					 "statistics": [
						{"name": "comp att", "value": "26/41"},
						{"name": "yards", "value": 273},
						{"name": "interceptions", "value": null}
					 ]}
				]},
				{"name": "Rushing", "players": []}
			]
		}`),
		json.RawMessage(`{"team": {"id": 19, "name": "Kansas City Chiefs"}, "groups": []}`),
	}

	docs, err := APISports{}.GameStatistics(12001, raws)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	ravens := docs[0]
	assert.Equal(t, 12001, ravens.GameID)
	assert.Equal(t, 17, ravens.TeamID)
	require.Len(t, ravens.Groups, 2)
	assert.Equal(t, "Passing", ravens.Groups[0].Name)

	line := ravens.Groups[0].Players[0]
	assert.Equal(t, 2145, line.PlayerID)
	assert.Equal(t, []models.Stat{
		{Name: "comp att", Value: "26/41"},
		{Name: "yards", Value: "273"},
		{Name: "interceptions", Value: "0"},
	}, line.Statistics)
	assert.Equal(t, 0.0, line.Points)

	assert.Nil(t, docs[1].TeamLogo)
	assert.NotNil(t, docs[1].Groups)
}

func TestAPISports_GameStatisticsMissingTeam(t *testing.T) {
	_, err := APISports{}.GameStatistics(1, []json.RawMessage{json.RawMessage(`{"groups": []}`)})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestAPISports_IsDeterministic(t *testing.T) {
	raw := json.RawMessage(`{"id": 1, "name": "A", "country": {"name": "USA", "code": "US"}}`)

	first, err := APISports{}.Team(raw, 2024)
	require.NoError(t, err)
	second, err := APISports{}.Team(raw, 2024)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
