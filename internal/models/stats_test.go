package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatistics() GameStatistics {
	return GameStatistics{
		GameID: 10,
		TeamID: 1,
		Groups: []StatGroup{
			{Name: "Passing", Players: []PlayerLine{
				{PlayerID: 7, PlayerName: "QB One", Points: 12.5, Statistics: []Stat{{Name: "yards", Value: "250"}}},
				{PlayerID: 8, PlayerName: "QB Two", Points: 1},
			}},
			{Name: "Rushing", Players: []PlayerLine{
				{PlayerID: 7, PlayerName: "QB One", Points: 3, Statistics: []Stat{{Name: "yards", Value: "30"}}},
				{PlayerID: 7, PlayerName: "QB One", Points: 3, Statistics: []Stat{{Name: "yards", Value: "30"}}},
			}},
			{Name: "Defense", Players: []PlayerLine{
				{PlayerID: 20, PlayerName: "LB", Points: 4},
			}},
		},
	}
}

func TestGameStatistics_ForPlayer(t *testing.T) {
	doc := sampleStatistics()

	filtered, ok := doc.ForPlayer(7)
	require.True(t, ok)
	require.Len(t, filtered.Groups, 2, "groups without the player should be dropped")
	assert.Equal(t, "Passing", filtered.Groups[0].Name)
	assert.Len(t, filtered.Groups[1].Players, 1, "duplicate lines should be removed")

	assert.Len(t, doc.Groups, 3, "original document must not change")
	assert.Len(t, doc.Groups[1].Players, 2)
}

func TestGameStatistics_ForPlayerMissing(t *testing.T) {
	_, ok := sampleStatistics().ForPlayer(999)
	assert.False(t, ok)
}

func TestGameStatistics_MapLinesCopies(t *testing.T) {
	doc := sampleStatistics()

	doubled := doc.MapLines(func(line PlayerLine) PlayerLine {
		line.Points *= 2
		return line
	})

	assert.Equal(t, 25.0, doubled.Groups[0].Players[0].Points)
	assert.Equal(t, 12.5, doc.Groups[0].Players[0].Points, "receiver must not be modified")
}

func TestNestByTeamAndPlayer(t *testing.T) {
	docs := []GameStatistics{
		sampleStatistics(),
		{GameID: 10, TeamID: 2, Groups: []StatGroup{{Name: "Kicking", Players: []PlayerLine{{PlayerID: 30, Points: 5}}}}},
		{GameID: 11, TeamID: 1, Groups: []StatGroup{{Name: "Passing", Players: []PlayerLine{{PlayerID: 7, Points: 2}}}}},
	}

	nested := NestByTeamAndPlayer(docs)

	require.Contains(t, nested, 10)
	require.Contains(t, nested, 11)
	assert.Len(t, nested[10], 2)

	qb := nested[10][1][7]
	assert.Equal(t, 18.5, qb.Points, "points across groups should be summed")
	assert.Len(t, qb.Statistics, 3)
	assert.Equal(t, 5.0, nested[10][2][30].Points)
	assert.Equal(t, 2.0, nested[11][1][7].Points)
}

func TestNestByTeamAndPlayer_RoundsMergedPoints(t *testing.T) {
	docs := []GameStatistics{{
		GameID: 10,
		TeamID: 1,
		Groups: []StatGroup{
			{Name: "Passing", Players: []PlayerLine{{PlayerID: 7, Points: 0.1}}},
			{Name: "Rushing", Players: []PlayerLine{{PlayerID: 7, Points: 0.2}}},
		},
	}}

	assert.Equal(t, 0.3, NestByTeamAndPlayer(docs)[10][1][7].Points)
}

func TestRoundPoints(t *testing.T) {
	assert.Equal(t, 2.35, RoundPoints(2.345))
	assert.Equal(t, -2.35, RoundPoints(-2.345))
	assert.Equal(t, 1.01, RoundPoints(1.005))
	assert.Equal(t, 6.86, RoundPoints(6.857142857))
	assert.Equal(t, 0.3, RoundPoints(0.1+0.2))
	assert.Equal(t, 0.0, RoundPoints(0))
}
