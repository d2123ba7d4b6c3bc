package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByPosition_AllPositionsWhenNoFilter(t *testing.T) {
	players := []Player{
		{PlayerID: 1, Name: "Starter", Position: "QB", TeamID: 1},
		{PlayerID: 2, Name: "Backup", Position: "QB", TeamID: 2},
		{PlayerID: 3, Name: "Kicker", Position: "PK", TeamID: 1},
	}

	buckets := GroupByPosition(players, nil)

	assert.Len(t, buckets, len(Positions), "every recognized position should be present")
	require.Len(t, buckets["QB"], 2)
	assert.Equal(t, 1, buckets["QB"][0].PlayerID, "input order should be kept")
	assert.Len(t, buckets["PK"], 1)
	assert.NotNil(t, buckets["WR"], "empty positions should be empty lists, not nil")
	assert.Empty(t, buckets["WR"])
}

func TestGroupByPosition_Filter(t *testing.T) {
	players := []Player{
		{PlayerID: 1, Position: "QB"},
		{PlayerID: 2, Position: "WR"},
		{PlayerID: 3, Position: "LB"},
	}

	buckets := GroupByPosition(players, []string{"QB", "WR", "XX"})

	assert.Len(t, buckets, 2, "unknown filter keys should be ignored")
	assert.Len(t, buckets["QB"], 1)
	assert.Len(t, buckets["WR"], 1)
	_, hasLB := buckets["LB"]
	assert.False(t, hasLB)
}

func TestGroupByPosition_ExcludesUnrecognizedPositions(t *testing.T) {
	players := []Player{
		{PlayerID: 1, Position: "QB"},
		{PlayerID: 2, Position: "LS"},
		{PlayerID: 3, Position: ""},
	}

	buckets := GroupByPosition(players, nil)

	total := 0
	for _, list := range buckets {
		total += len(list)
	}
	assert.Equal(t, 1, total)
}

func TestGroupByPosition_FreshMapPerCall(t *testing.T) {
	players := []Player{{PlayerID: 1, Position: "QB"}}

	first := GroupByPosition(players, nil)
	first["QB"] = append(first["QB"], Player{PlayerID: 99, Position: "QB"})

	second := GroupByPosition(players, nil)
	assert.Len(t, second["QB"], 1, "a previous caller's mutation must not leak")
}

func TestIsPosition(t *testing.T) {
	assert.True(t, IsPosition("QB"))
	assert.True(t, IsPosition("PK"))
	assert.False(t, IsPosition("qb"))
	assert.False(t, IsPosition("K"))
}
