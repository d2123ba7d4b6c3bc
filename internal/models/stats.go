package models

import (
	"math"
	"time"
)

// Stat is one named raw statistic as delivered upstream. Values stay strings
// because composite fields such as "18/30" or "3-12" are parsed at scoring time.
type Stat struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PlayerLine is a player's statistics inside one category group
type PlayerLine struct {
	PlayerID    int     `json:"playerId"`
	PlayerName  string  `json:"playerName"`
	PlayerImage *string `json:"playerImage"`
	Points      float64 `json:"points"`
	Statistics  []Stat  `json:"statistics"`
}

// StatGroup is a statistics category such as passing or defensive
type StatGroup struct {
	Name    string       `json:"groupName"`
	Players []PlayerLine `json:"players"`
}

// GameStatistics holds every player line one team produced in one game,
// keyed by (GameID, TeamID)
type GameStatistics struct {
	GameID      int         `json:"gameId" db:"game_id"`
	TeamID      int         `json:"teamId" db:"team_id"`
	TeamName    *string     `json:"teamName" db:"team_name"`
	TeamLogo    *string     `json:"teamLogo" db:"team_logo"`
	Groups      []StatGroup `json:"groups" db:"groups"`
	LastUpdated time.Time   `json:"lastUpdated" db:"last_updated"`
}

// Stamped returns a copy with LastUpdated set to at
func (s GameStatistics) Stamped(at time.Time) GameStatistics {
	s.LastUpdated = at.UTC()
	return s
}

// MapLines returns a copy whose player lines are replaced by fn(line).
// The receiver's slices are not modified.
func (s GameStatistics) MapLines(fn func(PlayerLine) PlayerLine) GameStatistics {
	groups := make([]StatGroup, len(s.Groups))
	for i, g := range s.Groups {
		lines := make([]PlayerLine, len(g.Players))
		for j, line := range g.Players {
			lines[j] = fn(line)
		}
		groups[i] = StatGroup{Name: g.Name, Players: lines}
	}
	s.Groups = groups
	return s
}

// ForPlayer returns a copy holding only playerID's lines. Groups left empty
// are dropped; ok is false when the player does not appear at all.
func (s GameStatistics) ForPlayer(playerID int) (GameStatistics, bool) {
	var groups []StatGroup
	for _, g := range s.Groups {
		var lines []PlayerLine
		for _, line := range g.Players {
			if line.PlayerID == playerID {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			groups = append(groups, StatGroup{Name: g.Name, Players: dedupeLines(lines)})
		}
	}
	if len(groups) == 0 {
		return GameStatistics{}, false
	}
	s.Groups = groups
	return s, true
}

// dedupeLines drops lines identical to an earlier one
func dedupeLines(lines []PlayerLine) []PlayerLine {
	out := make([]PlayerLine, 0, len(lines))
	for _, line := range lines {
		dup := false
		for _, kept := range out {
			if sameLine(kept, line) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, line)
		}
	}
	return out
}

func sameLine(a, b PlayerLine) bool {
	if a.PlayerID != b.PlayerID || a.PlayerName != b.PlayerName || a.Points != b.Points {
		return false
	}
	if (a.PlayerImage == nil) != (b.PlayerImage == nil) {
		return false
	}
	if a.PlayerImage != nil && *a.PlayerImage != *b.PlayerImage {
		return false
	}
	if len(a.Statistics) != len(b.Statistics) {
		return false
	}
	for i := range a.Statistics {
		if a.Statistics[i] != b.Statistics[i] {
			return false
		}
	}
	return true
}

// RoundPoints rounds half away from zero to two decimals. Binary
// representation noise is removed first so 2.345 rounds to 2.35.
func RoundPoints(x float64) float64 {
	cleaned := math.Round(x*1e9) / 1e7
	return math.Round(cleaned) / 100
}

// NestByTeamAndPlayer indexes statistics as game id -> team id -> player id -> line.
// A player appearing in several groups gets one line with the statistics of
// every group and the summed points.
func NestByTeamAndPlayer(stats []GameStatistics) map[int]map[int]map[int]PlayerLine {
	out := make(map[int]map[int]map[int]PlayerLine)
	for _, doc := range stats {
		teams, ok := out[doc.GameID]
		if !ok {
			teams = make(map[int]map[int]PlayerLine)
			out[doc.GameID] = teams
		}
		players, ok := teams[doc.TeamID]
		if !ok {
			players = make(map[int]PlayerLine)
			teams[doc.TeamID] = players
		}
		for _, g := range doc.Groups {
			for _, line := range g.Players {
				if prev, seen := players[line.PlayerID]; seen {
					merged := append(append([]Stat{}, prev.Statistics...), line.Statistics...)
					line.Statistics = merged
					line.Points = RoundPoints(prev.Points + line.Points)
				}
				players[line.PlayerID] = line
			}
		}
	}
	return out
}
