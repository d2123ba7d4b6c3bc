package models

import "time"

// Positions is the closed set of roster position codes, in display order
var Positions = []string{
	"QB", "WR", "RB", "FB", "HB", "TE", "C", "OT", "G",
	"DE", "DT", "LB", "CB", "S", "SS", "FS",
	"P", "PK",
}

var positionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Positions))
	for _, p := range Positions {
		set[p] = struct{}{}
	}
	return set
}()

// IsPosition reports whether code is a recognized position code
func IsPosition(code string) bool {
	_, ok := positionSet[code]
	return ok
}

// Player represents a rostered player keyed by the provider player id
type Player struct {
	PlayerID     int       `json:"id" db:"player_id"`
	Name         string    `json:"name" db:"name"`
	Nickname     *string   `json:"nickname" db:"nickname"`
	Position     string    `json:"playerPosition" db:"position"`
	Group        *string   `json:"group" db:"position_group"`
	JerseyNumber *string   `json:"playerJerseyNumber" db:"jersey_number"`
	Height       *string   `json:"playerHeight" db:"height"`
	ShirtNumber  int       `json:"shirtNumber" db:"shirt_number"`
	Image        *string   `json:"image" db:"image"`
	TeamID       int       `json:"teamId" db:"team_id"`
	TeamName     *string   `json:"teamName" db:"team_name"`
	TeamImage    *string   `json:"teamImage" db:"team_image"`
	LastUpdated  time.Time `json:"lastUpdated" db:"last_updated"`
}

// Stamped returns a copy of the player with LastUpdated set to at
func (p Player) Stamped(at time.Time) Player {
	p.LastUpdated = at.UTC()
	return p
}

// GroupByPosition buckets players by position code.
// With an empty filter every recognized position is present in the result,
// otherwise only the recognized codes named in filter. Players whose position
// is not recognized are left out. Each call builds a new map.
func GroupByPosition(players []Player, filter []string) map[string][]Player {
	buckets := make(map[string][]Player)

	if len(filter) == 0 {
		for _, code := range Positions {
			buckets[code] = []Player{}
		}
	} else {
		for _, code := range filter {
			if IsPosition(code) {
				buckets[code] = []Player{}
			}
		}
	}

	for _, p := range players {
		if list, ok := buckets[p.Position]; ok {
			buckets[p.Position] = append(list, p)
		}
	}

	return buckets
}
