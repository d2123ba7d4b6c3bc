package models

import "time"

// Canonical game status types
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "inprogress"
	StatusFinished   = "finished"
	StatusPostponed  = "postponed"
	StatusCanceled   = "canceled"
	StatusUnknown    = "unknown"
)

// Ref is a lightweight reference to a league or tournament
type Ref struct {
	ID   int     `json:"id"`
	Name *string `json:"name"`
	Logo *string `json:"logo"`
}

// Venue is where a game is played
type Venue struct {
	Name *string `json:"name"`
	City *string `json:"city"`
}

// GameStatus is the normalized state of a game plus the provider's wording
type GameStatus struct {
	Type   string  `json:"type"`
	Reason *string `json:"reason"`
}

// Score holds the per-period breakdown for one side. Every field is always
// present and zero when the provider omits it.
type Score struct {
	Current     int `json:"current"`
	Display     int `json:"display"`
	Period1     int `json:"period_1"`
	Period2     int `json:"period_2"`
	Period3     int `json:"period_3"`
	Period4     int `json:"period_4"`
	Overtime    int `json:"overtime"`
	DefaultTime int `json:"defaultTime"`
}

// GameTeam is one side of a game
type GameTeam struct {
	TeamID int     `json:"id"`
	Name   *string `json:"name"`
	Logo   *string `json:"logo"`
	Score  Score   `json:"score"`
}

// Game represents a scheduled or played game keyed by the provider game id
type Game struct {
	GameID      int        `json:"id" db:"game_id"`
	Name        *string    `json:"name" db:"name"`
	Stage       *string    `json:"stage" db:"stage"`
	Week        *string    `json:"week" db:"week"`
	StartsAt    *time.Time `json:"startsAt" db:"starts_at"`
	Venue       *Venue     `json:"venue" db:"venue"`
	Status      GameStatus `json:"status" db:"status"`
	League      Ref        `json:"league" db:"league"`
	Season      int        `json:"season" db:"season"`
	Tournament  *Ref       `json:"tournament" db:"tournament"`
	Home        GameTeam   `json:"home" db:"home"`
	Away        GameTeam   `json:"away" db:"away"`
	LastUpdated time.Time  `json:"lastUpdated" db:"last_updated"`
}

// Stamped returns a copy of the game with LastUpdated set to at
func (g Game) Stamped(at time.Time) Game {
	g.LastUpdated = at.UTC()
	return g
}

// IsFinal returns true if the game is finished
func (g Game) IsFinal() bool {
	return g.Status.Type == StatusFinished
}

// StartsWithin reports whether the game's scheduled start falls in [from, to)
func (g Game) StartsWithin(from, to time.Time) bool {
	if g.StartsAt == nil {
		return false
	}
	return !g.StartsAt.Before(from) && g.StartsAt.Before(to)
}
