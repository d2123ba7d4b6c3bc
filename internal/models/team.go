package models

import "time"

// Country is the nation a team is registered in
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

// Team represents a league franchise keyed by the provider team id
type Team struct {
	TeamID      int       `json:"id" db:"team_id"`
	Name        string    `json:"name" db:"name"`
	Code        *string   `json:"code" db:"code"`
	City        *string   `json:"city" db:"city"`
	Coach       *string   `json:"coach" db:"coach"`
	Owner       *string   `json:"owner" db:"owner"`
	Stadium     *string   `json:"stadium" db:"stadium"`
	Established int       `json:"established" db:"established"`
	Logo        *string   `json:"logo" db:"logo"`
	Country     *Country  `json:"country" db:"country"`
	Season      int       `json:"season" db:"season"`
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`
}

// Stamped returns a copy of the team with LastUpdated set to at
func (t Team) Stamped(at time.Time) Team {
	t.LastUpdated = at.UTC()
	return t
}
