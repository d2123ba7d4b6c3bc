package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCredits is the budget a new weekly team starts with
const DefaultCredits = 100

// PlayerIDs is a list of player ids stored as a JSON array
type PlayerIDs []int

// Value implements driver.Valuer
func (p PlayerIDs) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(p))
}

// Scan implements sql.Scanner
func (p *PlayerIDs) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PlayerIDs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PlayerIDs", src)
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("failed to decode player ids: %w", err)
	}
	*p = ids
	return nil
}

// WeeklyTeam is a user's fantasy roster for a game week
type WeeklyTeam struct {
	ID               uuid.UUID `json:"id" db:"id"`
	OwnerID          uuid.UUID `json:"ownerId" db:"owner_id"`
	TeamName         string    `json:"teamName" db:"team_name"`
	Credits          int       `json:"credits" db:"credits"`
	OffensivePlayers PlayerIDs `json:"offensivePlayers" db:"offensive_players"`
	DefensivePlayers PlayerIDs `json:"defensivePlayers" db:"defensive_players"`
	SpecialistPlayer *int      `json:"specialistPlayer" db:"specialist_player"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// WeeklyTeamInput is the request body for creating or replacing a weekly team
type WeeklyTeamInput struct {
	OwnerID          uuid.UUID `json:"ownerId"`
	TeamName         string    `json:"teamName"`
	Credits          *int      `json:"credits,omitempty"`
	OffensivePlayers []int     `json:"offensivePlayers"`
	DefensivePlayers []int     `json:"defensivePlayers"`
	SpecialistPlayer *int      `json:"specialistPlayer,omitempty"`
}

// ErrInvalidWeeklyTeam is wrapped by validation failures
var ErrInvalidWeeklyTeam = errors.New("invalid weekly team")

// ToWeeklyTeam validates the input and converts it to a WeeklyTeam
func (in WeeklyTeamInput) ToWeeklyTeam() (WeeklyTeam, error) {
	name := strings.TrimSpace(in.TeamName)
	if name == "" {
		return WeeklyTeam{}, fmt.Errorf("%w: teamName is required", ErrInvalidWeeklyTeam)
	}
	if in.OwnerID == uuid.Nil {
		return WeeklyTeam{}, fmt.Errorf("%w: ownerId is required", ErrInvalidWeeklyTeam)
	}

	credits := DefaultCredits
	if in.Credits != nil {
		credits = *in.Credits
	}
	if credits < 0 {
		return WeeklyTeam{}, fmt.Errorf("%w: credits must not be negative", ErrInvalidWeeklyTeam)
	}

	offense := PlayerIDs(in.OffensivePlayers)
	if offense == nil {
		offense = PlayerIDs{}
	}
	defense := PlayerIDs(in.DefensivePlayers)
	if defense == nil {
		defense = PlayerIDs{}
	}

	return WeeklyTeam{
		OwnerID:          in.OwnerID,
		TeamName:         name,
		Credits:          credits,
		OffensivePlayers: offense,
		DefensivePlayers: defense,
		SpecialistPlayer: in.SpecialistPlayer,
	}, nil
}
