package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/models"
)

// APISports normalizes api-sports american football payloads
type APISports struct{}

// Provider returns the provider name
func (APISports) Provider() string { return client.APISportsProvider }

type apiTeam struct {
	ID          flexInt    `json:"id"`
	Name        flexString `json:"name"`
	Code        flexString `json:"code"`
	City        flexString `json:"city"`
	Coach       flexString `json:"coach"`
	Owner       flexString `json:"owner"`
	Stadium     flexString `json:"stadium"`
	Established flexInt    `json:"established"`
	Logo        flexString `json:"logo"`
	Country     *struct {
		Name flexString `json:"name"`
		Code flexString `json:"code"`
		Flag flexString `json:"flag"`
	} `json:"country"`
}

// Team normalizes one element of the /teams response
func (APISports) Team(raw json.RawMessage, season int) (models.Team, error) {
	var in apiTeam
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Team{}, fmt.Errorf("failed to decode team: %w", err)
	}
	if in.ID <= 0 {
		return models.Team{}, fmt.Errorf("team: %w", ErrMissingID)
	}

	team := models.Team{
		TeamID:      int(in.ID),
		Name:        in.Name.value,
		Code:        in.Code.ptr(),
		City:        in.City.ptr(),
		Coach:       in.Coach.ptr(),
		Owner:       in.Owner.ptr(),
		Stadium:     in.Stadium.ptr(),
		Established: int(in.Established),
		Logo:        in.Logo.ptr(),
		Season:      season,
	}
	if in.Country != nil && (in.Country.Name.set || in.Country.Code.set) {
		team.Country = &models.Country{
			Name: in.Country.Name.value,
			Code: in.Country.Code.value,
			Flag: in.Country.Flag.value,
		}
	}
	return team, nil
}

type apiPlayer struct {
	ID       flexInt    `json:"id"`
	Name     flexString `json:"name"`
	Height   flexString `json:"height"`
	Group    flexString `json:"group"`
	Position flexString `json:"position"`
	Number   flexString `json:"number"`
	Image    flexString `json:"image"`
}

// Player normalizes one element of the /players response. The payload
// carries no team, so the requested team id is used.
func (APISports) Player(raw json.RawMessage, teamID int) (models.Player, error) {
	var in apiPlayer
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Player{}, fmt.Errorf("failed to decode player: %w", err)
	}
	if in.ID <= 0 {
		return models.Player{}, fmt.Errorf("player: %w", ErrMissingID)
	}

	shirt, _ := strconv.Atoi(in.Number.value)

	return models.Player{
		PlayerID:     int(in.ID),
		Name:         in.Name.value,
		Position:     in.Position.value,
		Group:        in.Group.ptr(),
		JerseyNumber: in.Number.ptr(),
		Height:       in.Height.ptr(),
		ShirtNumber:  shirt,
		Image:        in.Image.ptr(),
		TeamID:       teamID,
	}, nil
}

type apiScore struct {
	Quarter1 flexInt `json:"quarter_1"`
	Quarter2 flexInt `json:"quarter_2"`
	Quarter3 flexInt `json:"quarter_3"`
	Quarter4 flexInt `json:"quarter_4"`
	Overtime flexInt `json:"overtime"`
	Total    flexInt `json:"total"`
}

type apiSide struct {
	ID   flexInt    `json:"id"`
	Name flexString `json:"name"`
	Logo flexString `json:"logo"`
}

type apiGame struct {
	Game struct {
		ID    flexInt    `json:"id"`
		Stage flexString `json:"stage"`
		Week  flexString `json:"week"`
		Date  struct {
			Date      flexString `json:"date"`
			Time      flexString `json:"time"`
			Timestamp flexInt    `json:"timestamp"`
		} `json:"date"`
		Venue struct {
			Name flexString `json:"name"`
			City flexString `json:"city"`
		} `json:"venue"`
		Status struct {
			Short flexString `json:"short"`
			Long  flexString `json:"long"`
		} `json:"status"`
	} `json:"game"`
	League struct {
		ID     flexInt    `json:"id"`
		Name   flexString `json:"name"`
		Season flexInt    `json:"season"`
		Logo   flexString `json:"logo"`
	} `json:"league"`
	Teams struct {
		Home apiSide `json:"home"`
		Away apiSide `json:"away"`
	} `json:"teams"`
	Scores struct {
		Home apiScore `json:"home"`
		Away apiScore `json:"away"`
	} `json:"scores"`
}

// Game normalizes one element of the /games response
func (APISports) Game(raw json.RawMessage) (models.Game, error) {
	var in apiGame
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Game{}, fmt.Errorf("failed to decode game: %w", err)
	}
	if in.Game.ID <= 0 {
		return models.Game{}, fmt.Errorf("game: %w", ErrMissingID)
	}

	game := models.Game{
		GameID:   int(in.Game.ID),
		Stage:    in.Game.Stage.ptr(),
		Week:     in.Game.Week.ptr(),
		StartsAt: apiStart(in.Game.Date.Timestamp, in.Game.Date.Date, in.Game.Date.Time),
		Status: models.GameStatus{
			Type:   apiStatusType(in.Game.Status.Short.value),
			Reason: in.Game.Status.Long.ptr(),
		},
		League: models.Ref{
			ID:   int(in.League.ID),
			Name: in.League.Name.ptr(),
			Logo: in.League.Logo.ptr(),
		},
		Season: int(in.League.Season),
		Home:   apiGameTeam(in.Teams.Home, in.Scores.Home),
		Away:   apiGameTeam(in.Teams.Away, in.Scores.Away),
	}
	if in.Game.Venue.Name.set || in.Game.Venue.City.set {
		game.Venue = &models.Venue{Name: in.Game.Venue.Name.ptr(), City: in.Game.Venue.City.ptr()}
	}
	if home, away := game.Home.Name, game.Away.Name; home != nil && away != nil {
		name := *home + " - " + *away
		game.Name = &name
	}
	return game, nil
}

func apiGameTeam(side apiSide, score apiScore) models.GameTeam {
	return models.GameTeam{
		TeamID: int(side.ID),
		Name:   side.Name.ptr(),
		Logo:   side.Logo.ptr(),
		Score: models.Score{
			Current:  int(score.Total),
			Display:  int(score.Total),
			Period1:  int(score.Quarter1),
			Period2:  int(score.Quarter2),
			Period3:  int(score.Quarter3),
			Period4:  int(score.Quarter4),
			Overtime: int(score.Overtime),
		},
	}
}

func apiStart(timestamp flexInt, date, clock flexString) *time.Time {
	if timestamp > 0 {
		t := time.Unix(int64(timestamp), 0).UTC()
		return &t
	}
	if !date.set {
		return nil
	}
	layout, value := "2006-01-02", date.value
	if clock.set {
		layout, value = "2006-01-02 15:04", date.value+" "+clock.value
	}
	t, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func apiStatusType(short string) string {
	switch short {
	case "NS", "TBD":
		return models.StatusScheduled
	case "Q1", "Q2", "Q3", "Q4", "OT", "HT", "BT":
		return models.StatusInProgress
	case "FT", "AOT":
		return models.StatusFinished
	case "PST":
		return models.StatusPostponed
	case "CANC":
		return models.StatusCanceled
	default:
		return models.StatusUnknown
	}
}

type apiTeamStatistics struct {
	Team struct {
		ID   flexInt    `json:"id"`
		Name flexString `json:"name"`
		Logo flexString `json:"logo"`
	} `json:"team"`
	Groups []struct {
		Name    string `json:"name"`
		Players []struct {
			Player struct {
				ID    flexInt    `json:"id"`
				Name  flexString `json:"name"`
				Image flexString `json:"image"`
			} `json:"player"`
			Statistics []struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"statistics"`
		} `json:"players"`
	} `json:"groups"`
}

// GameStatistics normalizes the /games/statistics/players response: one
// element per team, already grouped by category
func (APISports) GameStatistics(gameID int, raws []json.RawMessage) ([]models.GameStatistics, error) {
	out := make([]models.GameStatistics, 0, len(raws))
	for _, raw := range raws {
		var in apiTeamStatistics
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("failed to decode game statistics: %w", err)
		}
		if in.Team.ID <= 0 {
			return nil, fmt.Errorf("game statistics team: %w", ErrMissingID)
		}

		doc := models.GameStatistics{
			GameID:   gameID,
			TeamID:   int(in.Team.ID),
			TeamName: in.Team.Name.ptr(),
			TeamLogo: in.Team.Logo.ptr(),
			Groups:   make([]models.StatGroup, 0, len(in.Groups)),
		}
		for _, g := range in.Groups {
			group := models.StatGroup{Name: g.Name, Players: make([]models.PlayerLine, 0, len(g.Players))}
			for _, p := range g.Players {
				line := models.PlayerLine{
					PlayerID:    int(p.Player.ID),
					PlayerName:  p.Player.Name.value,
					PlayerImage: p.Player.Image.ptr(),
					Statistics:  make([]models.Stat, 0, len(p.Statistics)),
				}
				for _, s := range p.Statistics {
					line.Statistics = append(line.Statistics, models.Stat{Name: s.Name, Value: statValue(s.Value)})
				}
				group.Players = append(group.Players, line)
			}
			doc.Groups = append(doc.Groups, group)
		}
		out = append(out, doc)
	}
	return out, nil
}
