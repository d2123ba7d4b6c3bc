package normalizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/models"
)

// SportDevs normalizes sportdevs american football payloads
type SportDevs struct{}

// Provider returns the provider name
func (SportDevs) Provider() string { return client.SportDevsProvider }

type devsTeam struct {
	ID          flexInt    `json:"id"`
	Name        flexString `json:"name"`
	NameCode    flexString `json:"name_code"`
	City        flexString `json:"city"`
	CoachName   flexString `json:"coach_name"`
	Owner       flexString `json:"owner"`
	ArenaName   flexString `json:"arena_name"`
	Foundation  flexInt    `json:"foundation"`
	HashImage   flexString `json:"hash_image"`
	CountryName flexString `json:"country_name"`
	CountryCode flexString `json:"country_code"`
	CountryFlag flexString `json:"country_hash_image"`
	SeasonID    flexInt    `json:"season_id"`
}

// Team normalizes one row of /teams-by-season
func (SportDevs) Team(raw json.RawMessage, season int) (models.Team, error) {
	var in devsTeam
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Team{}, fmt.Errorf("failed to decode team: %w", err)
	}
	if in.ID <= 0 {
		return models.Team{}, fmt.Errorf("team: %w", ErrMissingID)
	}
	if season == 0 {
		season = int(in.SeasonID)
	}

	team := models.Team{
		TeamID:      int(in.ID),
		Name:        in.Name.value,
		Code:        in.NameCode.ptr(),
		City:        in.City.ptr(),
		Coach:       in.CoachName.ptr(),
		Owner:       in.Owner.ptr(),
		Stadium:     in.ArenaName.ptr(),
		Established: int(in.Foundation),
		Logo:        in.HashImage.ptr(),
		Season:      season,
	}
	if in.CountryName.set || in.CountryCode.set {
		team.Country = &models.Country{
			Name: in.CountryName.value,
			Code: in.CountryCode.value,
			Flag: in.CountryFlag.value,
		}
	}
	return team, nil
}

type devsPlayer struct {
	ID            flexInt    `json:"id"`
	Name          flexString `json:"name"`
	Nickname      flexString `json:"nickname"`
	Position      flexString `json:"position"`
	JerseyNumber  flexString `json:"jersey_number"`
	Height        flexString `json:"height"`
	ShirtNumber   flexInt    `json:"shirt_number"`
	HashImage     flexString `json:"hash_image"`
	TeamID        flexInt    `json:"team_id"`
	TeamName      flexString `json:"team_name"`
	TeamHashImage flexString `json:"team_hash_image"`
}

// Player normalizes one row of /players-by-team. A row without a team id is
// attributed to the requested team.
func (SportDevs) Player(raw json.RawMessage, teamID int) (models.Player, error) {
	var in devsPlayer
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Player{}, fmt.Errorf("failed to decode player: %w", err)
	}
	if in.ID <= 0 {
		return models.Player{}, fmt.Errorf("player: %w", ErrMissingID)
	}
	if in.TeamID > 0 {
		teamID = int(in.TeamID)
	}

	return models.Player{
		PlayerID:     int(in.ID),
		Name:         in.Name.value,
		Nickname:     in.Nickname.ptr(),
		Position:     strings.ToUpper(in.Position.value),
		JerseyNumber: in.JerseyNumber.ptr(),
		Height:       in.Height.ptr(),
		ShirtNumber:  int(in.ShirtNumber),
		Image:        in.HashImage.ptr(),
		TeamID:       teamID,
		TeamName:     in.TeamName.ptr(),
		TeamImage:    in.TeamHashImage.ptr(),
	}, nil
}

type devsScore struct {
	Current     flexInt `json:"current"`
	Display     flexInt `json:"display"`
	Period1     flexInt `json:"period_1"`
	Period2     flexInt `json:"period_2"`
	Period3     flexInt `json:"period_3"`
	Period4     flexInt `json:"period_4"`
	Overtime    flexInt `json:"overtime"`
	DefaultTime flexInt `json:"default_time"`
}

type devsMatch struct {
	ID        flexInt    `json:"id"`
	Name      flexString `json:"name"`
	RoundName flexString `json:"round_name"`
	Week      flexString `json:"week"`
	StartTime flexString `json:"start_time"`
	ArenaName flexString `json:"arena_name"`
	ArenaCity flexString `json:"arena_city"`
	Status    *struct {
		Type   flexString `json:"type"`
		Reason flexString `json:"reason"`
	} `json:"status"`
	StatusType      flexString `json:"status_type"`
	LeagueID        flexInt    `json:"league_id"`
	LeagueName      flexString `json:"league_name"`
	LeagueHashImage flexString `json:"league_hash_image"`
	SeasonID        flexInt    `json:"season_id"`
	TournamentID    flexInt    `json:"tournament_id"`
	TournamentName  flexString `json:"tournament_name"`
	TournamentImage flexString `json:"tournament_hash_image"`
	HomeTeamID      flexInt    `json:"home_team_id"`
	HomeTeamName    flexString `json:"home_team_name"`
	HomeTeamImage   flexString `json:"home_team_hash_image"`
	HomeTeamScore   devsScore  `json:"home_team_score"`
	AwayTeamID      flexInt    `json:"away_team_id"`
	AwayTeamName    flexString `json:"away_team_name"`
	AwayTeamImage   flexString `json:"away_team_hash_image"`
	AwayTeamScore   devsScore  `json:"away_team_score"`
}

// Game normalizes one row of /matches
func (SportDevs) Game(raw json.RawMessage) (models.Game, error) {
	var in devsMatch
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Game{}, fmt.Errorf("failed to decode game: %w", err)
	}
	if in.ID <= 0 {
		return models.Game{}, fmt.Errorf("game: %w", ErrMissingID)
	}

	status := models.GameStatus{Type: devsStatusType(in.StatusType.value)}
	if in.Status != nil {
		if in.Status.Type.set {
			status.Type = devsStatusType(in.Status.Type.value)
		}
		status.Reason = in.Status.Reason.ptr()
	}

	game := models.Game{
		GameID:   int(in.ID),
		Name:     in.Name.ptr(),
		Stage:    in.RoundName.ptr(),
		Week:     in.Week.ptr(),
		StartsAt: devsStart(in.StartTime),
		Status:   status,
		League: models.Ref{
			ID:   int(in.LeagueID),
			Name: in.LeagueName.ptr(),
			Logo: in.LeagueHashImage.ptr(),
		},
		Season: int(in.SeasonID),
		Home:   devsGameTeam(in.HomeTeamID, in.HomeTeamName, in.HomeTeamImage, in.HomeTeamScore),
		Away:   devsGameTeam(in.AwayTeamID, in.AwayTeamName, in.AwayTeamImage, in.AwayTeamScore),
	}
	if in.ArenaName.set || in.ArenaCity.set {
		game.Venue = &models.Venue{Name: in.ArenaName.ptr(), City: in.ArenaCity.ptr()}
	}
	if in.TournamentID > 0 {
		game.Tournament = &models.Ref{
			ID:   int(in.TournamentID),
			Name: in.TournamentName.ptr(),
			Logo: in.TournamentImage.ptr(),
		}
	}
	return game, nil
}

func devsGameTeam(id flexInt, name, image flexString, score devsScore) models.GameTeam {
	return models.GameTeam{
		TeamID: int(id),
		Name:   name.ptr(),
		Logo:   image.ptr(),
		Score: models.Score{
			Current:     int(score.Current),
			Display:     int(score.Display),
			Period1:     int(score.Period1),
			Period2:     int(score.Period2),
			Period3:     int(score.Period3),
			Period4:     int(score.Period4),
			Overtime:    int(score.Overtime),
			DefaultTime: int(score.DefaultTime),
		},
	}
}

func devsStart(v flexString) *time.Time {
	if !v.set {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v.value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func devsStatusType(v string) string {
	switch strings.ToLower(v) {
	case "notstarted", "scheduled":
		return models.StatusScheduled
	case "inprogress", "live":
		return models.StatusInProgress
	case "finished", "ended":
		return models.StatusFinished
	case "postponed":
		return models.StatusPostponed
	case "canceled", "cancelled":
		return models.StatusCanceled
	default:
		return models.StatusUnknown
	}
}

// statCategories lists the groups a flat statistics row is split into, in
// output order. Names are matched on the underscore prefix.
var statCategories = []struct {
	prefix string
	group  string
}{
	{"passing_", "Passing"},
	{"rushing_", "Rushing"},
	{"receiving_", "Receiving"},
	{"defensive_", "Defensive"},
	{"kicking_", "Kicking"},
	{"punt_returns_", "Punt Returns"},
	{"", "Other"},
}

func statCategory(name string) int {
	for i, c := range statCategories {
		if strings.HasPrefix(name, c.prefix) {
			return i
		}
	}
	return len(statCategories) - 1
}

type devsStatisticsRow struct {
	TeamID          flexInt                    `json:"team_id"`
	TeamName        flexString                 `json:"team_name"`
	TeamHashImage   flexString                 `json:"team_hash_image"`
	PlayerID        flexInt                    `json:"player_id"`
	PlayerName      flexString                 `json:"player_name"`
	PlayerHashImage flexString                 `json:"player_hash_image"`
	Statistics      map[string]json.RawMessage `json:"statistics"`
}

// GameStatistics groups the flat per-player rows of
// /matches-players-statistics by team, then by category prefix. Teams are
// ordered by id, players keep their row order and stats are sorted by name.
func (SportDevs) GameStatistics(gameID int, raws []json.RawMessage) ([]models.GameStatistics, error) {
	type teamAcc struct {
		doc    models.GameStatistics
		groups [][]models.PlayerLine
	}
	teams := make(map[int]*teamAcc)

	for _, raw := range raws {
		var row devsStatisticsRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("failed to decode game statistics: %w", err)
		}
		if row.TeamID <= 0 || row.PlayerID <= 0 {
			return nil, fmt.Errorf("game statistics row: %w", ErrMissingID)
		}

		acc, ok := teams[int(row.TeamID)]
		if !ok {
			acc = &teamAcc{
				doc: models.GameStatistics{
					GameID:   gameID,
					TeamID:   int(row.TeamID),
					TeamName: row.TeamName.ptr(),
					TeamLogo: row.TeamHashImage.ptr(),
				},
				groups: make([][]models.PlayerLine, len(statCategories)),
			}
			teams[int(row.TeamID)] = acc
		}

		names := make([]string, 0, len(row.Statistics))
		for name := range row.Statistics {
			names = append(names, name)
		}
		sort.Strings(names)

		lines := make([]*models.PlayerLine, len(statCategories))
		for _, name := range names {
			i := statCategory(name)
			if lines[i] == nil {
				lines[i] = &models.PlayerLine{
					PlayerID:    int(row.PlayerID),
					PlayerName:  row.PlayerName.value,
					PlayerImage: row.PlayerHashImage.ptr(),
				}
			}
			lines[i].Statistics = append(lines[i].Statistics, models.Stat{Name: name, Value: statValue(row.Statistics[name])})
		}
		for i, line := range lines {
			if line != nil {
				acc.groups[i] = append(acc.groups[i], *line)
			}
		}
	}

	ids := make([]int, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]models.GameStatistics, 0, len(ids))
	for _, id := range ids {
		acc := teams[id]
		acc.doc.Groups = []models.StatGroup{}
		for i, lines := range acc.groups {
			if len(lines) == 0 {
				continue
			}
			acc.doc.Groups = append(acc.doc.Groups, models.StatGroup{Name: statCategories[i].group, Players: lines})
		}
		out = append(out, acc.doc)
	}
	return out, nil
}
