package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// APISportsProvider is the provider name for api-sports american football
const APISportsProvider = "apisports"

// APISportsClient talks to the api-sports american football v1 API, which
// wraps records in a nested response array
type APISportsClient struct {
	*Client
}

// NewAPISportsClient creates a client authenticated with the rapidapi headers
func NewAPISportsClient(cfg Config, host, apiKey string, limiter Limiter) *APISportsClient {
	return &APISportsClient{
		Client: newClient(APISportsProvider, cfg, limiter, map[string]string{
			"x-rapidapi-host": host,
			"x-rapidapi-key":  apiKey,
		}),
	}
}

type apiSportsEnvelope struct {
	Results  int               `json:"results"`
	Errors   json.RawMessage   `json:"errors"`
	Paging   apiSportsPaging   `json:"paging"`
	Response []json.RawMessage `json:"response"`
}

type apiSportsPaging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// FetchTeams fetches a team by id for a league season
func (c *APISportsClient) FetchTeams(ctx context.Context, q Query) ([]json.RawMessage, error) {
	records, err := c.fetch(ctx, "/teams", q.params("id", "league", "season"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	return records, nil
}

// FetchPlayers fetches a team's players for a season
func (c *APISportsClient) FetchPlayers(ctx context.Context, q Query) ([]json.RawMessage, error) {
	records, err := c.fetch(ctx, "/players", q.params("team", "", "season"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch players: %w", err)
	}
	return records, nil
}

// FetchGames fetches every game of a league season
func (c *APISportsClient) FetchGames(ctx context.Context, q Query) ([]json.RawMessage, error) {
	records, err := c.fetch(ctx, "/games", q.params("", "league", "season"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}
	return records, nil
}

// FetchGameStatistics fetches per-team player statistics for one game
func (c *APISportsClient) FetchGameStatistics(ctx context.Context, q Query) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(q.GameID))
	records, err := c.fetch(ctx, "/games/statistics/players", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game statistics: %w", err)
	}
	return records, nil
}

// fetch follows the paging block until the last page has been read
func (c *APISportsClient) fetch(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for page := 1; ; page++ {
		if page > 1 {
			params.Set("page", strconv.Itoa(page))
		}

		body, _, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}

		var env apiSportsEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		if hasErrors(env.Errors) {
			return nil, fmt.Errorf("%s %s reported errors: %s", c.provider, path, truncate(env.Errors, 200))
		}

		all = append(all, env.Response...)

		if len(env.Response) == 0 || env.Paging.Total <= page {
			break
		}
	}

	return all, nil
}

// params builds the query for the given parameter names; an empty name skips that field
func (q Query) params(teamKey, leagueKey, seasonKey string) url.Values {
	v := url.Values{}
	if teamKey != "" && q.TeamID > 0 {
		v.Set(teamKey, strconv.Itoa(q.TeamID))
	}
	if leagueKey != "" && q.LeagueID > 0 {
		v.Set(leagueKey, strconv.Itoa(q.LeagueID))
	}
	if seasonKey != "" && q.Season > 0 {
		v.Set(seasonKey, strconv.Itoa(q.Season))
	}
	return v
}

// hasErrors reports whether the errors field is a non-empty array or object
func hasErrors(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return !bytes.Equal(trimmed, []byte("[]")) && !bytes.Equal(trimmed, []byte("{}"))
}
