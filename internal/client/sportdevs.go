package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SportDevsProvider is the provider name for sportdevs american football
const SportDevsProvider = "sportdevs"

// DefaultSportDevsPageSize is the largest page sportdevs serves
const DefaultSportDevsPageSize = 50

// SportDevsClient talks to the sportdevs american football API: flat JSON
// arrays, PostgREST style filters and limit/offset pagination
type SportDevsClient struct {
	*Client
	pageSize int
}

// NewSportDevsClient creates a client authenticated with a bearer token
func NewSportDevsClient(cfg Config, apiKey string, pageSize int, limiter Limiter) *SportDevsClient {
	if pageSize <= 0 {
		pageSize = DefaultSportDevsPageSize
	}
	return &SportDevsClient{
		Client: newClient(SportDevsProvider, cfg, limiter, map[string]string{
			"Authorization": "Bearer " + apiKey,
			"Prefer":        "count=exact",
		}),
		pageSize: pageSize,
	}
}

// FetchTeams fetches the teams of a season, narrowed to one team when TeamID is set
func (c *SportDevsClient) FetchTeams(ctx context.Context, q Query) ([]json.RawMessage, error) {
	filters := url.Values{}
	eq(filters, "season_id", q.Season)
	eq(filters, "team_id", q.TeamID)
	records, err := c.paginate(ctx, "/teams-by-season", filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	return records, nil
}

// FetchPlayers fetches the players of one team
func (c *SportDevsClient) FetchPlayers(ctx context.Context, q Query) ([]json.RawMessage, error) {
	filters := url.Values{}
	eq(filters, "team_id", q.TeamID)
	records, err := c.paginate(ctx, "/players-by-team", filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch players: %w", err)
	}
	return records, nil
}

// FetchGames fetches the matches of a league season
func (c *SportDevsClient) FetchGames(ctx context.Context, q Query) ([]json.RawMessage, error) {
	filters := url.Values{}
	eq(filters, "league_id", q.LeagueID)
	eq(filters, "season_id", q.Season)
	records, err := c.paginate(ctx, "/matches", filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}
	return records, nil
}

// FetchGameStatistics fetches flat per-player statistics rows for one match
func (c *SportDevsClient) FetchGameStatistics(ctx context.Context, q Query) ([]json.RawMessage, error) {
	filters := url.Values{}
	eq(filters, "match_id", q.GameID)
	records, err := c.paginate(ctx, "/matches-players-statistics", filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game statistics: %w", err)
	}
	return records, nil
}

// paginate requests pages with an increasing offset until a page is empty,
// a page is short, or the running total reaches the declared count
func (c *SportDevsClient) paginate(ctx context.Context, path string, filters url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for offset := 0; ; {
		params := url.Values{}
		for key, values := range filters {
			params[key] = append([]string(nil), values...)
		}
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("offset", strconv.Itoa(offset))

		body, header, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}

		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s page at offset %d: %w", path, offset, err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		if total, ok := declaredCount(header.Get("Content-Range")); ok && len(all) >= total {
			break
		}
		if len(page) < c.pageSize {
			break
		}
		offset += len(page)
	}

	return all, nil
}

func eq(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, "eq."+strconv.Itoa(value))
	}
}

// declaredCount parses the total from a Content-Range header like "0-49/1234"
func declaredCount(contentRange string) (int, bool) {
	_, total, found := strings.Cut(contentRange, "/")
	if !found || total == "*" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
