package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gridiron/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

const teamColumns = `team_id, name, code, city, coach, owner, stadium, established,
	logo, country, season, last_updated`

// UpsertBatch replaces or inserts each team by team id
func (r *TeamRepository) UpsertBatch(ctx context.Context, teams []models.Team) (models.UpsertResult, error) {
	return upsertEach(ctx, "teams", teams,
		func(t models.Team) string { return strconv.Itoa(t.TeamID) },
		r.upsert,
	)
}

func (r *TeamRepository) upsert(ctx context.Context, team models.Team) (bool, error) {
	query := `
		INSERT INTO teams (` + teamColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			city = EXCLUDED.city,
			coach = EXCLUDED.coach,
			owner = EXCLUDED.owner,
			stadium = EXCLUDED.stadium,
			established = EXCLUDED.established,
			logo = EXCLUDED.logo,
			country = EXCLUDED.country,
			season = EXCLUDED.season,
			last_updated = EXCLUDED.last_updated
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		team.TeamID, team.Name, team.Code, team.City, team.Coach, team.Owner,
		team.Stadium, team.Established, team.Logo, team.Country, team.Season,
		team.LastUpdated,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert team: %w", err)
	}

	log.Debug().
		Int("team_id", team.TeamID).
		Str("name", team.Name).
		Bool("inserted", inserted).
		Msg("Team upserted")

	return inserted, nil
}

// GetByTeamID retrieves a team by its provider id
func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID int) (models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_id = $1`

	team, err := scanTeam(r.db.Pool.QueryRow(ctx, query, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Team{}, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return models.Team{}, fmt.Errorf("failed to get team: %w", err)
	}

	return team, nil
}

// LastUpdated returns the stored stamp for a team, zero when the team is absent
func (r *TeamRepository) LastUpdated(ctx context.Context, teamID int) (time.Time, error) {
	var stamp time.Time
	err := r.db.Pool.QueryRow(ctx, `SELECT last_updated FROM teams WHERE team_id = $1`, teamID).Scan(&stamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read team stamp: %w", err)
	}
	return stamp, nil
}

// List retrieves all teams ordered by team id
func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY team_id`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	recordQuery("list", "teams", start)
	return teams, nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func scanTeam(row pgx.Row) (models.Team, error) {
	var team models.Team
	err := row.Scan(
		&team.TeamID, &team.Name, &team.Code, &team.City, &team.Coach, &team.Owner,
		&team.Stadium, &team.Established, &team.Logo, &team.Country, &team.Season,
		&team.LastUpdated,
	)
	return team, err
}
