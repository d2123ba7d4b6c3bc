package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gridiron/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// PlayerRepository handles player database operations
type PlayerRepository struct {
	db *Database
}

const playerColumns = `player_id, name, nickname, position, position_group, jersey_number,
	height, shirt_number, image, team_id, team_name, team_image, last_updated`

// UpsertBatch replaces or inserts each player by player id
func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []models.Player) (models.UpsertResult, error) {
	return upsertEach(ctx, "players", players,
		func(p models.Player) string { return strconv.Itoa(p.PlayerID) },
		r.upsert,
	)
}

func (r *PlayerRepository) upsert(ctx context.Context, p models.Player) (bool, error) {
	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			nickname = EXCLUDED.nickname,
			position = EXCLUDED.position,
			position_group = EXCLUDED.position_group,
			jersey_number = EXCLUDED.jersey_number,
			height = EXCLUDED.height,
			shirt_number = EXCLUDED.shirt_number,
			image = EXCLUDED.image,
			team_id = EXCLUDED.team_id,
			team_name = EXCLUDED.team_name,
			team_image = EXCLUDED.team_image,
			last_updated = EXCLUDED.last_updated
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		p.PlayerID, p.Name, p.Nickname, p.Position, p.Group, p.JerseyNumber,
		p.Height, p.ShirtNumber, p.Image, p.TeamID, p.TeamName, p.TeamImage,
		p.LastUpdated,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert player: %w", err)
	}
	return inserted, nil
}

// LastUpdatedForTeam returns the newest stamp among a team's players, zero
// when the team has none stored
func (r *PlayerRepository) LastUpdatedForTeam(ctx context.Context, teamID int) (time.Time, error) {
	var stamp *time.Time
	err := r.db.Pool.QueryRow(ctx, `SELECT MAX(last_updated) FROM players WHERE team_id = $1`, teamID).Scan(&stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read player stamp: %w", err)
	}
	if stamp == nil {
		return time.Time{}, nil
	}
	return *stamp, nil
}

// List retrieves all players ordered by player id
func (r *PlayerRepository) List(ctx context.Context) ([]models.Player, error) {
	return r.query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY player_id`)
}

// ListByTeam retrieves one team's players ordered by player id
func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int) ([]models.Player, error) {
	return r.query(ctx, `SELECT `+playerColumns+` FROM players WHERE team_id = $1 ORDER BY player_id`, teamID)
}

func (r *PlayerRepository) query(ctx context.Context, query string, args ...any) ([]models.Player, error) {
	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []models.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	recordQuery("list", "players", start)
	return players, nil
}

func scanPlayer(row pgx.Row) (models.Player, error) {
	var p models.Player
	err := row.Scan(
		&p.PlayerID, &p.Name, &p.Nickname, &p.Position, &p.Group, &p.JerseyNumber,
		&p.Height, &p.ShirtNumber, &p.Image, &p.TeamID, &p.TeamName, &p.TeamImage,
		&p.LastUpdated,
	)
	return p, err
}
