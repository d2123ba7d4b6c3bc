package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gridiron/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GameRepository handles game database operations. Venue, status, league,
// tournament and both sides are stored as JSONB sub-documents.
type GameRepository struct {
	db *Database
}

const gameColumns = `game_id, name, stage, week, starts_at, venue, status, league,
	season, tournament, home, away, last_updated`

// UpsertBatch replaces or inserts each game by game id
func (r *GameRepository) UpsertBatch(ctx context.Context, games []models.Game) (models.UpsertResult, error) {
	return upsertEach(ctx, "games", games,
		func(g models.Game) string { return strconv.Itoa(g.GameID) },
		r.upsert,
	)
}

func (r *GameRepository) upsert(ctx context.Context, g models.Game) (bool, error) {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (game_id) DO UPDATE SET
			name = EXCLUDED.name,
			stage = EXCLUDED.stage,
			week = EXCLUDED.week,
			starts_at = EXCLUDED.starts_at,
			venue = EXCLUDED.venue,
			status = EXCLUDED.status,
			league = EXCLUDED.league,
			season = EXCLUDED.season,
			tournament = EXCLUDED.tournament,
			home = EXCLUDED.home,
			away = EXCLUDED.away,
			last_updated = EXCLUDED.last_updated
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		g.GameID, g.Name, g.Stage, g.Week, g.StartsAt, g.Venue, g.Status, g.League,
		g.Season, g.Tournament, g.Home, g.Away, g.LastUpdated,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert game: %w", err)
	}

	log.Debug().
		Int("game_id", g.GameID).
		Str("status", g.Status.Type).
		Bool("inserted", inserted).
		Msg("Game upserted")

	return inserted, nil
}

// LatestUpdate returns the newest stamp across all stored games, zero when
// no game is stored
func (r *GameRepository) LatestUpdate(ctx context.Context) (time.Time, error) {
	var stamp *time.Time
	if err := r.db.Pool.QueryRow(ctx, `SELECT MAX(last_updated) FROM games`).Scan(&stamp); err != nil {
		return time.Time{}, fmt.Errorf("failed to read game stamp: %w", err)
	}
	if stamp == nil {
		return time.Time{}, nil
	}
	return *stamp, nil
}

// List retrieves all games ordered by start time, then game id
func (r *GameRepository) List(ctx context.Context) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY starts_at NULLS LAST, game_id`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	recordQuery("list", "games", start)
	return games, nil
}

// IDsBetween returns the ids of games starting in [from, to), ascending
func (r *GameRepository) IDsBetween(ctx context.Context, from, to time.Time) ([]int, error) {
	query := `
		SELECT game_id FROM games
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query games in window: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to collect game ids: %w", err)
	}
	return ids, nil
}

func scanGame(row pgx.Row) (models.Game, error) {
	var g models.Game
	err := row.Scan(
		&g.GameID, &g.Name, &g.Stage, &g.Week, &g.StartsAt, &g.Venue, &g.Status, &g.League,
		&g.Season, &g.Tournament, &g.Home, &g.Away, &g.LastUpdated,
	)
	return g, err
}
