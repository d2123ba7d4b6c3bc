package repository

import (
	"context"
	"fmt"
	"time"

	"gridiron/ingestion/internal/models"
)

// StatsRepository handles per-game player statistics, one document per
// (game, team) with the groups stored as JSONB
type StatsRepository struct {
	db *Database
}

const statsColumns = `game_id, team_id, team_name, team_logo, groups, last_updated`

// UpsertBatch replaces or inserts each document by (game id, team id)
func (r *StatsRepository) UpsertBatch(ctx context.Context, docs []models.GameStatistics) (models.UpsertResult, error) {
	return upsertEach(ctx, "game_statistics", docs,
		func(s models.GameStatistics) string { return fmt.Sprintf("%d/%d", s.GameID, s.TeamID) },
		r.upsert,
	)
}

func (r *StatsRepository) upsert(ctx context.Context, s models.GameStatistics) (bool, error) {
	query := `
		INSERT INTO game_statistics (` + statsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, team_id) DO UPDATE SET
			team_name = EXCLUDED.team_name,
			team_logo = EXCLUDED.team_logo,
			groups = EXCLUDED.groups,
			last_updated = EXCLUDED.last_updated
		RETURNING (xmax = 0) AS inserted
	`

	groups := s.Groups
	if groups == nil {
		groups = []models.StatGroup{}
	}

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		s.GameID, s.TeamID, s.TeamName, s.TeamLogo, groups, s.LastUpdated,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert game statistics: %w", err)
	}
	return inserted, nil
}

// Exists reports whether any statistics are stored for a game
func (r *StatsRepository) Exists(ctx context.Context, gameID int) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM game_statistics WHERE game_id = $1)`, gameID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check game statistics: %w", err)
	}
	return exists, nil
}

// DeleteByGame removes every document of a game and returns how many were
// removed
func (r *StatsRepository) DeleteByGame(ctx context.Context, gameID int) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM game_statistics WHERE game_id = $1`, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete game statistics: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// List retrieves every stored document ordered by game id, then team id
func (r *StatsRepository) List(ctx context.Context) ([]models.GameStatistics, error) {
	return r.query(ctx, `
		SELECT `+statsColumns+` FROM game_statistics
		ORDER BY game_id, team_id
	`)
}

// ListByGames retrieves the documents of the given games ordered by game id,
// then team id
func (r *StatsRepository) ListByGames(ctx context.Context, gameIDs []int) ([]models.GameStatistics, error) {
	return r.query(ctx, `
		SELECT `+statsColumns+` FROM game_statistics
		WHERE game_id = ANY($1)
		ORDER BY game_id, team_id
	`, gameIDs)
}

func (r *StatsRepository) query(ctx context.Context, query string, args ...any) ([]models.GameStatistics, error) {
	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list game statistics: %w", err)
	}
	defer rows.Close()

	docs := []models.GameStatistics{}
	for rows.Next() {
		var s models.GameStatistics
		if err := rows.Scan(&s.GameID, &s.TeamID, &s.TeamName, &s.TeamLogo, &s.Groups, &s.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan game statistics: %w", err)
		}
		docs = append(docs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game statistics: %w", err)
	}

	recordQuery("list", "game_statistics", start)
	return docs, nil
}
