package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gridiron/ingestion/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// RosterRepository stores fantasy weekly teams through sqlx
type RosterRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRosterRepository creates a roster repository on an open handle
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db, now: time.Now}
}

const rosterColumns = `id, owner_id, team_name, credits, offensive_players, defensive_players,
	specialist_player, created_at, updated_at`

// Create inserts a weekly team under a fresh id
func (r *RosterRepository) Create(ctx context.Context, team models.WeeklyTeam) (models.WeeklyTeam, error) {
	query := `
		INSERT INTO weekly_teams (` + rosterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + rosterColumns

	now := r.now().UTC()
	var created models.WeeklyTeam
	err := r.db.GetContext(ctx, &created, query,
		uuid.New(), team.OwnerID, team.TeamName, team.Credits,
		team.OffensivePlayers, team.DefensivePlayers, team.SpecialistPlayer, now,
	)
	if err != nil {
		return models.WeeklyTeam{}, fmt.Errorf("failed to create weekly team: %w", err)
	}

	log.Debug().
		Str("id", created.ID.String()).
		Str("owner_id", created.OwnerID.String()).
		Msg("Weekly team created")

	return created, nil
}

// Get retrieves a weekly team by id
func (r *RosterRepository) Get(ctx context.Context, id uuid.UUID) (models.WeeklyTeam, error) {
	query := `SELECT ` + rosterColumns + ` FROM weekly_teams WHERE id = $1`

	var team models.WeeklyTeam
	err := r.db.GetContext(ctx, &team, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeeklyTeam{}, fmt.Errorf("weekly team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.WeeklyTeam{}, fmt.Errorf("failed to get weekly team: %w", err)
	}
	return team, nil
}

// List retrieves weekly teams, restricted to one owner unless owner is uuid.Nil
func (r *RosterRepository) List(ctx context.Context, owner uuid.UUID) ([]models.WeeklyTeam, error) {
	teams := []models.WeeklyTeam{}

	var err error
	if owner == uuid.Nil {
		err = r.db.SelectContext(ctx, &teams,
			`SELECT `+rosterColumns+` FROM weekly_teams ORDER BY created_at, id`)
	} else {
		err = r.db.SelectContext(ctx, &teams,
			`SELECT `+rosterColumns+` FROM weekly_teams WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly teams: %w", err)
	}
	return teams, nil
}

// Update replaces the editable fields of a weekly team
func (r *RosterRepository) Update(ctx context.Context, id uuid.UUID, team models.WeeklyTeam) (models.WeeklyTeam, error) {
	query := `
		UPDATE weekly_teams SET
			owner_id = $2,
			team_name = $3,
			credits = $4,
			offensive_players = $5,
			defensive_players = $6,
			specialist_player = $7,
			updated_at = $8
		WHERE id = $1
		RETURNING ` + rosterColumns

	var updated models.WeeklyTeam
	err := r.db.GetContext(ctx, &updated, query,
		id, team.OwnerID, team.TeamName, team.Credits,
		team.OffensivePlayers, team.DefensivePlayers, team.SpecialistPlayer, r.now().UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeeklyTeam{}, fmt.Errorf("weekly team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.WeeklyTeam{}, fmt.Errorf("failed to update weekly team: %w", err)
	}
	return updated, nil
}

// Delete removes a weekly team
func (r *RosterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM weekly_teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete weekly team: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete weekly team: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("weekly team %s: %w", id, ErrNotFound)
	}

	log.Debug().Str("id", id.String()).Msg("Weekly team deleted")
	return nil
}
