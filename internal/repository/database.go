package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/metrics"
	"gridiron/ingestion/internal/models"

	_ "github.com/lib/pq"
)

// ErrNotFound is returned when no stored record matches a lookup
var ErrNotFound = errors.New("not found")

// Database holds the connection pools and provides access to repositories.
// Ingestion tables go through pgx; rosters and migrations use a database/sql
// handle.
type Database struct {
	Pool *pgxpool.Pool
	SQL  *sqlx.DB
	url  string

	// Repositories
	Teams   *TeamRepository
	Players *PlayerRepository
	Games   *GameRepository
	Stats   *StatsRepository
	Rosters *RosterRepository
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// URL returns the postgres connection URL
func (c Config) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// NewDatabase creates the connection pools and initializes repositories
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB, err := sqlx.Open("postgres", cfg.URL())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to open sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		pool.Close()
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sql handle: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Successfully connected to database")

	db := &Database{
		Pool: pool,
		SQL:  sqlDB,
		url:  cfg.URL(),
	}

	db.Teams = &TeamRepository{db: db}
	db.Players = &PlayerRepository{db: db}
	db.Games = &GameRepository{db: db}
	db.Stats = &StatsRepository{db: db}
	db.Rosters = NewRosterRepository(sqlDB)

	return db, nil
}

// Close closes both connection pools
func (db *Database) Close() {
	if db.SQL != nil {
		db.SQL.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// PoolStats returns database pool statistics and publishes them as gauges
func (db *Database) PoolStats() map[string]interface{} {
	stat := db.Pool.Stat()
	metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())

	return map[string]interface{}{
		"total_conns":    stat.TotalConns(),
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"max_conns":      stat.MaxConns(),
	}
}

// upsertEach writes records one statement at a time. A failed record does not
// undo the ones already written; failures are joined into the returned error.
func upsertEach[T any](ctx context.Context, entity string, records []T, key func(T) string, write func(context.Context, T) (bool, error)) (models.UpsertResult, error) {
	var (
		result models.UpsertResult
		errs   []error
	)
	start := time.Now()

	for _, rec := range records {
		inserted, err := write(ctx, rec)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("%s %s: %w", entity, key(rec), err))
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	metrics.RecordDBQuery("upsert", entity, time.Since(start).Seconds())
	metrics.RecordStoreWrites(entity, result.Inserted, result.Updated, result.Failed)

	if len(errs) > 0 {
		log.Error().
			Str("entity", entity).
			Int("failed", result.Failed).
			Int("written", result.Written()).
			Msg("Upsert batch partially failed")
		return result, errors.Join(errs...)
	}
	return result, nil
}

func recordQuery(operation, table string, start time.Time) {
	metrics.RecordDBQuery(operation, table, time.Since(start).Seconds())
}
