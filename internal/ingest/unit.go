package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/metrics"
	"gridiron/ingestion/internal/models"
)

// unit is one independently refreshable slice of an entity class: a team's
// record, a team's roster, the game list or one game's statistics.
type unit[T any] struct {
	field string
	id    int
	// fresh is nil when the unit must be fetched regardless of stored data
	fresh   func(context.Context) (bool, error)
	fetch   func(context.Context) ([]json.RawMessage, error)
	convert func(raws []json.RawMessage, now time.Time) []T
	store   func(context.Context, []T) (models.UpsertResult, error)
	// discard removes what a partly failed store wrote, so a unit whose
	// freshness is existence-based is fetched again next run
	discard func(context.Context) (int, error)
}

// process runs one unit and records its outcome on rep. Failures stay inside
// the unit. It returns the records that were persisted.
func process[T any](ctx context.Context, rep *Report, now func() time.Time, u unit[T]) []T {
	rep.Units++
	logger := log.With().Str("class", rep.Class).Int(u.field, u.id).Logger()

	if u.fresh != nil {
		fresh, err := u.fresh(ctx)
		if err != nil {
			rep.Failed++
			metrics.RecordError("ingest", "store_read")
			logger.Error().Err(err).Msg("Failed to read stored freshness, skipping unit")
			return nil
		}
		if fresh {
			rep.Fresh++
			logger.Debug().Msg("Stored data is fresh, skipping fetch")
			return nil
		}
	}

	raws, err := u.fetch(ctx)
	if err != nil {
		rep.Failed++
		metrics.RecordError("ingest", "upstream")
		logger.Error().Err(err).Msg("Upstream fetch failed, skipping unit")
		return nil
	}

	records := u.convert(raws, now())
	if len(records) == 0 {
		rep.Empty++
		logger.Warn().Int("raw", len(raws)).Msg("Upstream returned no usable data")
		return nil
	}

	result, err := u.store(ctx, records)
	if err != nil && u.discard != nil && result.Written() > 0 {
		removed, derr := u.discard(context.WithoutCancel(ctx))
		if derr != nil {
			metrics.RecordError("ingest", "discard")
			logger.Error().Err(derr).Msg("Failed to discard partly stored unit")
		} else {
			logger.Warn().Int("removed", removed).Msg("Discarded partly stored unit")
			result.Inserted, result.Updated = 0, 0
		}
	}
	rep.Inserted += result.Inserted
	rep.Updated += result.Updated
	if err != nil {
		rep.Failed++
		metrics.RecordError("ingest", "persistence")
		logger.Error().
			Err(err).
			Int("written", result.Written()).
			Int("failed", result.Failed).
			Msg("Failed to persist records, next run will retry")
		return nil
	}

	rep.Fetched++
	logger.Debug().
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Msg("Unit refreshed")
	return records
}
