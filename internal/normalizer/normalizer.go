// Package normalizer maps each provider's raw payloads onto the canonical
// models. Adapters are pure: the same raw input always yields the same record,
// missing numbers become 0, missing references become nil and unknown fields
// are dropped.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"

	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/models"
)

// ErrMissingID is returned when a raw record has no usable natural key
var ErrMissingID = errors.New("record has no id")

// Normalizer converts one provider's raw records into canonical models
type Normalizer interface {
	Provider() string
	Team(raw json.RawMessage, season int) (models.Team, error)
	Player(raw json.RawMessage, teamID int) (models.Player, error)
	Game(raw json.RawMessage) (models.Game, error)
	GameStatistics(gameID int, raws []json.RawMessage) ([]models.GameStatistics, error)
}

// ForProvider returns the adapter registered for a provider name
func ForProvider(provider string) (Normalizer, error) {
	switch provider {
	case client.APISportsProvider:
		return APISports{}, nil
	case client.SportDevsProvider:
		return SportDevs{}, nil
	default:
		return nil, fmt.Errorf("no normalizer for provider %q", provider)
	}
}
