// Package ingest refreshes the local store from the upstream provider. Each
// entity class has its own job; jobs are plain methods so the scheduler, the
// CLI and the HTTP API can all call them.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"gridiron/ingestion/internal/cache"
	"gridiron/ingestion/internal/client"
	"gridiron/ingestion/internal/freshness"
	"gridiron/ingestion/internal/metrics"
	"gridiron/ingestion/internal/models"
	"gridiron/ingestion/internal/normalizer"
	"gridiron/ingestion/internal/scoring"
)

// Entity classes
const (
	ClassTeams      = "teams"
	ClassPlayers    = "players"
	ClassGames      = "games"
	ClassStatistics = "statistics"
)

// Classes lists every entity class in refresh order
var Classes = []string{ClassTeams, ClassPlayers, ClassGames, ClassStatistics}

// ErrUnknownClass is returned by Run for a class it does not know
var ErrUnknownClass = errors.New("unknown entity class")

// TeamStore persists teams
type TeamStore interface {
	UpsertBatch(ctx context.Context, teams []models.Team) (models.UpsertResult, error)
	LastUpdated(ctx context.Context, teamID int) (time.Time, error)
}

// PlayerStore persists players
type PlayerStore interface {
	UpsertBatch(ctx context.Context, players []models.Player) (models.UpsertResult, error)
	LastUpdatedForTeam(ctx context.Context, teamID int) (time.Time, error)
}

// GameStore persists games
type GameStore interface {
	UpsertBatch(ctx context.Context, games []models.Game) (models.UpsertResult, error)
	LatestUpdate(ctx context.Context) (time.Time, error)
	List(ctx context.Context) ([]models.Game, error)
	IDsBetween(ctx context.Context, from, to time.Time) ([]int, error)
}

// StatisticsStore persists per-game statistics
type StatisticsStore interface {
	UpsertBatch(ctx context.Context, docs []models.GameStatistics) (models.UpsertResult, error)
	Exists(ctx context.Context, gameID int) (bool, error)
	DeleteByGame(ctx context.Context, gameID int) (int, error)
}

// Stores groups the per-class stores
type Stores struct {
	Teams   TeamStore
	Players PlayerStore
	Games   GameStore
	Stats   StatisticsStore
}

// Config scopes what the jobs fetch
type Config struct {
	LeagueID    int
	Season      int
	TeamIDs     []int
	WindowStart time.Time
	WindowDays  int
}

// Window returns the [from, to) range used to select games for statistics
func (c Config) Window() (time.Time, time.Time) {
	from := c.WindowStart.UTC()
	return from, from.AddDate(0, 0, c.WindowDays)
}

// Deps are the collaborators of a Service
type Deps struct {
	Upstream   client.Upstream
	Normalizer normalizer.Normalizer
	Ruleset    scoring.Ruleset
	Policy     freshness.Policy
	Stores     Stores
	// Cache is optional; matching keys are invalidated after writes
	Cache cache.Cache
}

// Service runs the refresh jobs
type Service struct {
	cfg      Config
	teamIDs  []int
	upstream client.Upstream
	norm     normalizer.Normalizer
	ruleset  scoring.Ruleset
	policy   freshness.Policy
	stores   Stores
	cache    cache.Cache

	inflight singleflight.Group
	mu       sync.Mutex
	flights  map[string]*flight

	// base is cancelled by Stop and bounds every run
	base         context.Context
	stop         context.CancelFunc
	async        sync.WaitGroup
	asyncTimeout time.Duration
}

// NewService validates the dependencies and builds a Service
func NewService(cfg Config, deps Deps) (*Service, error) {
	switch {
	case deps.Upstream == nil:
		return nil, errors.New("upstream client is required")
	case deps.Normalizer == nil:
		return nil, errors.New("normalizer is required")
	case deps.Stores.Teams == nil || deps.Stores.Players == nil || deps.Stores.Games == nil || deps.Stores.Stats == nil:
		return nil, errors.New("all entity stores are required")
	case deps.Ruleset.Name() == "":
		return nil, errors.New("scoring ruleset is required")
	case deps.Upstream.Provider() != deps.Normalizer.Provider():
		return nil, fmt.Errorf("normalizer %q does not match provider %q", deps.Normalizer.Provider(), deps.Upstream.Provider())
	case cfg.WindowDays <= 0:
		return nil, fmt.Errorf("statistics window must span at least one day, got %d", cfg.WindowDays)
	}

	ids := slices.Clone(cfg.TeamIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}

	policy := deps.Policy
	if policy.Threshold <= 0 {
		policy.Threshold = freshness.DefaultThreshold
	}

	base, stop := context.WithCancel(context.Background())

	return &Service{
		cfg:          cfg,
		teamIDs:      ids,
		upstream:     deps.Upstream,
		norm:         deps.Normalizer,
		ruleset:      deps.Ruleset,
		policy:       policy,
		stores:       deps.Stores,
		cache:        c,
		flights:      make(map[string]*flight),
		base:         base,
		stop:         stop,
		asyncTimeout: 15 * time.Minute,
	}, nil
}

func (s *Service) now() time.Time {
	if s.policy.Now != nil {
		return s.policy.Now()
	}
	return time.Now()
}

// outcome is what a guarded run hands to every caller sharing it
type outcome struct {
	report Report
	games  []models.Game
	stats  []models.GameStatistics
}

// flight is the context shared by every caller of one in-flight run. It is
// cancelled once all of them have given up, or when the service stops.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	unhook  func() bool
	waiters int
}

func (s *Service) attach(ctx context.Context, class string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[class]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel, unhook: context.AfterFunc(s.base, cancel)}
		if s.base.Err() != nil {
			cancel()
		}
		s.flights[class] = f
	}
	f.waiters++
	return f
}

// detach reports whether the caller was the last one waiting on f, in which
// case f is cancelled
func (s *Service) detach(class string, f *flight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	if s.flights[class] == f {
		delete(s.flights, class)
	}
	f.unhook()
	f.cancel()
	return true
}

// guarded runs fn unless a run of the same class is already in flight, in
// which case the caller waits for and shares that run's outcome. A caller
// whose ctx ends stops waiting; the run itself only stops when no caller is
// left.
func (s *Service) guarded(ctx context.Context, class string, force bool, fn func(context.Context, *Report) (outcome, error)) (outcome, error) {
	f := s.attach(ctx, class)

	for {
		ch := s.inflight.DoChan(class, func() (any, error) {
			start := time.Now()
			rep := Report{Class: class, Forced: force}
			out, err := fn(f.ctx, &rep)
			rep.Duration = time.Since(start)
			out.report = rep
			s.observe(f.ctx, rep, err)
			return out, err
		})

		select {
		case res := <-ch:
			// a run abandoned by its own callers is no answer for a caller still waiting
			if res.Shared && errors.Is(res.Err, context.Canceled) && ctx.Err() == nil && s.base.Err() == nil {
				log.Debug().Str("class", class).Msg("Joined refresh was cancelled, starting again")
				continue
			}
			s.detach(class, f)
			if res.Shared {
				log.Debug().Str("class", class).Msg("Joined in-flight refresh")
			}
			return res.Val.(outcome), res.Err

		case <-ctx.Done():
			if !s.detach(class, f) {
				return outcome{report: Report{Class: class, Forced: force}}, ctx.Err()
			}
			res := <-ch
			return res.Val.(outcome), res.Err
		}
	}
}

func (s *Service) observe(ctx context.Context, rep Report, err error) {
	status := "success"
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	case err != nil:
		status = "error"
	case rep.Failed > 0:
		status = "partial"
	}

	metrics.RecordRefresh(rep.Class, status, rep.Duration.Seconds())
	metrics.RecordRefreshUnits(rep.Class, rep.Fresh, rep.Fetched, rep.Empty, rep.Failed)

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Str("class", rep.Class).
		Str("status", status).
		Bool("forced", rep.Forced).
		Int("units", rep.Units).
		Int("fresh", rep.Fresh).
		Int("fetched", rep.Fetched).
		Int("empty", rep.Empty).
		Int("failed", rep.Failed).
		Int("inserted", rep.Inserted).
		Int("updated", rep.Updated).
		Dur("duration", rep.Duration).
		Msg("Refresh finished")

	if rep.Written() > 0 {
		s.invalidate(context.WithoutCancel(ctx), rep.Class)
	}
}

func (s *Service) invalidate(ctx context.Context, class string) {
	var keys []string
	switch class {
	case ClassTeams:
		keys = []string{cache.KeyTeams}
	case ClassPlayers:
		keys = []string{cache.KeyPlayersPrefix + "*"}
	case ClassGames:
		keys = []string{cache.KeyGames}
	default:
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		log.Debug().Err(err).Str("class", class).Msg("Cache invalidation failed")
	}
}

// fresh applies the age policy to a stored stamp
func (s *Service) fresh(class, field string, id int, stamp time.Time) bool {
	if s.policy.IsFresh(stamp) {
		return true
	}
	s.logStale(class, field, id, stamp)
	return false
}

func (s *Service) logStale(class, field string, id int, stamp time.Time) {
	if stamp.IsZero() {
		return
	}
	log.Debug().
		Str("class", class).
		Int(field, id).
		Dur("age", s.policy.Age(stamp)).
		Msg("Stored data is stale")
}

// RefreshTeams refreshes every configured team whose stored record is stale
func (s *Service) RefreshTeams(ctx context.Context) (Report, error) {
	out, err := s.guarded(ctx, ClassTeams, false, func(ctx context.Context, rep *Report) (outcome, error) {
		return outcome{}, s.refreshTeams(ctx, rep, false)
	})
	return out.report, err
}

func (s *Service) refreshTeams(ctx context.Context, rep *Report, force bool) error {
	for _, teamID := range s.teamIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		u := unit[models.Team]{
			field: "team_id",
			id:    teamID,
			fetch: func(ctx context.Context) ([]json.RawMessage, error) {
				return s.upstream.FetchTeams(ctx, client.Query{TeamID: teamID, LeagueID: s.cfg.LeagueID, Season: s.cfg.Season})
			},
			convert: func(raws []json.RawMessage, now time.Time) []models.Team {
				return convertEach(raws, "team", func(raw json.RawMessage) (models.Team, error) {
					team, err := s.norm.Team(raw, s.cfg.Season)
					return team.Stamped(now), err
				})
			},
			store: s.stores.Teams.UpsertBatch,
		}
		if !force {
			u.fresh = func(ctx context.Context) (bool, error) {
				stamp, err := s.stores.Teams.LastUpdated(ctx, teamID)
				return s.fresh(ClassTeams, "team_id", teamID, stamp), err
			}
		}
		process(ctx, rep, s.now, u)
	}
	return nil
}

// RefreshPlayers refreshes the roster of every configured team whose newest
// stored player is stale
func (s *Service) RefreshPlayers(ctx context.Context) (Report, error) {
	out, err := s.guarded(ctx, ClassPlayers, false, func(ctx context.Context, rep *Report) (outcome, error) {
		return outcome{}, s.refreshPlayers(ctx, rep, false)
	})
	return out.report, err
}

func (s *Service) refreshPlayers(ctx context.Context, rep *Report, force bool) error {
	for _, teamID := range s.teamIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		u := unit[models.Player]{
			field: "team_id",
			id:    teamID,
			fetch: func(ctx context.Context) ([]json.RawMessage, error) {
				return s.upstream.FetchPlayers(ctx, client.Query{TeamID: teamID, Season: s.cfg.Season})
			},
			convert: func(raws []json.RawMessage, now time.Time) []models.Player {
				return convertEach(raws, "player", func(raw json.RawMessage) (models.Player, error) {
					p, err := s.norm.Player(raw, teamID)
					return p.Stamped(now), err
				})
			},
			store: s.stores.Players.UpsertBatch,
		}
		if !force {
			u.fresh = func(ctx context.Context) (bool, error) {
				stamp, err := s.stores.Players.LastUpdatedForTeam(ctx, teamID)
				return s.fresh(ClassPlayers, "team_id", teamID, stamp), err
			}
		}
		process(ctx, rep, s.now, u)
	}
	return nil
}

// RefreshGames refreshes the game list unless any stored game is fresh, then
// returns every stored game
func (s *Service) RefreshGames(ctx context.Context) ([]models.Game, Report, error) {
	out, err := s.guarded(ctx, ClassGames, false, func(ctx context.Context, rep *Report) (outcome, error) {
		games, err := s.refreshGames(ctx, rep, false)
		return outcome{games: games}, err
	})
	return out.games, out.report, err
}

func (s *Service) refreshGames(ctx context.Context, rep *Report, force bool) ([]models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := unit[models.Game]{
		field: "league_id",
		id:    s.cfg.LeagueID,
		fetch: func(ctx context.Context) ([]json.RawMessage, error) {
			return s.upstream.FetchGames(ctx, client.Query{LeagueID: s.cfg.LeagueID, Season: s.cfg.Season})
		},
		convert: func(raws []json.RawMessage, now time.Time) []models.Game {
			return convertEach(raws, "game", func(raw json.RawMessage) (models.Game, error) {
				g, err := s.norm.Game(raw)
				return g.Stamped(now), err
			})
		},
		store: s.stores.Games.UpsertBatch,
	}
	if !force {
		u.fresh = func(ctx context.Context) (bool, error) {
			latest, err := s.stores.Games.LatestUpdate(ctx)
			return s.policy.AnyFresh(latest), err
		}
	}
	process(ctx, rep, s.now, u)

	games, err := s.stores.Games.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored games: %w", err)
	}
	return games, nil
}

// GameIDsInWindow returns the ids of stored games starting inside the
// configured statistics window, ascending
func (s *Service) GameIDsInWindow(ctx context.Context) ([]int, error) {
	from, to := s.cfg.Window()
	ids, err := s.stores.Games.IDsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to select games in window: %w", err)
	}
	return ids, nil
}

// RefreshStatistics fetches statistics for every game in the window. A game
// with stored statistics is skipped unless force is set. Each player line is
// scored before it is stored. It returns the documents written by this run,
// nil when there are none.
func (s *Service) RefreshStatistics(ctx context.Context, force bool) ([]models.GameStatistics, Report, error) {
	out, err := s.guarded(ctx, ClassStatistics, force, func(ctx context.Context, rep *Report) (outcome, error) {
		stats, err := s.refreshStatistics(ctx, rep, force)
		return outcome{stats: stats}, err
	})
	return out.stats, out.report, err
}

func (s *Service) refreshStatistics(ctx context.Context, rep *Report, force bool) ([]models.GameStatistics, error) {
	ids, err := s.GameIDsInWindow(ctx)
	if err != nil {
		return nil, err
	}

	var collected []models.GameStatistics
	for _, gameID := range ids {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		u := unit[models.GameStatistics]{
			field: "game_id",
			id:    gameID,
			fetch: func(ctx context.Context) ([]json.RawMessage, error) {
				return s.upstream.FetchGameStatistics(ctx, client.Query{GameID: gameID})
			},
			convert: func(raws []json.RawMessage, now time.Time) []models.GameStatistics {
				docs, err := s.norm.GameStatistics(gameID, raws)
				if err != nil {
					log.Warn().Err(err).Int("game_id", gameID).Msg("Failed to normalize game statistics")
					return nil
				}
				scored := make([]models.GameStatistics, 0, len(docs))
				for _, doc := range docs {
					scored = append(scored, s.ruleset.ScoreStatistics(doc).Stamped(now))
				}
				return scored
			},
			store: s.stores.Stats.UpsertBatch,
			discard: func(ctx context.Context) (int, error) {
				return s.stores.Stats.DeleteByGame(ctx, gameID)
			},
		}
		if !force {
			u.fresh = func(ctx context.Context) (bool, error) {
				found, err := s.stores.Stats.Exists(ctx, gameID)
				return freshness.Exists(found), err
			}
		}
		collected = append(collected, process(ctx, rep, s.now, u)...)
	}
	return collected, nil
}

// Run executes one class's job. force bypasses every freshness check.
func (s *Service) Run(ctx context.Context, class string, force bool) (Report, error) {
	var fn func(context.Context, *Report) (outcome, error)
	switch class {
	case ClassTeams:
		fn = func(ctx context.Context, rep *Report) (outcome, error) {
			return outcome{}, s.refreshTeams(ctx, rep, force)
		}
	case ClassPlayers:
		fn = func(ctx context.Context, rep *Report) (outcome, error) {
			return outcome{}, s.refreshPlayers(ctx, rep, force)
		}
	case ClassGames:
		fn = func(ctx context.Context, rep *Report) (outcome, error) {
			games, err := s.refreshGames(ctx, rep, force)
			return outcome{games: games}, err
		}
	case ClassStatistics:
		fn = func(ctx context.Context, rep *Report) (outcome, error) {
			stats, err := s.refreshStatistics(ctx, rep, force)
			return outcome{stats: stats}, err
		}
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}

	out, err := s.guarded(ctx, class, force, fn)
	return out.report, err
}

// Trigger starts a refresh-if-stale of class in the background. The run
// outlives ctx's cancellation but keeps its values.
func (s *Service) Trigger(ctx context.Context, class string) {
	s.async.Add(1)
	go func() {
		defer s.async.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.asyncTimeout)
		defer cancel()

		if _, err := s.Run(ctx, class, false); err != nil {
			log.Warn().Err(err).Str("class", class).Msg("Background refresh failed")
		}
	}()
}

// Wait blocks until every background refresh has returned
func (s *Service) Wait() {
	s.async.Wait()
}

// Stop cancels every in-flight run, then waits for background refreshes.
// Runs started after Stop are cancelled before their first unit.
func (s *Service) Stop() {
	s.stop()
	s.Wait()
}

// convertEach normalizes raws one by one, dropping records that fail
func convertEach[T any](raws []json.RawMessage, kind string, fn func(json.RawMessage) (T, error)) []T {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		rec, err := fn(raw)
		if err != nil {
			log.Warn().Err(err).Str("kind", kind).Msg("Dropping record that failed to normalize")
			continue
		}
		out = append(out, rec)
	}
	return out
}
