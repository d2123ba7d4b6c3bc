// Package scheduler runs refresh jobs on cron schedules
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/ingest"
)

// Job is a named unit of scheduled work
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler manages the registered jobs. Schedules have a seconds field and
// are evaluated in UTC. A job still running when its next tick fires is
// skipped for that tick.
type Scheduler struct {
	cron *cron.Cron

	mu     sync.Mutex
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler() *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx: context.Background(),
	}
}

// Register adds a job. It fails on a missing name or run function and on an
// unparseable schedule.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}

	_, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	log.Info().
		Str("job", job.Name).
		Str("schedule", job.Schedule).
		Msg("Job scheduled")
	return nil
}

// Jobs returns the registered jobs in registration order
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.jobs...)
}

// Start starts the scheduler. Jobs receive a context derived from ctx that
// is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	log.Info().Int("jobs", len(s.Jobs())).Msg("Scheduler started")
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// RunNow runs a registered job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.Jobs() {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("no job named %q", name)
}

func (s *Scheduler) run(job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	log.Info().Str("job", job.Name).Msg("Running scheduled job")

	if err := job.Run(ctx); err != nil {
		log.Error().
			Err(err).
			Str("job", job.Name).
			Dur("duration", time.Since(start)).
			Msg("Scheduled job failed")
		return
	}

	log.Info().
		Str("job", job.Name).
		Dur("duration", time.Since(start)).
		Msg("Scheduled job complete")
}

// cronLogger routes cron's own messages through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Runner executes one entity class's refresh
type Runner interface {
	Run(ctx context.Context, class string, force bool) (ingest.Report, error)
}

// RefreshJob builds a job that refreshes classes in order, each only where
// stale. A failing class does not stop the ones after it; a cancelled
// context does.
func RefreshJob(name, schedule string, r Runner, classes ...string) Job {
	return Job{
		Name:     name,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			var errs []error
			for _, class := range classes {
				if err := ctx.Err(); err != nil {
					return errors.Join(append(errs, err)...)
				}
				rep, err := r.Run(ctx, class, false)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", class, err))
					continue
				}
				log.Info().Str("job", name).Msg(rep.Summary())
			}
			return errors.Join(errs...)
		},
	}
}
