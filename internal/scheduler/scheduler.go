package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Job interface {
	Run() error
	Name() string
}

// Scheduler runs jobs on six-field cron schedules (seconds first) in the
// market's timezone.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func New(loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job under schedule, e.g. "0 45 15 * * MON-FRI". A
// firing that overlaps a still-running one of the same job is skipped.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		start := time.Now()
		s.log.Debug().Str("job", job.Name()).Msg("running job")

		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Dur("took", time.Since(start)).
				Msg("job failed")
			return
		}
		s.log.Info().Str("job", job.Name()).Dur("took", time.Since(start)).Msg("job completed")
	}))

	if _, err := s.cron.AddJob(schedule, wrapped); err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("job registered")
	return nil
}

// Entries reports when each registered job fires next.
func (s *Scheduler) Entries() []time.Time {
	out := []time.Time{}
	for _, e := range s.cron.Entries() {
		out = append(out, e.Next)
	}
	return out
}
