// Package scheduler runs the ingestion pipeline on a cron schedule. It is a
// thin wrapper over robfig/cron that delegates overlap protection to the
// ingest service: a tick that fires while the previous run is still executing
// is skipped, not queued, so a slow run never builds a backlog.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/services"
)

// RunTrigger is the subset of the ingest service the scheduler needs.
type RunTrigger interface {
	// Run executes one ingestion run, or returns services.ErrRunInFlight.
	Run(ctx context.Context) (*domain.IngestRun, error)
}

// Scheduler triggers ingestion runs from a cron expression.
type Scheduler struct {
	cron *cron.Cron
	svc  RunTrigger
	log  zerolog.Logger

	// RunTimeout bounds each scheduled run. Zero means no bound.
	RunTimeout time.Duration
}

// New builds a Scheduler around the ingest service. Standard 5-field cron
// expressions are used (minute granularity), evaluated in the server's local
// time zone.
func New(svc RunTrigger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		svc:        svc,
		log:        log,
		RunTimeout: 30 * time.Minute,
	}
}

// Start registers spec and launches the cron loop. It returns an error when
// the expression does not parse; the loop itself runs on the cron goroutine
// until Stop is called.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("spec", spec).Msg("ingestion schedule started")
	return nil
}

// Stop halts the cron loop and waits for an in-progress tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("ingestion schedule stopped")
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RunTimeout)
		defer cancel()
	}

	run, err := s.svc.Run(ctx)
	switch {
	case errors.Is(err, services.ErrRunInFlight):
		// Previous run still executing; skip this tick.
		s.log.Warn().Msg("scheduled run skipped: previous run still in progress")
	case err != nil:
		s.log.Error().Err(err).Msg("scheduled run failed")
	default:
		s.log.Info().
			Str("run_id", run.ID).
			Int("added", run.Added).
			Int("total", run.TotalAfter).
			Msg("scheduled run complete")
	}
}
