// Package services – IngestService
//
// This file implements the IngestService, the write side of the system. It
// serializes pipeline runs (at most one in flight, whether triggered by the
// scheduler, the HTTP API, or the CLI), records every run's outcome in the
// run-history store, and refreshes the directory snapshot after a successful
// run so reads pick up the new corpus immediately.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/ingest"
	"github.com/promptdir/go-prompt-backend/internal/repo"
)

// RunRepo defines the repository contract required by IngestService.
type RunRepo interface {
	// CreateRun persists one completed run record.
	CreateRun(ctx context.Context, db *gorm.DB, run *domain.IngestRun) error

	// CountRuns returns the total number of recorded runs for pagination.
	CountRuns(ctx context.Context, db *gorm.DB) (int64, error)

	// ListRunsPage returns a page of runs, most recent first.
	ListRunsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.IngestRun, error)

	// RunsStats returns run-history aggregates for the stats endpoint.
	RunsStats(ctx context.Context, db *gorm.DB) (total, succeeded int64, lastStarted *time.Time, err error)
}

// runRepoFuncs adapts the package-level repo functions to RunRepo.
type runRepoFuncs struct{}

func (runRepoFuncs) CreateRun(ctx context.Context, db *gorm.DB, run *domain.IngestRun) error {
	return repo.CreateRun(ctx, db, run)
}

func (runRepoFuncs) CountRuns(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountRuns(ctx, db)
}

func (runRepoFuncs) ListRunsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.IngestRun, error) {
	return repo.ListRunsPage(ctx, db, offset, limit)
}

func (runRepoFuncs) RunsStats(ctx context.Context, db *gorm.DB) (int64, int64, *time.Time, error) {
	return repo.RunsStats(ctx, db)
}

// IngestService triggers and records pipeline runs.
type IngestService struct {
	// DB is the GORM handle used for run-history persistence.
	DB *gorm.DB
	// Repo is the run repository used by this service.
	Repo RunRepo
	// Pipeline executes one end-to-end ingestion pass.
	Pipeline *ingest.Pipeline
	// Directory, when set, is refreshed after every successful run.
	Directory *DirectoryService

	Log zerolog.Logger

	mu sync.Mutex // held for the duration of a run
}

// NewIngestService wires the service to the package-level repo functions.
func NewIngestService(db *gorm.DB, p *ingest.Pipeline, dir *DirectoryService, log zerolog.Logger) *IngestService {
	return &IngestService{
		DB:        db,
		Repo:      runRepoFuncs{},
		Pipeline:  p,
		Directory: dir,
		Log:       log,
	}
}

// Run executes one ingestion run. If another run is already executing it
// returns ErrRunInFlight immediately rather than queueing; the pipeline is
// idempotent, so a caller who lost the race can simply use the winner's
// result.
//
// The run record is persisted whether the run succeeds or fails. A
// persistence failure is logged but does not fail the run itself: the corpus
// write already happened and is the source of truth.
func (s *IngestService) Run(ctx context.Context) (*domain.IngestRun, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInFlight
	}
	defer s.mu.Unlock()

	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "Run")
	defer span.End()

	stats, runErr := s.Pipeline.Run(ctx)
	span.SetAttributes(
		attribute.Int("run.fetched", stats.Fetched),
		attribute.Int("run.added", stats.Added),
		attribute.Int("run.total_after", stats.TotalAfter),
		attribute.Bool("run.success", runErr == nil),
	)

	rec := &domain.IngestRun{
		ID:         uuid.NewString(),
		StartedAt:  stats.StartedAt.UTC(),
		FinishedAt: stats.FinishedAt.UTC(),
		Sources:    strings.Join(stats.Sources, ","),
		Fetched:    stats.Fetched,
		Rejected:   stats.Rejected,
		Duplicates: stats.Duplicates,
		Added:      stats.Added,
		Purged:     stats.Purged,
		Evicted:    stats.Evicted,
		TotalAfter: stats.TotalAfter,
		Success:    runErr == nil,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	// Persist on a fresh context: the run context may already be canceled,
	// and the history row should survive regardless.
	pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Repo.CreateRun(pctx, s.DB, rec); err != nil {
		s.Log.Error().Err(err).Msg("persist run record failed")
	}

	if runErr != nil {
		return rec, runErr
	}

	if s.Directory != nil {
		if err := s.Directory.Reload(); err != nil {
			s.Log.Warn().Err(err).Msg("directory refresh after run failed")
		}
	}
	return rec, nil
}

// History returns a page of run records, most recent first.
// It applies defaults for invalid page/pageSize and returns total count.
func (s *IngestService) History(ctx context.Context, page, pageSize int) ([]domain.IngestRun, int64, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountRuns(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.IngestRun{}, 0, nil
	}

	items, err := s.Repo.ListRunsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Stats returns run-history aggregates: total runs, successful runs, and the
// start time of the most recent run (nil when no run has ever been recorded).
func (s *IngestService) Stats(ctx context.Context) (total, succeeded int64, lastStarted *time.Time, err error) {
	return s.Repo.RunsStats(ctx, s.DB)
}
