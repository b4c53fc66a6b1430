// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the IngestRun
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a run is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRun inserts a completed run record. The caller assembles the full
// row (including ID and timestamps); this function only persists it.
func CreateRun(ctx context.Context, db *gorm.DB, run *domain.IngestRun) error {
	return db.WithContext(ctx).Create(run).Error
}

// LatestRun returns the most recently started run, or ErrNotFound when no
// run has ever been recorded.
func LatestRun(ctx context.Context, db *gorm.DB) (*domain.IngestRun, error) {
	var run domain.IngestRun
	err := db.WithContext(ctx).
		Order("started_at desc").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// CountRuns returns the total number of recorded runs.
// On DB error, it returns the error.
func CountRuns(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.IngestRun{}).
		Count(&total).Error
	return total, err
}

// ListRunsPage returns a paginated slice of runs ordered by start time
// descending. Use CountRuns to obtain the total for pagination metadata.
// On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListRunsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.IngestRun, error) {
	var out []domain.IngestRun
	err := db.WithContext(ctx).
		Order("started_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
