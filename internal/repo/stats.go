// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries over
// run history, used by the stats endpoint. Each function is context-aware and
// safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// RunsStats returns aggregate metadata over the run history: the total number
// of runs, the number of successful runs, and the start time of the most
// recent run.
//
// It executes three lightweight queries against the ingest_runs table. When
// no run has ever been recorded, the returned counts are 0 and lastStarted is
// nil.
//
// Return values:
//   - total:       total recorded runs
//   - succeeded:   runs with success = true
//   - lastStarted: pointer to the latest StartedAt, or nil if no rows
//   - err:         database error, if any
func RunsStats(ctx context.Context, db *gorm.DB) (total, succeeded int64, lastStarted *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.IngestRun{})

	if err = q.Count(&total).Error; err != nil {
		return 0, 0, nil, err
	}
	if total == 0 {
		return 0, 0, nil, nil
	}

	if err = db.WithContext(ctx).Model(&domain.IngestRun{}).
		Where("success = ?", true).
		Count(&succeeded).Error; err != nil {
		return 0, 0, nil, err
	}

	// total > 0 guarantees a latest row exists.
	latest, err := LatestRun(ctx, db)
	if err != nil {
		return 0, 0, nil, err
	}
	return total, succeeded, &latest.StartedAt, nil
}
