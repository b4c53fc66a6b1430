// Package domain defines the canonical data shapes shared across the
// ingestion pipeline, the dataset store, and the HTTP layer. This file
// contains the persistence model for ingestion run history, mapped with GORM.
package domain

import "time"

// IngestRun records the outcome of one end-to-end pipeline invocation.
// One row is written per run, successful or not, and the rows back the
// /api/v1/stats endpoint and operator dashboards.
//
// Fields:
//   - ID: UUID primary key.
//   - StartedAt / FinishedAt: UTC run boundaries.
//   - Sources: comma-separated list of sources that contributed records.
//   - Fetched: raw records returned by all sources combined.
//   - Rejected: records dropped by normalization or the quality filter.
//   - Duplicates: records dropped by the deduplicator.
//   - Added: new records merged into the corpus.
//   - Purged: historical records removed by the disabled-source purge
//     and the lenient re-validation pass.
//   - Evicted: records dropped by the corpus size cap.
//   - TotalAfter: corpus size after the write.
//   - Success: false when the run aborted (e.g. dataset write failure).
//   - Error: failure description when Success is false.
type IngestRun struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	StartedAt  time.Time `json:"started_at"  gorm:"not null;index"`
	FinishedAt time.Time `json:"finished_at"`
	Sources    string    `json:"sources"     gorm:"type:varchar(255)"`
	Fetched    int       `json:"fetched"`
	Rejected   int       `json:"rejected"`
	Duplicates int       `json:"duplicates"`
	Added      int       `json:"added"`
	Purged     int       `json:"purged"`
	Evicted    int       `json:"evicted"`
	TotalAfter int       `json:"total_after"`
	Success    bool      `json:"success"     gorm:"not null"`
	Error      string    `json:"error,omitempty" gorm:"type:text"`
}

// TableName returns the database table name for IngestRun.
func (IngestRun) TableName() string { return "ingest_runs" }
