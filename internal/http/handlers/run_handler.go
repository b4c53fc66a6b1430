// Ingestion run HTTP handlers.
//
// This file exposes REST endpoints for the write side of the directory:
//   - POST /runs   (trigger an ingestion run; 409 when one is in flight)
//   - GET  /runs   (run history, paginated)
//   - GET  /stats  (corpus metadata plus run-history aggregates)
//
// Triggered runs execute synchronously: the response carries the completed
// run record. Runs are strictly serialized by the service; a trigger that
// loses the race gets 409 and can poll /runs for the winner's outcome.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/services"
)

// ListRunsResponse wraps a page of run records and pagination information.
type ListRunsResponse struct {
	Runs       []domain.IngestRun `json:"runs"`
	Pagination Pagination         `json:"pagination"`
}

// StatsResponse joins corpus metadata with run-history aggregates.
type StatsResponse struct {
	services.DirectoryStats
	Runs RunStats `json:"runs"`
}

// RunStats carries run-history aggregates for the stats endpoint.
type RunStats struct {
	Total      int64  `json:"total"`
	Succeeded  int64  `json:"succeeded"`
	LastRunAt  string `json:"last_run_at,omitempty"`
	LastStatus string `json:"last_status,omitempty"`
}

// TriggerRun starts one ingestion run and blocks until it completes.
//
// Responses:
//   - 200 with the run record on success
//   - 409 when another run is already executing
//   - 500 with the (persisted) failed run record's error on pipeline failure
func (h *Handlers) TriggerRun(c *gin.Context) {
	run, err := h.ingestSvc.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrRunInFlight) {
			fail(c, http.StatusConflict, ErrCodeConflict, "ingestion run already in progress")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeRunFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, run)
}

// ListRuns returns a page of run records, most recent first.
func (h *Handlers) ListRuns(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.ingestSvc.History(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRunsResponse{
		Runs:       items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetStats returns corpus metadata plus run-history aggregates. The last
// run's status comes from the newest entry in the run history.
func (h *Handlers) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	resp := StatsResponse{DirectoryStats: h.dirSvc.Stats()}

	total, succeeded, lastStarted, err := h.ingestSvc.Stats(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	resp.Runs.Total = total
	resp.Runs.Succeeded = succeeded
	if lastStarted != nil {
		resp.Runs.LastRunAt = lastStarted.UTC().Format(time.RFC3339)

		runs, _, err := h.ingestSvc.History(ctx, 1, 1)
		if err == nil && len(runs) > 0 {
			if runs[0].Success {
				resp.Runs.LastStatus = "success"
			} else {
				resp.Runs.LastStatus = "failed"
			}
		}
	}
	ok(c, http.StatusOK, resp)
}
