// Prompt directory HTTP handlers.
//
// This file exposes REST endpoints for the read side of the directory:
//   - GET /prompts            (list, filtered and paginated)
//   - GET /prompts/{slug}     (single prompt, slug or legacy numeric id)
//   - GET /categories         (category counts)
//   - GET /stats              (corpus and run-history stats)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/services"
	"github.com/promptdir/go-prompt-backend/internal/utils"
)

//
// Service contracts
//

// DirectoryService defines the read operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use; reads are served from an
// in-memory snapshot and never block on ingestion.
type DirectoryService interface {
	// List returns a page of prompts filtered by category and/or query.
	List(category, q string, page, pageSize int) ([]domain.Prompt, int64, error)
	// Get resolves one prompt by slug or legacy numeric id.
	Get(slugOrID string) (*domain.Prompt, error)
	// Categories returns every category with its prompt count.
	Categories() []services.CategoryCount
	// Stats returns corpus-level metadata.
	Stats() services.DirectoryStats
}

// IngestService defines the run operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IngestService interface {
	// Run executes one ingestion run, or returns services.ErrRunInFlight.
	Run(ctx context.Context) (*domain.IngestRun, error)
	// History returns a page of run records and the total count.
	History(ctx context.Context, page, pageSize int) ([]domain.IngestRun, int64, error)
	// Stats returns run-history aggregates.
	Stats(ctx context.Context) (total, succeeded int64, lastStarted *time.Time, err error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for prompts, categories, stats, and runs.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	dirSvc    DirectoryService
	ingestSvc IngestService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(dirSvc DirectoryService, ingestSvc IngestService) *Handlers {
	return &Handlers{dirSvc: dirSvc, ingestSvc: ingestSvc}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListPromptsResponse wraps a page of prompts and pagination information.
type ListPromptsResponse struct {
	Prompts    []domain.Prompt `json:"prompts"`
	Pagination Pagination      `json:"pagination"`
}

// CategoriesResponse wraps the category counts.
type CategoriesResponse struct {
	Categories []services.CategoryCount `json:"categories"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// ListPrompts returns a page of prompts. Supported query parameters:
//   - category:  case-insensitive exact category filter
//   - q:         full-text query over title, text, tags, and category
//   - page, page_size: pagination
//
// Results follow corpus order (newest first) unless q is set, in which case
// they are ordered by search relevance.
func (h *Handlers) ListPrompts(c *gin.Context) {
	page, pageSize := clampPagination(c)
	category := strings.TrimSpace(c.Query("category"))
	q := strings.TrimSpace(c.Query("q"))

	items, total, err := h.dirSvc.List(category, q, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListPromptsResponse{
		Prompts:    items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetPrompt returns a single prompt by slug. Legacy numeric ids are accepted
// so pre-slug bookmarks keep resolving.
func (h *Handlers) GetPrompt(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slug required")
		return
	}

	p, err := h.dirSvc.Get(slug)
	if err != nil {
		if errors.Is(err, services.ErrPromptNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "prompt not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// ListCategories returns every category present in the corpus with its
// prompt count, largest first.
func (h *Handlers) ListCategories(c *gin.Context) {
	ok(c, http.StatusOK, CategoriesResponse{Categories: h.dirSvc.Categories()})
}
