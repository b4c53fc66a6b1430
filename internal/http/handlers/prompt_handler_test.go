package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

// fakeDirectory implements DirectoryService with canned data.
type fakeDirectory struct {
	prompts  []domain.Prompt
	listErr  error
	getErr   error
	lastCat  string
	lastQ    string
	lastPage int
	lastSize int
}

func (f *fakeDirectory) List(category, q string, page, pageSize int) ([]domain.Prompt, int64, error) {
	f.lastCat, f.lastQ, f.lastPage, f.lastSize = category, q, page, pageSize
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.prompts, int64(len(f.prompts)), nil
}

func (f *fakeDirectory) Get(slugOrID string) (*domain.Prompt, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.prompts {
		if f.prompts[i].Slug == slugOrID {
			return &f.prompts[i], nil
		}
	}
	return nil, services.ErrPromptNotFound
}

func (f *fakeDirectory) Categories() []services.CategoryCount {
	return []services.CategoryCount{{Name: "Programming", Count: 2}, {Name: "General", Count: 1}}
}

func (f *fakeDirectory) Stats() services.DirectoryStats {
	return services.DirectoryStats{TotalPrompts: len(f.prompts), Categories: 2, LastUpdate: "2024-06-15"}
}

// fakeIngest implements IngestService with canned data.
type fakeIngest struct {
	run    *domain.IngestRun
	runErr error
	runs   []domain.IngestRun

	statsTotal     int64
	statsSucceeded int64
	statsLast      *time.Time
	statsErr       error
}

func (f *fakeIngest) Run(ctx context.Context) (*domain.IngestRun, error) {
	return f.run, f.runErr
}

func (f *fakeIngest) History(ctx context.Context, page, pageSize int) ([]domain.IngestRun, int64, error) {
	return f.runs, int64(len(f.runs)), nil
}

func (f *fakeIngest) Stats(ctx context.Context) (int64, int64, *time.Time, error) {
	return f.statsTotal, f.statsSucceeded, f.statsLast, f.statsErr
}

func testRouter(dir DirectoryService, ing IngestService) *gin.Engine {
	r := gin.New()
	h := New(dir, ing)
	r.GET("/prompts", h.ListPrompts)
	r.GET("/prompts/:slug", h.GetPrompt)
	r.GET("/categories", h.ListCategories)
	r.POST("/runs", h.TriggerRun)
	r.GET("/runs", h.ListRuns)
	r.GET("/stats", h.GetStats)
	return r
}

func doReq(t *testing.T, r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListPrompts(t *testing.T) {
	dir := &fakeDirectory{prompts: []domain.Prompt{
		{ID: "1", Slug: "first-prompt", Title: "First prompt"},
		{ID: "2", Slug: "second-prompt", Title: "Second prompt"},
	}}
	r := testRouter(dir, &fakeIngest{})

	w := doReq(t, r, http.MethodGet, "/prompts?category=Programming&q=review&page=2&page_size=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if dir.lastCat != "Programming" || dir.lastQ != "review" || dir.lastPage != 2 || dir.lastSize != 5 {
		t.Fatalf("service args = %q %q %d %d", dir.lastCat, dir.lastQ, dir.lastPage, dir.lastSize)
	}

	var resp ListPromptsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Prompts) != 2 || resp.Pagination.Total != 2 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestListPrompts_PaginationClamped(t *testing.T) {
	dir := &fakeDirectory{}
	r := testRouter(dir, &fakeIngest{})

	doReq(t, r, http.MethodGet, "/prompts?page=-3&page_size=9999")
	if dir.lastPage != 1 {
		t.Fatalf("page = %d, want clamp to 1", dir.lastPage)
	}
	if dir.lastSize != 100 {
		t.Fatalf("page_size = %d, want cap at 100", dir.lastSize)
	}

	doReq(t, r, http.MethodGet, "/prompts?page=abc&page_size=xyz")
	if dir.lastPage != 1 || dir.lastSize != 20 {
		t.Fatalf("defaults = %d/%d", dir.lastPage, dir.lastSize)
	}
}

func TestGetPrompt(t *testing.T) {
	dir := &fakeDirectory{prompts: []domain.Prompt{{ID: "1", Slug: "known-prompt", Title: "Known prompt"}}}
	r := testRouter(dir, &fakeIngest{})

	w := doReq(t, r, http.MethodGet, "/prompts/known-prompt")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got domain.Prompt
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Slug != "known-prompt" {
		t.Fatalf("slug = %q", got.Slug)
	}
}

func TestGetPrompt_NotFound(t *testing.T) {
	r := testRouter(&fakeDirectory{}, &fakeIngest{})

	w := doReq(t, r, http.MethodGet, "/prompts/missing-prompt")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrCodeNotFound {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestListCategories(t *testing.T) {
	r := testRouter(&fakeDirectory{}, &fakeIngest{})

	w := doReq(t, r, http.MethodGet, "/categories")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp CategoriesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 2 || resp.Categories[0].Name != "Programming" {
		t.Fatalf("categories = %+v", resp.Categories)
	}
}

func TestPaginationFor(t *testing.T) {
	cases := []struct {
		page, pageSize int
		total          int64
		wantPages      int
		wantNext       bool
	}{
		{1, 20, 0, 0, false},
		{1, 20, 20, 1, false},
		{1, 20, 21, 2, true},
		{2, 20, 21, 2, false},
		{3, 10, 95, 10, true},
	}
	for _, tc := range cases {
		got := paginationFor(tc.page, tc.pageSize, tc.total)
		if got.TotalPages != tc.wantPages || got.HasNext != tc.wantNext {
			t.Fatalf("paginationFor(%d,%d,%d) = %+v", tc.page, tc.pageSize, tc.total, got)
		}
	}
}
