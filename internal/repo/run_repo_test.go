package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func sampleRun(id string, started time.Time, success bool) *domain.IngestRun {
	return &domain.IngestRun{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Sources:    "reddit,github",
		Fetched:    40,
		Added:      12,
		Success:    success,
	}
}

func TestCreateRunAndLatest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

	if err := CreateRun(ctx, db, sampleRun("run-1", base, true)); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := CreateRun(ctx, db, sampleRun("run-2", base.Add(24*time.Hour), false)); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	latest, err := LatestRun(ctx, db)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.ID != "run-2" {
		t.Fatalf("latest = %q, want run-2", latest.ID)
	}
	if latest.Success {
		t.Fatalf("latest run success flag lost")
	}
}

func TestLatestRun_Empty(t *testing.T) {
	db := testDB(t)
	_, err := LatestRun(context.Background(), db)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateRun_DuplicateID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Now().UTC(), true)
	if err := CreateRun(ctx, db, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := CreateRun(ctx, db, sampleRun("run-1", time.Now().UTC(), true)); err == nil {
		t.Fatalf("expected primary-key violation")
	}
}

func TestCountRunsAndListPage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := sampleRun(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), true)
		if err := CreateRun(ctx, db, run); err != nil {
			t.Fatalf("CreateRun %d: %v", i, err)
		}
	}

	total, err := CountRuns(ctx, db)
	if err != nil || total != 5 {
		t.Fatalf("CountRuns = %d, %v", total, err)
	}

	page, err := ListRunsPage(ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("ListRunsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "e" || page[1].ID != "d" {
		t.Fatalf("first page = %v", runIDs(page))
	}

	page, err = ListRunsPage(ctx, db, 4, 2)
	if err != nil {
		t.Fatalf("ListRunsPage offset: %v", err)
	}
	if len(page) != 1 || page[0].ID != "a" {
		t.Fatalf("last page = %v", runIDs(page))
	}
}

func TestRunsStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	total, succeeded, last, err := RunsStats(ctx, db)
	if err != nil {
		t.Fatalf("RunsStats empty: %v", err)
	}
	if total != 0 || succeeded != 0 || last != nil {
		t.Fatalf("empty stats = %d/%d/%v", total, succeeded, last)
	}

	base := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	CreateRun(ctx, db, sampleRun("a", base, true))
	CreateRun(ctx, db, sampleRun("b", base.Add(time.Hour), false))
	CreateRun(ctx, db, sampleRun("c", base.Add(2*time.Hour), true))

	total, succeeded, last, err = RunsStats(ctx, db)
	if err != nil {
		t.Fatalf("RunsStats: %v", err)
	}
	if total != 3 || succeeded != 2 {
		t.Fatalf("stats = %d total, %d succeeded", total, succeeded)
	}
	if last == nil || !last.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("lastStarted = %v", last)
	}
}

func runIDs(runs []domain.IngestRun) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}
