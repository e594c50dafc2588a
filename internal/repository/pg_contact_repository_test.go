package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// testPool connects to TEST_DATABASE_URL with the schema applied.
// Integration tests are skipped in short mode or when no database is configured.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if err := ApplyMigrations(dbURL); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	pool, err := NewPool(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPgContactRepository_OutboxLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewPgContactRepository(pool)

	// Drain anything left pending by earlier runs so the claim below is ours.
	if leftovers, err := repo.ClaimPending(ctx); err == nil {
		ids := make([]int64, 0, len(leftovers))
		for _, c := range leftovers {
			ids = append(ids, c.ID)
		}
		_, _ = repo.MarkProcessed(ctx, ids)
	}

	unique := fmt.Sprintf("%d", time.Now().UnixNano())
	c := &model.ContactSubmission{
		Name:        "Ann",
		Email:       "ann-" + unique + "@example.com",
		Message:     "Hello",
		Status:      model.ContactUnread,
		ExportState: model.ExportPending,
	}
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected ID to be set after Save")
	}

	claimed, err := repo.ClaimPending(ctx)
	if err != nil {
		t.Fatalf("ClaimPending failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != c.ID {
		t.Fatalf("expected to claim only the new row, got %d rows", len(claimed))
	}
	if claimed[0].ExportState != model.ExportExporting {
		t.Errorf("expected exporting, got %q", claimed[0].ExportState)
	}

	again, err := repo.ClaimPending(ctx)
	if err != nil {
		t.Fatalf("second ClaimPending failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("a claimed row must not be claimed twice, got %d", len(again))
	}

	// Failure path: release back to pending.
	if err := repo.SetExportState(ctx, []int64{c.ID}, model.ExportPending); err != nil {
		t.Fatalf("SetExportState failed: %v", err)
	}
	got, err := repo.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.ExportState != model.ExportPending || got.Processed {
		t.Errorf("expected pending/unprocessed, got %q processed=%v", got.ExportState, got.Processed)
	}

	claimed, err = repo.ClaimPending(ctx)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("reclaim failed: %v (%d rows)", err, len(claimed))
	}
	n, err := repo.MarkProcessed(ctx, []int64{c.ID})
	if err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row marked, got %d", n)
	}

	got, _ = repo.FindByID(ctx, c.ID)
	if !got.Processed || got.ExportState != model.ExportDone {
		t.Errorf("expected done/processed, got %q processed=%v", got.ExportState, got.Processed)
	}

	// A done row never goes back.
	_ = repo.SetExportState(ctx, []int64{c.ID}, model.ExportPending)
	got, _ = repo.FindByID(ctx, c.ID)
	if !got.Processed {
		t.Error("processed must never revert")
	}
}

func TestPgContactRepository_FindByID_NotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewPgContactRepository(pool)

	_, err := repo.FindByID(context.Background(), -1)
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
