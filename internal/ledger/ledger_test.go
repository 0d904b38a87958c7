package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&count); err != nil {
		t.Fatalf("pages table missing: %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := db.BeginRun(ctx, "r1", "manual", start); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	runs, err := db.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != StatusRunning || runs[0].FinishedAt != nil {
		t.Fatalf("runs = %+v", runs)
	}

	counts := Counts{Archived: 1, Created: 2, Updated: 3, ContentReplaced: 1}
	if err := db.FinishRun(ctx, "r1", start.Add(time.Second), counts, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	runs, _ = db.Runs(ctx, 10)
	got := runs[0]
	if got.Status != StatusSucceeded || got.Counts != counts || got.Trigger != "manual" {
		t.Errorf("run = %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(start.Add(time.Second)) {
		t.Errorf("finished_at = %v", got.FinishedAt)
	}
}

func TestFinishRun_Failure(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now()

	db.BeginRun(ctx, "r1", "watch", now)
	if err := db.FinishRun(ctx, "r1", now, Counts{}, errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	runs, _ := db.Runs(ctx, 1)
	if runs[0].Status != StatusFailed || runs[0].Error != "boom" {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestFinishRun_Unknown(t *testing.T) {
	db := testDB(t)
	if err := db.FinishRun(context.Background(), "missing", time.Now(), Counts{}, nil); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestRuns_NewestFirstAndLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		db.BeginRun(ctx, id, "manual", base.Add(time.Duration(i)*time.Minute))
	}

	runs, err := db.Runs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("runs = %+v", runs)
	}

	all, _ := db.Runs(ctx, 0)
	if len(all) != 3 {
		t.Errorf("default limit returned %d runs", len(all))
	}
}

func TestPageChecksums(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, ok, err := db.Checksum(ctx, "a.md"); err != nil || ok {
		t.Fatalf("Checksum on empty ledger = %v, %v", ok, err)
	}

	db.RecordPage(ctx, "a.md", "p1", "sum1")
	db.RecordPage(ctx, "a.md", "p1", "sum2")
	db.RecordPage(ctx, "b.md", "p2", "sum3")

	if cs, ok, _ := db.Checksum(ctx, "a.md"); !ok || cs != "sum2" {
		t.Errorf("Checksum(a.md) = %q, %v", cs, ok)
	}

	if err := db.ForgetPage(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.Checksum(ctx, "a.md"); ok {
		t.Error("a.md should be forgotten")
	}

	pages, err := db.Pages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].IdentityKey != "b.md" || pages[0].PageID != "p2" {
		t.Errorf("pages = %+v", pages)
	}
}
