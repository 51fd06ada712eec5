package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/choplin/savemeta/internal/database"
	"github.com/choplin/savemeta/internal/integrity"
)

func setupServiceDB(t *testing.T) *database.Context {
	t.Helper()
	ctx, err := database.CreateDatabase(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}

	t.Cleanup(func() {
		if err := database.CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func TestJournalServiceRecordValidation(t *testing.T) {
	svc := NewJournalService(setupServiceDB(t))
	ctx := context.Background()

	report := integrity.Report{
		Total:   3,
		Valid:   1,
		Invalid: 2,
		Missing: 1,
		Results: []integrity.Result{
			{Filename: "a.sav", Status: integrity.StatusValid, StoredChecksum: "aa", CurrentChecksum: "aa"},
			{Filename: "b.sav", Status: integrity.StatusMismatch, StoredChecksum: "bb", CurrentChecksum: "cc"},
			{Filename: "c.sav", Status: integrity.StatusMissing, StoredChecksum: "dd"},
		},
		CheckedAt: time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC),
	}

	id, err := svc.RecordValidation(ctx, "/saves", report)
	if err != nil {
		t.Fatalf("RecordValidation failed: %v", err)
	}

	detail, err := svc.Run(ctx, id)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if detail.Run.Kind != database.RunValidate || detail.Run.Invalid != 2 || !detail.Run.StartedAt.Equal(report.CheckedAt) {
		t.Fatalf("unexpected run %#v", detail.Run)
	}
	if len(detail.Findings) != 2 {
		t.Fatalf("expected only failures to be recorded, got %#v", detail.Findings)
	}
	if detail.Findings[0].Filename != "b.sav" || detail.Findings[0].CurrentChecksum != "cc" {
		t.Fatalf("unexpected finding %#v", detail.Findings[0])
	}
	if detail.Findings[1].Status != "missing" {
		t.Fatalf("unexpected finding %#v", detail.Findings[1])
	}
}

func TestJournalServiceRecordReconcileAndHistory(t *testing.T) {
	svc := NewJournalService(setupServiceDB(t))
	ctx := context.Background()

	first := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	if _, err := svc.RecordReconcile(ctx, "/saves", first, nil); err != nil {
		t.Fatalf("RecordReconcile failed: %v", err)
	}
	id, err := svc.RecordReconcile(ctx, "/saves", first.Add(time.Hour), []string{"gone.sav", "lost.sav"})
	if err != nil {
		t.Fatalf("RecordReconcile failed: %v", err)
	}

	runs, err := svc.History(ctx, "/saves", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != id || runs[0].Removed != 2 || runs[1].Removed != 0 {
		t.Fatalf("unexpected history %#v", runs)
	}

	detail, err := svc.Run(ctx, id[:8])
	if err != nil {
		t.Fatalf("Run by prefix failed: %v", err)
	}
	if len(detail.Findings) != 2 || detail.Findings[0].Status != "removed" {
		t.Fatalf("unexpected findings %#v", detail.Findings)
	}
}

func TestJournalServiceRunNotFound(t *testing.T) {
	svc := NewJournalService(setupServiceDB(t))

	if _, err := svc.Run(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
