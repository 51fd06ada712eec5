package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/choplin/savemeta/internal/config"
	"github.com/choplin/savemeta/internal/integrity"
	"github.com/choplin/savemeta/internal/usecase"
)

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		StoreDir: filepath.Join(root, "saves"),
		Checksum: "sha256",
		Journal:  config.JournalConfig{Enabled: true, Path: filepath.Join(root, "journal.db")},
	}

	session, err := usecase.OpenSession(usecase.SessionOptions{Config: cfg})
	if err != nil {
		t.Fatalf("OpenSession error: %v", err)
	}
	t.Cleanup(func() {
		if err := session.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
	})

	return NewServer(session, "test"), session.Store.Dir()
}

func writeSave(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestToolsRegisterValidateReconcile(t *testing.T) {
	ctx := context.Background()
	s, dir := setupServer(t)

	writeSave(t, dir, "slot1.sav", "AAAA")
	writeSave(t, dir, "slot1_backup.sav", "AAAA")
	version := "1.2.0"

	_, reg, err := s.handleRegister(ctx, nil, RegisterInput{
		Filenames:       []string{"slot1.sav", "slot1_backup.sav", "missing.sav"},
		ProducerVersion: &version,
	})
	if err != nil {
		t.Fatalf("handleRegister error: %v", err)
	}
	if len(reg.Entries) != 2 || len(reg.Errors) != 1 {
		t.Fatalf("unexpected register output %+v", reg)
	}

	_, list, err := s.handleList(ctx, nil, ListInput{})
	if err != nil {
		t.Fatalf("handleList error: %v", err)
	}
	if len(list.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list.Entries))
	}
	backupsOnly := true
	_, backups, err := s.handleList(ctx, nil, ListInput{BackupsOnly: &backupsOnly})
	if err != nil {
		t.Fatalf("handleList error: %v", err)
	}
	if len(backups.Entries) != 1 || backups.Entries[0].Filename != "slot1_backup.sav" {
		t.Fatalf("unexpected backups %+v", backups.Entries)
	}

	writeSave(t, dir, "slot1.sav", "BBBB")
	_, validation, err := s.handleValidate(ctx, nil, ValidateInput{})
	if err != nil {
		t.Fatalf("handleValidate error: %v", err)
	}
	if validation.Total != 2 || validation.Invalid != 1 || validation.RunID == "" {
		t.Fatalf("unexpected validation %+v", validation)
	}
	if validation.Results[0].Filename != "slot1.sav" || validation.Results[0].Status != integrity.StatusMismatch {
		t.Fatalf("unexpected results %+v", validation.Results)
	}

	if err := os.Remove(filepath.Join(dir, "slot1_backup.sav")); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	_, rec, err := s.handleReconcile(ctx, nil, ReconcileInput{})
	if err != nil {
		t.Fatalf("handleReconcile error: %v", err)
	}
	if rec.Count != 1 || rec.Removed[0] != "slot1_backup.sav" {
		t.Fatalf("unexpected reconcile output %+v", rec)
	}

	_, stats, err := s.handleStats(ctx, nil, StatsInput{})
	if err != nil {
		t.Fatalf("handleStats error: %v", err)
	}
	if stats.TrackedFiles != 1 || stats.TotalSaveOperations != 2 || stats.TotalDiskUsageBytes != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestToolsInfoAndUnregister(t *testing.T) {
	ctx := context.Background()
	s, dir := setupServer(t)
	writeSave(t, dir, "slot.sav", "data")

	if _, _, err := s.handleRegister(ctx, nil, RegisterInput{Filenames: []string{"slot.sav"}}); err != nil {
		t.Fatalf("handleRegister error: %v", err)
	}

	_, info, err := s.handleInfo(ctx, nil, InfoInput{Filename: "slot.sav"})
	if err != nil {
		t.Fatalf("handleInfo error: %v", err)
	}
	if info.SizeBytes != 4 || info.ProducerVersion != "unknown" || info.RegistrationCount != 1 {
		t.Fatalf("unexpected info %+v", info)
	}

	_, out, err := s.handleUnregister(ctx, nil, UnregisterInput{Filename: "slot.sav"})
	if err != nil {
		t.Fatalf("handleUnregister error: %v", err)
	}
	if !out.Tracked {
		t.Fatalf("expected file to have been tracked")
	}

	if _, _, err := s.handleInfo(ctx, nil, InfoInput{Filename: "slot.sav"}); err == nil {
		t.Fatalf("expected error for untracked file")
	}

	_, again, err := s.handleUnregister(ctx, nil, UnregisterInput{Filename: "slot.sav"})
	if err != nil {
		t.Fatalf("handleUnregister error: %v", err)
	}
	if again.Tracked {
		t.Fatalf("expected second unregister to report untracked")
	}
}

func TestToolsRegisterAllFailing(t *testing.T) {
	s, _ := setupServer(t)

	if _, _, err := s.handleRegister(context.Background(), nil, RegisterInput{Filenames: []string{"nope.sav"}}); err == nil {
		t.Fatalf("expected error when nothing could be registered")
	}
}
