package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/choplin/savemeta/internal/config"
	"github.com/choplin/savemeta/internal/integrity"
	"github.com/choplin/savemeta/internal/metadata"
)

func newTestConfig(t *testing.T, journal bool) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		StoreDir: filepath.Join(root, "saves"),
		Checksum: "sha256",
		Journal: config.JournalConfig{
			Enabled: journal,
			Path:    filepath.Join(root, "journal.db"),
		},
	}
}

func openTestSession(t *testing.T, cfg *config.Config) *Session {
	t.Helper()
	s, err := OpenSession(SessionOptions{Config: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("OpenSession error: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
	})
	return s
}

func writeAndRegister(t *testing.T, s *Session, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(s.Store.Dir(), name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	if _, err := s.Store.Register(name, metadata.EntryInfo{}); err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
}

func TestSessionValidateRecordsRun(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t, newTestConfig(t, true))
	if !s.JournalEnabled() {
		t.Fatalf("expected journal to be enabled")
	}

	writeAndRegister(t, s, "good.sav", "good")
	writeAndRegister(t, s, "bad.sav", "bad")
	if err := os.WriteFile(filepath.Join(s.Store.Dir(), "bad.sav"), []byte("worse"), 0o600); err != nil {
		t.Fatalf("overwriting bad.sav: %v", err)
	}

	outcome := s.Validate(ctx, nil)
	if outcome.Report.Total != 2 || outcome.Report.Invalid != 1 {
		t.Fatalf("unexpected report %+v", outcome.Report)
	}
	if outcome.RunID == "" {
		t.Fatalf("expected the run to be journaled")
	}

	detail, err := s.Run(ctx, outcome.RunID)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(detail.Findings) != 1 || detail.Findings[0].Filename != "bad.sav" || detail.Findings[0].Status != string(integrity.StatusMismatch) {
		t.Fatalf("unexpected findings %#v", detail.Findings)
	}

	single := s.Validate(ctx, []string{"good.sav"})
	if !single.Report.OK() || single.Report.Total != 1 {
		t.Fatalf("unexpected single-file report %+v", single.Report)
	}
}

func TestSessionReconcileRecordsRun(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t, newTestConfig(t, true))

	writeAndRegister(t, s, "keep.sav", "keep")
	writeAndRegister(t, s, "gone.sav", "gone")
	if err := os.Remove(filepath.Join(s.Store.Dir(), "gone.sav")); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	outcome, err := s.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(outcome.Removed) != 1 || outcome.Removed[0] != "gone.sav" || outcome.RunID == "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	again, err := s.Reconcile(ctx)
	if err != nil {
		t.Fatalf("second Reconcile error: %v", err)
	}
	if len(again.Removed) != 0 {
		t.Fatalf("expected idempotent reconcile, removed %v", again.Removed)
	}

	runs, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 journaled runs, got %d", len(runs))
	}
}

func TestSessionWithoutJournal(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t, true)
	s, err := OpenSession(SessionOptions{Config: cfg, NoJournal: true})
	if err != nil {
		t.Fatalf("OpenSession error: %v", err)
	}
	defer func() { _ = s.Close() }()

	if s.JournalEnabled() {
		t.Fatalf("expected journal to be disabled")
	}
	if outcome := s.Validate(ctx, nil); outcome.RunID != "" {
		t.Fatalf("expected no run id without a journal")
	}
	if _, err := s.History(ctx, 5); !errors.Is(err, ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
	if _, err := os.Stat(cfg.Journal.Path); !os.IsNotExist(err) {
		t.Fatalf("journal file should not be created, stat err: %v", err)
	}
}

func TestSessionUnavailableJournalIsNotFatal(t *testing.T) {
	cfg := newTestConfig(t, true)
	// A directory where the journal file should be makes the database unopenable.
	if err := os.MkdirAll(cfg.Journal.Path, 0o755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}

	s := openTestSession(t, cfg)
	if s.JournalEnabled() {
		t.Fatalf("expected journal to be skipped")
	}
	if outcome := s.Validate(context.Background(), nil); outcome.Report.Total != 0 {
		t.Fatalf("unexpected report %+v", outcome.Report)
	}
}

func TestSessionStoreDirOverride(t *testing.T) {
	cfg := newTestConfig(t, false)
	override := filepath.Join(t.TempDir(), "elsewhere")

	s, err := OpenSession(SessionOptions{Config: cfg, StoreDir: override})
	if err != nil {
		t.Fatalf("OpenSession error: %v", err)
	}
	defer func() { _ = s.Close() }()

	if s.Store.Dir() != override {
		t.Fatalf("expected store dir %q, got %q", override, s.Store.Dir())
	}
	if _, err := os.Stat(filepath.Join(override, "metadata.json")); err != nil {
		t.Fatalf("expected record to be bootstrapped in override dir: %v", err)
	}
}
