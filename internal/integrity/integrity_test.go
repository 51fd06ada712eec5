package integrity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/choplin/savemeta/internal/checksum"
	"github.com/choplin/savemeta/internal/metadata"
)

func setupService(t *testing.T) (*Service, *metadata.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := metadata.Open(dir)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return New(store), store, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func register(t *testing.T, store *metadata.Store, dir, name, content string) {
	t.Helper()
	writeFile(t, dir, name, content)
	if _, err := store.Register(name, metadata.EntryInfo{}); err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
}

func TestValidateOneDetectsMismatch(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "save1.json", "AAAA")

	result := svc.ValidateOne("save1.json")
	if !result.Valid() {
		t.Fatalf("expected valid, got %#v", result)
	}
	d1 := checksum.Digest([]byte("AAAA"))
	if result.StoredChecksum != d1 || result.CurrentChecksum != d1 {
		t.Fatalf("unexpected checksums %#v", result)
	}

	writeFile(t, dir, "save1.json", "BBBB")

	result = svc.ValidateOne("save1.json")
	if result.Status != StatusMismatch {
		t.Fatalf("expected mismatch, got %s", result.Status)
	}
	if result.StoredChecksum != d1 {
		t.Fatalf("stored checksum = %s, want %s", result.StoredChecksum, d1)
	}
	if result.CurrentChecksum != checksum.Digest([]byte("BBBB")) || result.CurrentChecksum == d1 {
		t.Fatalf("unexpected current checksum %s", result.CurrentChecksum)
	}
}

func TestValidateOneVerdicts(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "gone.sav", "data")
	if err := os.Remove(filepath.Join(dir, "gone.sav")); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	writeFile(t, dir, "stray.sav", "data")

	tests := []struct {
		name string
		want Status
	}{
		{"gone.sav", StatusMissing},
		{"stray.sav", StatusUntracked},
		{"never.sav", StatusUntracked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.ValidateOne(tt.name)
			if result.Status != tt.want {
				t.Fatalf("status = %s, want %s", result.Status, tt.want)
			}
			if result.Valid() {
				t.Fatalf("expected invalid verdict")
			}
		})
	}
}

func TestValidateOneUnreadable(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "slot.sav", "data")

	// A directory in place of the file exists but cannot be read as one.
	path := filepath.Join(dir, "slot.sav")
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("Mkdir error: %v", err)
	}

	result := svc.ValidateOne("slot.sav")
	if result.Status != StatusUnreadable {
		t.Fatalf("status = %s, want %s", result.Status, StatusUnreadable)
	}
	if result.Detail == "" {
		t.Fatalf("expected a diagnostic detail")
	}
}

func TestValidateAllReportsEverything(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "c.sav", "ccc")
	register(t, store, dir, "a.sav", "aaa")
	register(t, store, dir, "b.sav", "bbb")
	register(t, store, dir, "d.sav", "ddd")

	writeFile(t, dir, "a.sav", "tampered")
	if err := os.Remove(filepath.Join(dir, "b.sav")); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	report := svc.ValidateAll()
	if report.Total != 4 || report.Valid != 2 || report.Invalid != 2 || report.Missing != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.CheckedAt.IsZero() {
		t.Fatalf("expected CheckedAt to be set")
	}

	wantOrder := []string{"a.sav", "b.sav", "c.sav", "d.sav"}
	wantStatus := []Status{StatusMismatch, StatusMissing, StatusValid, StatusValid}
	for i, result := range report.Results {
		if result.Filename != wantOrder[i] || result.Status != wantStatus[i] {
			t.Fatalf("result %d = %s/%s, want %s/%s", i, result.Filename, result.Status, wantOrder[i], wantStatus[i])
		}
	}
}

func TestValidateAllEmpty(t *testing.T) {
	svc, _, _ := setupService(t)

	report := svc.ValidateAll()
	if report.Total != 0 || report.Invalid != 0 || report.Results == nil {
		t.Fatalf("unexpected report for empty store %+v", report)
	}
}

func TestReconcileRemovesOrphansOnce(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "save1.json", "AAAA")
	register(t, store, dir, "save2.json", "BBBB")

	if err := os.Remove(filepath.Join(dir, "save1.json")); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	removed, err := svc.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := store.Entry("save1.json"); ok {
		t.Fatalf("expected save1.json to be forgotten")
	}
	if _, ok := store.Entry("save2.json"); !ok {
		t.Fatalf("expected save2.json to remain tracked")
	}

	removed, err = svc.Reconcile()
	if err != nil {
		t.Fatalf("second Reconcile error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second reconcile removed %d, want 0", removed)
	}

	stats := store.Statistics()
	if stats.TotalDiskUsageBytes != 4 || stats.AverageEntrySizeBytes != 4 {
		t.Fatalf("statistics not recomputed after reconcile: %+v", stats)
	}
}

func TestReconcileNeverAdopts(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "tracked.sav", "data")
	writeFile(t, dir, "stray.sav", "data")

	names, err := svc.ReconcileDetailed()
	if err != nil {
		t.Fatalf("ReconcileDetailed error: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected nothing removed, got %v", names)
	}
	if got := store.Metadata().Filenames(); len(got) != 1 || got[0] != "tracked.sav" {
		t.Fatalf("reconcile changed tracked set: %v", got)
	}
}

func TestReconcileKeepsSymlinkedFiles(t *testing.T) {
	svc, store, dir := setupService(t)
	target := filepath.Join(t.TempDir(), "real.json")
	if err := os.WriteFile(target, []byte("AAAA"), 0o600); err != nil {
		t.Fatalf("writing target: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "save1.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := store.Register("save1.json", metadata.EntryInfo{}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if result := svc.ValidateOne("save1.json"); !result.Valid() {
		t.Fatalf("expected symlinked file to validate, got %#v", result)
	}

	removed, err := svc.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("reconcile pruned a present symlinked file")
	}
	if _, ok := store.Entry("save1.json"); !ok {
		t.Fatalf("expected save1.json to remain tracked")
	}
}

func TestReconcileDetailedNames(t *testing.T) {
	svc, store, dir := setupService(t)
	for _, name := range []string{"b.sav", "a.sav", "c.sav"} {
		register(t, store, dir, name, name)
	}
	for _, name := range []string{"c.sav", "a.sav"} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			t.Fatalf("Remove error: %v", err)
		}
	}

	names, err := svc.ReconcileDetailed()
	if err != nil {
		t.Fatalf("ReconcileDetailed error: %v", err)
	}
	if len(names) != 2 || names[0] != "a.sav" || names[1] != "c.sav" {
		t.Fatalf("unexpected removed names %v", names)
	}
}

func TestComputeStatistics(t *testing.T) {
	svc, store, dir := setupService(t)

	stats := svc.ComputeStatistics()
	if stats.TotalDiskUsageBytes != 0 || stats.AverageEntrySizeBytes != 0 {
		t.Fatalf("expected zero statistics for empty store, got %+v", stats)
	}

	register(t, store, dir, "a.sav", "12")
	register(t, store, dir, "b.sav", "12345")

	stats = svc.ComputeStatistics()
	if stats.TotalDiskUsageBytes != 7 || stats.AverageEntrySizeBytes != 3.5 {
		t.Fatalf("unexpected statistics %+v", stats)
	}
	if stats.TotalSaveOperations != 2 {
		t.Fatalf("expected counters to be carried, got %+v", stats)
	}
	stored := store.Statistics()
	if stored.TotalDiskUsageBytes != stats.TotalDiskUsageBytes || stored.AverageEntrySizeBytes != stats.AverageEntrySizeBytes {
		t.Fatalf("recomputed statistics differ from stored ones")
	}
}

func TestValidateFiles(t *testing.T) {
	svc, store, dir := setupService(t)
	register(t, store, dir, "a.sav", "aaa")
	register(t, store, dir, "b.sav", "bbb")

	report := svc.ValidateFiles([]string{"b.sav", "ghost.sav"})
	if report.Total != 2 || report.Valid != 1 || report.Invalid != 1 || report.Missing != 0 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.OK() {
		t.Fatalf("expected report with an untracked file to be not OK")
	}
	if report.Results[0].Filename != "b.sav" || report.Results[1].Status != StatusUntracked {
		t.Fatalf("unexpected results %+v", report.Results)
	}

	if !svc.ValidateFiles([]string{"a.sav"}).OK() {
		t.Fatalf("expected unmodified file to validate")
	}
}
