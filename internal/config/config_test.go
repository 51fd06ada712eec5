package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetDataDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv("SAVEMETA_DIR", customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetDataDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetDataDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv("SAVEMETA_DIR", "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetDataDir()
	want := filepath.Join(xdgDir, "savemeta")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetStoreAndJournalPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SAVEMETA_DIR", tmpDir)

	if got, want := GetStoreDir(), filepath.Join(tmpDir, "saves"); got != want {
		t.Fatalf("GetStoreDir expected %q, got %q", want, got)
	}

	if got, want := GetJournalPath(), filepath.Join(tmpDir, "journal.db"); got != want {
		t.Fatalf("GetJournalPath expected %q, got %q", want, got)
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("SAVEMETA_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	if got, want := GetConfigPath(), filepath.Join(tmpDir, "savemeta", "config.yaml"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	explicit := filepath.Join(tmpDir, "other.yaml")
	t.Setenv("SAVEMETA_CONFIG", explicit)
	if got := GetConfigPath(); got != explicit {
		t.Fatalf("expected %q, got %q", explicit, got)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("SAVEMETA_DIR", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Checksum != "sha256" || !cfg.Journal.Enabled || cfg.Log.Level != "warn" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StoreDir != GetStoreDir() {
		t.Fatalf("expected default store dir %q, got %q", GetStoreDir(), cfg.StoreDir)
	}
}

func TestLoadOverridesAndExpands(t *testing.T) {
	t.Setenv("SAVEMETA_DIR", t.TempDir())
	t.Setenv("GAME_ROOT", "/games/rpg")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `store_dir: ${GAME_ROOT}/saves
checksum: blake3
log:
  level: debug
journal:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreDir != "/games/rpg/saves" {
		t.Fatalf("store_dir not expanded: %q", cfg.StoreDir)
	}
	if cfg.Checksum != "blake3" || cfg.Log.Level != "debug" || cfg.Journal.Enabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Log.Format != "console" {
		t.Fatalf("unset field lost its default: %q", cfg.Log.Format)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "checksum: md5\nlog:\n  format: xml\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "md5") || !strings.Contains(msg, "log.format") {
		t.Fatalf("expected every problem to be reported, got %q", msg)
	}
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	t.Setenv("SAVEMETA_DIR", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	if err := cfg.Set("checksum", "blake3"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := cfg.Set("journal.enabled", "false"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := cfg.Set("journal.enabled", "maybe"); err == nil {
		t.Fatalf("expected error for non-boolean value")
	}
	if err := cfg.Set("colour", "blue"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	for _, key := range Keys {
		want, _ := cfg.Get(key)
		got, err := loaded.Get(key)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", key, err)
		}
		if got != want {
			t.Fatalf("%s: expected %q, got %q", key, want, got)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	t.Setenv("SAVE_SLOT", "slot1")
	t.Setenv("UNSET_VAR", "")

	tests := map[string]string{
		"~/saves":                    filepath.Join(home, "saves"),
		"/data/${SAVE_SLOT}":         "/data/slot1",
		"/data/${UNSET_VAR:-backup}": "/data/backup",
		"/plain/path":                "/plain/path",
	}
	for input, want := range tests {
		if got := ExpandPath(input); got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", input, got, want)
		}
	}
}
