// Package config resolves savemeta's data directory and loads its optional YAML
// configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/choplin/savemeta/internal/checksum"
)

const appName = "savemeta"

// GetDataDir resolves the base directory for savemeta's own state. It checks
// SAVEMETA_DIR first, then XDG paths, and finally falls back to the user's
// home directory.
func GetDataDir() string {
	if explicit := os.Getenv("SAVEMETA_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetStoreDir returns the default directory holding the tracked files and
// their metadata.json.
func GetStoreDir() string {
	return filepath.Join(GetDataDir(), "saves")
}

// GetJournalPath returns the default path of the SQLite audit journal.
func GetJournalPath() string {
	return filepath.Join(GetDataDir(), "journal.db")
}

// GetConfigPath returns the configuration file location: SAVEMETA_CONFIG if
// set, otherwise config.yaml under the XDG config home.
func GetConfigPath() string {
	if explicit := os.Getenv("SAVEMETA_CONFIG"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	configHome := xdg.ConfigHome
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), appName, "config.yaml")
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.yaml")
}

// Config is the on-disk configuration. Every field is optional.
type Config struct {
	// StoreDir is the directory whose files are tracked.
	StoreDir string `yaml:"store_dir"`

	// Checksum names the digest for new registrations (sha256 or blake3).
	Checksum string `yaml:"checksum"`

	Log     LogConfig     `yaml:"log"`
	Journal JournalConfig `yaml:"journal"`
}

// LogConfig configures diagnostic output.
type LogConfig struct {
	// Level is a zerolog level name. Default: warn
	Level string `yaml:"level"`

	// Format is console or json. Default: console
	Format string `yaml:"format"`
}

// JournalConfig configures the audit journal of integrity runs.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		StoreDir: GetStoreDir(),
		Checksum: string(checksum.Default),
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    GetJournalPath(),
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Keys lists the dotted keys accepted by Set, in display order.
var Keys = []string{"store_dir", "checksum", "log.level", "log.format", "journal.enabled", "journal.path"}

// Get returns the string form of a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "store_dir":
		return c.StoreDir, nil
	case "checksum":
		return c.Checksum, nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "journal.enabled":
		return strconv.FormatBool(c.Journal.Enabled), nil
	case "journal.path":
		return c.Journal.Path, nil
	default:
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}
}

// Set assigns a dotted key from its string form and revalidates.
func (c *Config) Set(key, value string) error {
	switch key {
	case "store_dir":
		c.StoreDir = value
	case "checksum":
		c.Checksum = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "journal.enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("journal.enabled must be true or false: %w", err)
		}
		c.Journal.Enabled = enabled
	case "journal.path":
		c.Journal.Path = value
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys, ", "))
	}
	c.expandPaths()
	return c.Validate()
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.StoreDir) == "" {
		errs = append(errs, errors.New("store_dir is required"))
	}
	if _, err := checksum.ParseAlgorithm(c.Checksum); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("invalid log.level: %s", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log.format: %s (valid values: console, json)", c.Log.Format))
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		errs = append(errs, errors.New("journal.path is required when the journal is enabled"))
	}

	return errors.Join(errs...)
}

func (c *Config) expandPaths() {
	c.StoreDir = ExpandPath(c.StoreDir)
	c.Journal.Path = ExpandPath(c.Journal.Path)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ExpandPath expands a leading ~ and ${VAR} or ${VAR:-default} references.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	return varPattern.ReplaceAllStringFunc(path, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
