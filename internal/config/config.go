package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/microplastics/config.yaml"

// Environment variables that override file values.
const (
	EnvBackendURL = "MICROPLASTICS_BACKEND_URL"
	EnvAPIKey     = "MICROPLASTICS_API_KEY"
	EnvLogLevel   = "MICROPLASTICS_LOG_LEVEL"
	EnvDBPath     = "MICROPLASTICS_DB"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Backend BackendConfig `yaml:"backend"`
	Display DisplayConfig `yaml:"display"`
}

type StorageConfig struct {
	Path        string `yaml:"path"`
	SQLiteFile  string `yaml:"sqlite_file"`
	JournalMode string `yaml:"journal_mode"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
	Output string `yaml:"output"` // "stderr" or "file"
	File   string `yaml:"file"`
}

type BackendConfig struct {
	Enabled           bool    `yaml:"enabled"`
	URL               string  `yaml:"url"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type DisplayConfig struct {
	Timezone    string `yaml:"timezone"` // IANA name or "Local"
	RecentLimit int    `yaml:"recent_limit"`
}

// Timeout returns the backend request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Location resolves the configured timezone used for weekday bucketing.
func (d DisplayConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}

// DBPath returns the expanded path of the SQLite database file.
func (c *Config) DBPath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(c.Storage.SQLiteFile) {
		return c.Storage.SQLiteFile, nil
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	if _, err := c.Display.Location(); err != nil {
		return fmt.Errorf("display.timezone %q: %w", c.Display.Timezone, err)
	}
	if c.Display.RecentLimit < 0 {
		return fmt.Errorf("display.recent_limit must not be negative")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be positive")
	}
	if c.Backend.Enabled && c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required when the backend is enabled")
	}
	return nil
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// envBindings maps viper keys to the variables that override them.
var envBindings = map[string]string{
	"backend.url":     EnvBackendURL,
	"backend.api_key": EnvAPIKey,
	"logging.level":   EnvLogLevel,
	"storage.db":      EnvDBPath,
}

// ApplyEnv loads a .env file from the working directory when present and
// lets the MICROPLASTICS_* variables override file values. Empty variables
// count as unset.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("microplastics")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if url := v.GetString("backend.url"); url != "" {
		cfg.Backend.URL = url
		cfg.Backend.Enabled = true
	}
	if key := v.GetString("backend.api_key"); key != "" {
		cfg.Backend.APIKey = key
	}
	if level := v.GetString("logging.level"); level != "" {
		cfg.Logging.Level = level
	}
	if db := v.GetString("storage.db"); db != "" {
		cfg.Storage.Path = filepath.Dir(db)
		cfg.Storage.SQLiteFile = filepath.Base(db)
	}
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
