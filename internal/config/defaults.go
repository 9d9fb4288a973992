package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:        "~/.config/microplastics",
			SQLiteFile:  "microplastics.db",
			JournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
			File:   "",
		},
		Backend: BackendConfig{
			Enabled:           false,
			URL:               "http://localhost:8000",
			APIKey:            "",
			TimeoutSeconds:    10,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Display: DisplayConfig{
			Timezone:    "Local",
			RecentLimit: 5,
		},
	}
}
