package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:           BackendSQLite,
			Path:              "~/.config/chronicle-banner",
			SQLiteFile:        "visits.db",
			SQLiteJournalMode: "wal",
			JSONFile:          "visits.json",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				DB:   0,
			},
		},
		Endpoint: EndpointConfig{
			BaseURL:        "",
			TimeoutSeconds: 0,
			UserAgent:      "chronicle-banner",
		},
		Banner: BannerConfig{
			ClassName: "chronicle-notification-banner",
			Containers: []string{
				".table-wrapper",
				`div[role="main"]`,
				"#main-content",
			},
		},
		Tracking: TrackingConfig{
			ExcludeTables: DefaultExcludedTables(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
