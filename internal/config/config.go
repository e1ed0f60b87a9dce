package config

import "time"

// Config holds runtime settings for the tastebook CLI.
//
// Fields:
//   - DBPath: path to the local sqlite database file.
//   - BackendURL: base URL of the journal backend's JSON API.
//   - SyncInterval: how often the sync channels run without an explicit
//     trigger.
//   - WorkerPoolSize: number of concurrent background jobs.
//   - LogLevel: slog level name (debug, info, warn, error).
//   - Mirror*: object store settings for the cloud photo mirror. An empty
//     MirrorBucket disables mirroring.
type Config struct {
	DBPath         string
	BackendURL     string
	SyncInterval   time.Duration
	WorkerPoolSize int
	LogLevel       string

	MirrorEndpoint  string
	MirrorRegion    string
	MirrorAccessKey string
	MirrorSecretKey string
	MirrorBucket    string
	MirrorFolder    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "tastebook.db"
	c.BackendURL = "http://127.0.0.1:8080"
	c.SyncInterval = 15 * time.Minute
	c.WorkerPoolSize = 4
	c.LogLevel = "info"
	c.MirrorRegion = "us-east-1"
	c.MirrorFolder = "photos"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
