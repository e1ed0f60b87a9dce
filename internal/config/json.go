package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tastebookapp/tastebook/internal/flagx"
	"github.com/tastebookapp/tastebook/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "15m" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	DBPath         string         `json:"db_path"`
	BackendURL     string         `json:"backend_url"`
	SyncInterval   timex.Duration `json:"sync_interval"`
	WorkerPoolSize int            `json:"worker_pool_size"`
	LogLevel       string         `json:"log_level"`

	MirrorEndpoint  string `json:"mirror_endpoint"`
	MirrorRegion    string `json:"mirror_region"`
	MirrorAccessKey string `json:"mirror_access_key"`
	MirrorSecretKey string `json:"mirror_secret_key"`
	MirrorBucket    string `json:"mirror_bucket"`
	MirrorFolder    string `json:"mirror_folder"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known non-zero fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.BackendURL != "" {
		cfg.BackendURL = jc.BackendURL
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.WorkerPoolSize != 0 {
		cfg.WorkerPoolSize = jc.WorkerPoolSize
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}

	cfg.MirrorEndpoint = jc.MirrorEndpoint
	if jc.MirrorRegion != "" {
		cfg.MirrorRegion = jc.MirrorRegion
	}
	cfg.MirrorAccessKey = jc.MirrorAccessKey
	cfg.MirrorSecretKey = jc.MirrorSecretKey
	cfg.MirrorBucket = jc.MirrorBucket
	if jc.MirrorFolder != "" {
		cfg.MirrorFolder = jc.MirrorFolder
	}
}
