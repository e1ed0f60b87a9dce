// Package app wires the journal core together: database, backend client,
// photo mirror, services and the sync orchestrator.
package app

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/tastebookapp/tastebook/internal/backend"
	"github.com/tastebookapp/tastebook/internal/config"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/mirror"
	"github.com/tastebookapp/tastebook/internal/repositories/metadata"
	"github.com/tastebookapp/tastebook/internal/repositories/notify"
	"github.com/tastebookapp/tastebook/internal/repositories/photos"
	"github.com/tastebookapp/tastebook/internal/services"
	"github.com/tastebookapp/tastebook/internal/worker"

	_ "modernc.org/sqlite"
)

// App aggregates the running core. The CLI talks to the exported services
// only.
type App struct {
	Config  *config.Config
	Log     logging.Logger
	DB      *sql.DB
	Pool    *worker.Pool
	Hub     *notify.Hub
	Backend backend.Client

	Schema   *services.SchemaService
	Entries  *services.EntryService
	Photos   *services.PhotoManager
	Identity *services.IdentityService
	Sync     *services.SyncOrchestrator
}

// New builds the core from configuration. The photo mirror is optional: an
// empty MirrorBucket leaves the photo channel permanently disabled.
func New(ctx context.Context, cfg *config.Config, providers []services.Provider) (*App, error) {
	log := logging.NewDefault(parseLevel(cfg.LogLevel))

	db, err := InitDatabase(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	hub := notify.NewHub()
	pool := worker.NewPool(cfg.WorkerPoolSize, log)
	be := backend.NewHTTPClient(cfg.BackendURL)

	// Restore the persisted credential, if any, so authenticated calls work
	// right after restart.
	if raw, err := metadata.NewSQLiteRepository(db).Get(ctx, metadata.KeySessionToken); err == nil && raw != nil {
		be.SetToken(string(raw))
	}

	var uploader services.Uploader
	if cfg.MirrorBucket != "" {
		m, err := mirror.New(ctx, mirror.Config{
			Endpoint:  cfg.MirrorEndpoint,
			Region:    cfg.MirrorRegion,
			AccessKey: cfg.MirrorAccessKey,
			SecretKey: cfg.MirrorSecretKey,
			Bucket:    cfg.MirrorBucket,
			Folder:    cfg.MirrorFolder,
		}, photos.NewSQLiteRepository(db), log)
		if err != nil {
			db.Close()
			return nil, err
		}
		uploader = m
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Pool:     pool,
		Hub:      hub,
		Backend:  be,
		Schema:   services.NewSchemaService(db, hub, log),
		Entries:  services.NewEntryService(db, pool, hub, log),
		Photos:   services.NewPhotoManager(log),
		Identity: services.NewIdentityService(db, be, providers, log),
		Sync:     services.NewSyncOrchestrator(db, be, uploader, hub, nil, cfg.SyncInterval, log),
	}
	return a, nil
}

// Start brings the sync channels back up from their persisted settings.
func (a *App) Start(ctx context.Context) error {
	return a.Sync.Start(ctx)
}

// Close shuts the core down in dependency order.
func (a *App) Close() {
	a.Sync.Stop()
	a.Pool.Shutdown()
	if err := a.Backend.Close(); err != nil {
		a.Log.Warn(context.Background(), "backend close failed", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn(context.Background(), "database close failed", "error", err)
	}
}

func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
