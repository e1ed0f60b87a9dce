package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/dbx"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/models"
	"github.com/tastebookapp/tastebook/internal/repositories/categories"
	"github.com/tastebookapp/tastebook/internal/repositories/entries"
	"github.com/tastebookapp/tastebook/internal/repositories/locations"
	"github.com/tastebookapp/tastebook/internal/repositories/metadata"
	"github.com/tastebookapp/tastebook/internal/repositories/notify"
	"github.com/tastebookapp/tastebook/internal/repositories/photos"
	"github.com/tastebookapp/tastebook/internal/worker"
)

// nearestLocation is the JSON shape stored under metadata.KeyNearestLocation:
// the last place fix the device has seen.
type nearestLocation struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EntryService is the aggregate builder: it validates an EntryHolder and
// commits it to the store in one pass.
type EntryService struct {
	db       *sql.DB
	validate *validator.Validate
	pool     *worker.Pool
	hub      *notify.Hub
	log      logging.Logger
}

// NewEntryService wires the aggregate builder onto the local database.
func NewEntryService(db *sql.DB, pool *worker.Pool, hub *notify.Hub, log logging.Logger) *EntryService {
	return &EntryService{
		db:       db,
		validate: validator.New(),
		pool:     pool,
		hub:      hub,
		log:      log,
	}
}

// Valid reports whether the aggregate may be committed. Only the mandatory
// title can make it false; every other field is optional.
func (s *EntryService) Valid(h *models.EntryHolder) bool {
	return s.validate.Struct(h.Info) == nil
}

// InvalidSubform returns the index of the first sub-form the UI should
// navigate back to when validation fails. The info form is always index 0
// and is the only one carrying mandatory input.
func (s *EntryService) InvalidSubform(h *models.EntryHolder) (int, bool) {
	if s.Valid(h) {
		return 0, false
	}
	return 0, true
}

// Commit validates and persists the aggregate, returning the new entry id.
// Any persistence failure is logged and surfaces as id 0 alongside the
// error; no partial entry remains addressable. Only one commit may be in
// flight per holder.
func (s *EntryService) Commit(ctx context.Context, h *models.EntryHolder) (int64, error) {
	if !h.BeginCommit() {
		return 0, common.ErrCommitInFlight
	}
	defer h.EndCommit()

	if err := s.validate.Struct(h.Info); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if len(h.Flavors) == 0 {
		if err := s.fillDefaultFlavors(ctx, h); err != nil {
			s.log.Error(ctx, "entry commit failed", "error", err)
			return 0, err
		}
	}

	entry := h.BuildEntry()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entryRepo := entries.NewSQLiteRepository(tx)
		photoRepo := photos.NewSQLiteRepository(tx)

		if err := entryRepo.Insert(ctx, &entry); err != nil {
			return err
		}
		if err := entryRepo.InsertExtras(ctx, entry.ID, entry.Extras); err != nil {
			return err
		}
		if err := entryRepo.InsertFlavors(ctx, entry.ID, entry.Flavors); err != nil {
			return err
		}
		return photoRepo.InsertAll(ctx, entry.ID, entry.Photos)
	})
	if err != nil {
		s.log.Error(ctx, "entry commit failed", "category", h.CategoryID, "error", err)
		return 0, err
	}

	// Best-effort enrichment; a failure here never fails the commit.
	s.recordLocation(ctx, h.Info.Location)

	s.hub.Publish(notify.Event{Path: "entries", Op: notify.OpInsert, ID: entry.ID})
	if len(entry.Photos) > 0 {
		s.hub.Publish(notify.Event{Path: "photos", Op: notify.OpInsert, ID: entry.ID})
	}
	return entry.ID, nil
}

// fillDefaultFlavors guarantees an entry of a category with N flavors gets
// exactly N flavor values even when the user skipped the profile form:
// every axis defaults to zero intensity.
func (s *EntryService) fillDefaultFlavors(ctx context.Context, h *models.EntryHolder) error {
	defs, err := categories.NewSQLiteRepository(s.db).ListFlavors(ctx, h.CategoryID)
	if err != nil {
		return fmt.Errorf("load category flavors: %w", err)
	}
	for _, def := range defs {
		if def.Deleted || def.Name == "" {
			continue
		}
		h.AppendFlavors(models.FlavorValue{Name: def.Name, Intensity: 0})
	}
	return nil
}

// recordLocation inserts a new named location when the free-text location
// differs from the last known nearest place, carrying the last known
// coordinates over.
func (s *EntryService) recordLocation(ctx context.Context, name string) {
	if name == "" {
		return
	}

	raw, err := metadata.NewSQLiteRepository(s.db).Get(ctx, metadata.KeyNearestLocation)
	if err != nil || raw == nil {
		return
	}
	var nearest nearestLocation
	if err := json.Unmarshal(raw, &nearest); err != nil {
		return
	}
	if nearest.Name == name {
		return
	}

	repo := locations.NewSQLiteRepository(s.db)
	if _, err := repo.GetByName(ctx, name); err == nil {
		return
	} else if !errors.Is(err, common.ErrNotFound) {
		return
	}

	loc := &models.Location{Name: name, Latitude: nearest.Latitude, Longitude: nearest.Longitude}
	if err := repo.Insert(ctx, loc); err != nil {
		s.log.Warn(ctx, "location enrichment failed", "name", name, "error", err)
	}
}

// CommitHandle observes an asynchronous commit. EntryID is valid once the
// handle is done; 0 means the commit failed.
type CommitHandle struct {
	*worker.Handle

	mu sync.Mutex
	id int64
}

// EntryID returns the committed entry's id, 0 on failure.
func (h *CommitHandle) EntryID() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// CommitAsync runs Commit on the worker pool, off the interactive path.
// The UI disables its save action as soon as this returns and re-enables
// on terminal completion; abandoning the handle stops listening without
// touching the in-progress write.
func (s *EntryService) CommitAsync(h *models.EntryHolder) *CommitHandle {
	ch := &CommitHandle{}
	ch.Handle = s.pool.Submit("entry-commit", func(ctx context.Context) error {
		id, err := s.Commit(ctx, h)
		ch.mu.Lock()
		ch.id = id
		ch.mu.Unlock()
		return err
	})
	return ch
}

// Get returns a committed entry with its photos attached.
func (s *EntryService) Get(ctx context.Context, id int64) (*models.Entry, error) {
	e, err := entries.NewSQLiteRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Photos, err = photos.NewSQLiteRepository(s.db).ListByEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByCategory returns a category's entries, newest first.
func (s *EntryService) ListByCategory(ctx context.Context, categoryID int64) ([]models.Entry, error) {
	return entries.NewSQLiteRepository(s.db).ListByCategory(ctx, categoryID)
}

// Delete removes an entry. Photo rows cascade with it; remote photo copies
// are left to the store's mark-and-sync cleanup, not deleted here.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	if err := entries.NewSQLiteRepository(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.hub.Publish(notify.Event{Path: "entries", Op: notify.OpDelete, ID: id})
	return nil
}
