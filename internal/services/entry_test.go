package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/models"
	"github.com/tastebookapp/tastebook/internal/repositories/locations"
	"github.com/tastebookapp/tastebook/internal/repositories/metadata"
	"github.com/tastebookapp/tastebook/internal/repositories/notify"
	"github.com/tastebookapp/tastebook/internal/worker"
)

func seedCategory(t *testing.T, s *SchemaService, flavorNames ...string) models.Category {
	t.Helper()
	e := s.NewCategory("", "Tea")
	for _, name := range flavorNames {
		row := e.AddFlavor()
		row.Flavor.Name = name
	}
	require.NoError(t, s.Save(context.Background(), e))
	return e.Category
}

func TestCommit_EmptyTitleBlocked(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)

	// An empty title fails validation and nothing is stored.
	id, err := svc.Commit(ctx, h)
	assert.Zero(t, id)
	assert.True(t, errors.Is(err, common.ErrValidation))

	n, err := countRows(db, "entries")
	require.NoError(t, err)
	assert.Zero(t, n)

	// The in-flight guard was released; a corrected retry succeeds.
	h.Info.Title = "Oolong"
	id, err = svc.Commit(ctx, h)
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestCommit_FillsDefaultFlavorsAtZeroIntensity(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	cat := seedCategory(t, schema, "Floral", "Roasted", "Sweet")
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong"})

	id, err := svc.Commit(ctx, h)
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Flavors, 3)
	for _, f := range got.Flavors {
		assert.Zero(t, f.Intensity)
	}
}

func TestCommit_KeepsProvidedFlavorProfile(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	cat := seedCategory(t, schema, "Floral", "Roasted")
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong"})
	h.AppendFlavors(models.FlavorValue{Name: "Floral", Intensity: 4})

	id, err := svc.Commit(ctx, h)
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Flavors, 1)
	assert.Equal(t, float64(4), got.Flavors[0].Intensity)
}

func TestCommit_SingleInFlight(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	svc := NewEntryService(db, nil, hub, testLogger())

	h := models.NewEntryHolder(models.Category{ID: 1, Name: "Tea"})
	h.SetInfo(models.EntryInfo{Title: "Oolong"})

	require.True(t, h.BeginCommit())
	_, err := svc.Commit(context.Background(), h)
	assert.True(t, errors.Is(err, common.ErrCommitInFlight))
	h.EndCommit()
}

func TestCommit_PersistsWholeAggregate(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong", Rating: 9}) // clamped on build
	h.AppendExtras(models.ExtraValue{Name: "Steep time", Value: "3 min"})
	h.Photos = []models.Photo{
		{Hash: "aaa", URI: "/p/a.jpg", Position: 3},
		{Hash: "bbb", URI: "/p/b.jpg", Position: 7},
	}

	id, err := svc.Commit(ctx, h)
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.MaxRating, got.Rating)
	require.Len(t, got.Extras, 1)
	require.Len(t, got.Photos, 2)
	assert.Equal(t, 0, got.Photos[0].Position)
	assert.Equal(t, 1, got.Photos[1].Position)
}

func TestCommit_OnlyTitleBlocksValidation(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	// Everything but the title is out of scale or malformed; none of it
	// may block the commit. The rating is clamped, the rest stored as-is.
	h.SetInfo(models.EntryInfo{
		Title:  "Oolong",
		Rating: 7.5,
		Price:  -2,
		Link:   "not a url",
	})

	id, err := svc.Commit(ctx, h)
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.MaxRating, got.Rating)
	assert.Equal(t, -2.0, got.Price)
	assert.Equal(t, "not a url", got.Link)
}

func TestCommit_PublishesChangeEvents(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	entriesCh, cancelEntries := hub.Subscribe("entries")
	defer cancelEntries()
	photosCh, cancelPhotos := hub.Subscribe("photos")
	defer cancelPhotos()

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong"})
	h.Photos = []models.Photo{{Hash: "aaa", URI: "/p/a.jpg"}}

	id, err := svc.Commit(ctx, h)
	require.NoError(t, err)

	ev := <-entriesCh
	assert.Equal(t, notify.OpInsert, ev.Op)
	assert.Equal(t, id, ev.ID)

	ev = <-photosCh
	assert.Equal(t, id, ev.ID)
}

func TestCommitAsync_ReportsEntryID(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	pool := worker.NewPool(2, testLogger())
	t.Cleanup(pool.Shutdown)
	svc := NewEntryService(db, pool, hub, testLogger())

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong"})

	handle := svc.CommitAsync(h)
	require.NoError(t, handle.Wait())
	assert.NotZero(t, handle.EntryID())
}

func TestRecordLocation_NewPlaceGetsLastKnownCoordinates(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	nearest, err := json.Marshal(nearestLocation{Name: "Home", Latitude: 52.3, Longitude: 4.9})
	require.NoError(t, err)
	require.NoError(t, metadata.NewSQLiteRepository(db).Set(ctx, metadata.KeyNearestLocation, nearest))

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong", Location: "Corner Cafe"})

	_, err = svc.Commit(ctx, h)
	require.NoError(t, err)

	loc, err := locations.NewSQLiteRepository(db).GetByName(ctx, "Corner Cafe")
	require.NoError(t, err)
	assert.Equal(t, 52.3, loc.Latitude)
	assert.Equal(t, 4.9, loc.Longitude)
}

func TestRecordLocation_SameAsNearestSkipped(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	nearest, err := json.Marshal(nearestLocation{Name: "Home"})
	require.NoError(t, err)
	require.NoError(t, metadata.NewSQLiteRepository(db).Set(ctx, metadata.KeyNearestLocation, nearest))

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong", Location: "Home"})

	_, err = svc.Commit(ctx, h)
	require.NoError(t, err)

	list, err := locations.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete_PublishesAndRemoves(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub()
	schema := NewSchemaService(db, hub, testLogger())
	svc := NewEntryService(db, nil, hub, testLogger())
	ctx := context.Background()

	cat := seedCategory(t, schema)
	h := models.NewEntryHolder(cat)
	h.SetInfo(models.EntryInfo{Title: "Oolong"})
	id, err := svc.Commit(ctx, h)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestHolderDateDefaultsToSessionTime(t *testing.T) {
	before := time.Now().UnixMilli()
	h := models.NewEntryHolder(models.Category{ID: 1})
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, h.Info.Date, before)
	assert.LessOrEqual(t, h.Info.Date, after)

	h.SetInfo(models.EntryInfo{Title: "x"})
	assert.NotZero(t, h.Info.Date, "zero date keeps session time")
}

func countRows(db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	return n, err
}
