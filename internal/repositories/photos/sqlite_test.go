package photos

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE photos (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entry_id INTEGER NOT NULL,
  hash TEXT NOT NULL,
  uri TEXT NOT NULL,
  remote_name TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL DEFAULT 0,
  upload_status TEXT NOT NULL DEFAULT 'pending',
  UNIQUE(entry_id, hash)
);
`)
	require.NoError(t, err)

	return db
}

func TestInsertAll_DensePositions(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// Session positions may carry gaps after removals; persisted values
	// are re-densified on write.
	ps := []models.Photo{
		{Hash: "aaa", URI: "/p/a.jpg", Position: 2},
		{Hash: "bbb", URI: "/p/b.jpg", Position: 5},
	}
	require.NoError(t, r.InsertAll(ctx, 1, ps))

	got, err := r.ListByEntry(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, 1, got[1].Position)
	assert.Equal(t, "aaa", got[0].Hash)
}

func TestPendingUploadAndMarkUploaded(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ps := []models.Photo{
		{Hash: "aaa", URI: "/p/a.jpg"},
		{Hash: "bbb", URI: "/p/b.jpg"},
	}
	require.NoError(t, r.InsertAll(ctx, 1, ps))

	pending, err := r.PendingUpload(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, r.MarkUploaded(ctx, pending[0].ID, "aaa.jpg"))

	pending, err = r.PendingUpload(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bbb", pending[0].Hash)

	var remoteName, status string
	err = db.QueryRow(`SELECT remote_name, upload_status FROM photos WHERE hash = 'aaa'`).
		Scan(&remoteName, &status)
	require.NoError(t, err)
	assert.Equal(t, "aaa.jpg", remoteName)
	assert.Equal(t, StatusCompleted, status)
}

func TestMarkUploaded_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	err := r.MarkUploaded(context.Background(), 99, "x.jpg")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ps := []models.Photo{{Hash: "aaa", URI: "/p/a.jpg"}}
	require.NoError(t, r.InsertAll(ctx, 1, ps))

	require.NoError(t, r.Delete(ctx, ps[0].ID))
	err := r.Delete(ctx, ps[0].ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
