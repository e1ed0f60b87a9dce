package services

import (
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tastebookapp/tastebook/internal/logging"

	_ "modernc.org/sqlite"
)

func testLogger() logging.Logger {
	return logging.NewDefault(slog.LevelError)
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL DEFAULT '',
  preset_key TEXT NOT NULL DEFAULT ''
);
CREATE TABLE extra_fields (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  preset INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE flavors (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  maker TEXT NOT NULL DEFAULT '',
  origin TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  price REAL NOT NULL DEFAULT 0,
  date INTEGER NOT NULL DEFAULT 0,
  rating REAL NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  shared INTEGER NOT NULL DEFAULT 0,
  link TEXT NOT NULL DEFAULT ''
);
CREATE TABLE entry_extras (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entry_id INTEGER NOT NULL,
  field_id INTEGER NOT NULL DEFAULT 0,
  name TEXT NOT NULL DEFAULT '',
  value TEXT NOT NULL DEFAULT ''
);
CREATE TABLE entry_flavors (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entry_id INTEGER NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  intensity REAL NOT NULL DEFAULT 0
);
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
CREATE TABLE locations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  latitude REAL NOT NULL DEFAULT 0,
  longitude REAL NOT NULL DEFAULT 0
);
CREATE TABLE metadata (
  key TEXT PRIMARY KEY,
  value BLOB
);
`)
	require.NoError(t, err)

	return db
}
