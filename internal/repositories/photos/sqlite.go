package photos

import (
	"context"
	"fmt"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/dbx"
	"github.com/tastebookapp/tastebook/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) InsertAll(ctx context.Context, entryID int64, photos []models.Photo) error {
	for i := range photos {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO photos (entry_id, hash, uri, remote_name, position, upload_status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			entryID, photos[i].Hash, photos[i].URI, photos[i].RemoteName, i, StatusPending)
		if err != nil {
			return fmt.Errorf("failed to insert photo: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted photo id: %w", err)
		}
		photos[i].ID = id
		photos[i].EntryID = entryID
		photos[i].Position = i
	}
	return nil
}

func (r *SQLiteRepository) ListByEntry(ctx context.Context, entryID int64) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_id, hash, uri, remote_name, position
		FROM photos WHERE entry_id = ? ORDER BY position`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select photos: %w", err)
	}
	defer rows.Close()

	var result []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.EntryID, &p.Hash, &p.URI, &p.RemoteName, &p.Position); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) PendingUpload(ctx context.Context) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_id, hash, uri, remote_name, position
		FROM photos WHERE upload_status = ?`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending photos: %w", err)
	}
	defer rows.Close()

	var result []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.EntryID, &p.Hash, &p.URI, &p.RemoteName, &p.Position); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, id int64, remoteName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE photos SET upload_status = ?, remote_name = ? WHERE id = ?`,
		StatusCompleted, remoteName, id)
	if err != nil {
		return fmt.Errorf("failed to mark photo uploaded: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
