package entries

import (
	"context"
	"database/sql"
	"errors"
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

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (category_id, title, maker, origin, location, price, date, rating, notes, shared, link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CategoryID, e.Title, e.Maker, e.Origin, e.Location, e.Price, e.Date, e.Rating, e.Notes, e.Shared, e.Link)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted entry id: %w", err)
	}
	e.ID = id
	return nil
}

func (r *SQLiteRepository) InsertExtras(ctx context.Context, entryID int64, extras []models.ExtraValue) error {
	for i := range extras {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO entry_extras (entry_id, field_id, name, value) VALUES (?, ?, ?, ?)`,
			entryID, extras[i].FieldID, extras[i].Name, extras[i].Value)
		if err != nil {
			return fmt.Errorf("failed to insert entry extra: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted extra id: %w", err)
		}
		extras[i].ID = id
		extras[i].EntryID = entryID
	}
	return nil
}

func (r *SQLiteRepository) InsertFlavors(ctx context.Context, entryID int64, flavors []models.FlavorValue) error {
	for i := range flavors {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO entry_flavors (entry_id, name, intensity) VALUES (?, ?, ?)`,
			entryID, flavors[i].Name, flavors[i].Intensity)
		if err != nil {
			return fmt.Errorf("failed to insert entry flavor: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted flavor id: %w", err)
		}
		flavors[i].ID = id
		flavors[i].EntryID = entryID
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, category_id, title, maker, origin, location, price, date, rating, notes, shared, link
		FROM entries WHERE id = ?`, id)

	e := &models.Entry{}
	err := row.Scan(&e.ID, &e.CategoryID, &e.Title, &e.Maker, &e.Origin, &e.Location,
		&e.Price, &e.Date, &e.Rating, &e.Notes, &e.Shared, &e.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}

	if e.Extras, err = r.listExtras(ctx, id); err != nil {
		return nil, err
	}
	if e.Flavors, err = r.listFlavors(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *SQLiteRepository) listExtras(ctx context.Context, entryID int64) ([]models.ExtraValue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, field_id, name, value FROM entry_extras WHERE entry_id = ? ORDER BY id`,
		entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry extras: %w", err)
	}
	defer rows.Close()

	var result []models.ExtraValue
	for rows.Next() {
		var v models.ExtraValue
		if err := rows.Scan(&v.ID, &v.EntryID, &v.FieldID, &v.Name, &v.Value); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) listFlavors(ctx context.Context, entryID int64) ([]models.FlavorValue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, name, intensity FROM entry_flavors WHERE entry_id = ? ORDER BY id`,
		entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry flavors: %w", err)
	}
	defer rows.Close()

	var result []models.FlavorValue
	for rows.Next() {
		var v models.FlavorValue
		if err := rows.Scan(&v.ID, &v.EntryID, &v.Name, &v.Intensity); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ListByCategory(ctx context.Context, categoryID int64) ([]models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, title, maker, origin, location, price, date, rating, notes, shared, link
		FROM entries WHERE category_id = ? ORDER BY date DESC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Title, &e.Maker, &e.Origin, &e.Location,
			&e.Price, &e.Date, &e.Rating, &e.Notes, &e.Shared, &e.Link); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
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

func (r *SQLiteRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}
