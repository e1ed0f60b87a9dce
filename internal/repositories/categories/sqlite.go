package categories

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

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, preset_key FROM categories WHERE id = ?`, id)

	c := &models.Category{}
	err := row.Scan(&c.ID, &c.Name, &c.PresetKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, preset_key FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.PresetKey); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, preset_key) VALUES (?, ?)`, c.Name, c.PresetKey)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted category id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteRepository) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
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

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
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

func (r *SQLiteRepository) ListExtraFields(ctx context.Context, categoryID int64) ([]models.ExtraField, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, name, preset, deleted FROM extra_fields WHERE category_id = ? ORDER BY id`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select extra fields: %w", err)
	}
	defer rows.Close()

	var result []models.ExtraField
	for rows.Next() {
		var f models.ExtraField
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.Name, &f.Preset, &f.Deleted); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) InsertExtraField(ctx context.Context, f *models.ExtraField) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO extra_fields (category_id, name, preset, deleted) VALUES (?, ?, ?, 0)`,
		f.CategoryID, f.Name, f.Preset)
	if err != nil {
		return fmt.Errorf("failed to insert extra field: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted field id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *SQLiteRepository) UpdateExtraField(ctx context.Context, f *models.ExtraField) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE extra_fields SET name = ?, deleted = 0 WHERE id = ?`, f.Name, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update extra field: %w", err)
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

func (r *SQLiteRepository) DeleteExtraField(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM extra_fields WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete extra field: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListFlavors(ctx context.Context, categoryID int64) ([]models.Flavor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, name, position, deleted FROM flavors WHERE category_id = ? ORDER BY id`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select flavors: %w", err)
	}
	defer rows.Close()

	var result []models.Flavor
	for rows.Next() {
		var f models.Flavor
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.Name, &f.Position, &f.Deleted); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) InsertFlavor(ctx context.Context, f *models.Flavor) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO flavors (category_id, name, position, deleted) VALUES (?, ?, ?, 0)`,
		f.CategoryID, f.Name, f.Position)
	if err != nil {
		return fmt.Errorf("failed to insert flavor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted flavor id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *SQLiteRepository) UpdateFlavor(ctx context.Context, f *models.Flavor) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE flavors SET name = ?, position = ?, deleted = 0 WHERE id = ?`,
		f.Name, f.Position, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update flavor: %w", err)
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

func (r *SQLiteRepository) DeleteFlavor(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM flavors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flavor: %w", err)
	}
	return nil
}
