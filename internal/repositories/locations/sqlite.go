package locations

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

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Location, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude FROM locations WHERE name = ?`, name)

	l := &models.Location{}
	err := row.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select location: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, l *models.Location) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO locations (name, latitude, longitude) VALUES (?, ?, ?)`,
		l.Name, l.Latitude, l.Longitude)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted location id: %w", err)
	}
	l.ID = id
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Location, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select locations: %w", err)
	}
	defer rows.Close()

	var result []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
