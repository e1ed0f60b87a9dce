package categories

import (
	"context"

	"github.com/tastebookapp/tastebook/internal/models"
)

// Repository describes storage operations for categories and their schema
// children (extra fields and flavors). Implementations are backed by the
// local SQLite database.
type Repository interface {
	// GetByID returns a category by id, or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Category, error)

	// List returns all categories ordered by id ascending.
	List(ctx context.Context) ([]models.Category, error)

	// Insert stores a new category and sets its ID.
	Insert(ctx context.Context, c *models.Category) error

	// UpdateName changes the display name of an existing category.
	UpdateName(ctx context.Context, id int64, name string) error

	// Delete removes a category row. Children are removed by cascade.
	Delete(ctx context.Context, id int64) error

	// ListExtraFields returns the category's extra fields ordered by id
	// ascending (insertion order).
	ListExtraFields(ctx context.Context, categoryID int64) ([]models.ExtraField, error)

	// InsertExtraField stores a new field and sets its ID.
	InsertExtraField(ctx context.Context, f *models.ExtraField) error

	// UpdateExtraField updates the field's name and clears any persisted
	// deleted flag.
	UpdateExtraField(ctx context.Context, f *models.ExtraField) error

	// DeleteExtraField removes a field row.
	DeleteExtraField(ctx context.Context, id int64) error

	// ListFlavors returns the category's flavors ordered by id ascending.
	ListFlavors(ctx context.Context, categoryID int64) ([]models.Flavor, error)

	// InsertFlavor stores a new flavor and sets its ID.
	InsertFlavor(ctx context.Context, f *models.Flavor) error

	// UpdateFlavor updates the flavor's name and position and clears any
	// persisted deleted flag.
	UpdateFlavor(ctx context.Context, f *models.Flavor) error

	// DeleteFlavor removes a flavor row.
	DeleteFlavor(ctx context.Context, id int64) error
}
