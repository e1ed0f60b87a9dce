package entries

import (
	"context"

	"github.com/tastebookapp/tastebook/internal/models"
)

// Repository describes storage operations for entries and their extra and
// flavor values.
type Repository interface {
	// Insert stores the entry row only and sets its ID. Extras, flavors
	// and photos are written separately, after the parent exists.
	Insert(ctx context.Context, e *models.Entry) error

	// InsertExtras bulk-creates per-entry extra values for entryID.
	InsertExtras(ctx context.Context, entryID int64, extras []models.ExtraValue) error

	// InsertFlavors bulk-creates per-entry flavor values for entryID.
	InsertFlavors(ctx context.Context, entryID int64, flavors []models.FlavorValue) error

	// GetByID returns the entry with extras and flavors loaded, or
	// common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Entry, error)

	// ListByCategory returns entries of a category ordered by date
	// descending.
	ListByCategory(ctx context.Context, categoryID int64) ([]models.Entry, error)

	// Delete removes the entry row; child rows go with it by cascade.
	Delete(ctx context.Context, id int64) error

	// CountByCategory returns the number of entries in a category.
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
}
