package locations

import (
	"context"

	"github.com/tastebookapp/tastebook/internal/models"
)

// Repository describes storage operations for named locations.
type Repository interface {
	// GetByName returns the location with the given name, or
	// common.ErrNotFound.
	GetByName(ctx context.Context, name string) (*models.Location, error)

	// Insert stores a new named location and sets its ID.
	Insert(ctx context.Context, l *models.Location) error

	// List returns all known locations ordered by name.
	List(ctx context.Context) ([]models.Location, error)
}
