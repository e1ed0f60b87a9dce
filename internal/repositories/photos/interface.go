package photos

import (
	"context"

	"github.com/tastebookapp/tastebook/internal/models"
)

// Upload status values for a photo row.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Repository describes storage operations for photo attachments.
type Repository interface {
	// InsertAll bulk-creates the photos for entryID. Positions are
	// rewritten densely (position = index) during the pass.
	InsertAll(ctx context.Context, entryID int64, photos []models.Photo) error

	// ListByEntry returns the entry's photos ordered by position.
	ListByEntry(ctx context.Context, entryID int64) ([]models.Photo, error)

	// Delete removes a photo row.
	Delete(ctx context.Context, id int64) error

	// PendingUpload returns all photos not yet mirrored to the cloud
	// folder.
	PendingUpload(ctx context.Context) ([]models.Photo, error)

	// MarkUploaded records the remote filename and completes the upload
	// phase for a photo.
	MarkUploaded(ctx context.Context, id int64, remoteName string) error
}
