package services

import (
	"context"
	"fmt"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/filex"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/models"
)

// hashFile is a seam for tests.
var hashFile = filex.HashFile

// PhotoManager manages the photo attachments of an entry under assembly.
// Photos are identified by the content hash of their bytes; adding the same
// photo twice never creates two attachments.
type PhotoManager struct {
	log logging.Logger
}

func NewPhotoManager(log logging.Logger) *PhotoManager {
	return &PhotoManager{log: log}
}

// AddPhoto hashes the referenced bytes and appends an attachment to the
// holder. A source that cannot be read yields common.ErrUnreadable and no
// attachment. A duplicate hash is a no-op: the existing attachment is
// returned unchanged. New attachments take the next free position
// (max existing + 1, or 0 when the entry has none).
func (m *PhotoManager) AddPhoto(ctx context.Context, h *models.EntryHolder, sourceURI string) (models.Photo, error) {
	hash, err := hashFile(sourceURI)
	if err != nil {
		return models.Photo{}, fmt.Errorf("%w: %v", common.ErrUnreadable, err)
	}

	for _, p := range h.Photos {
		if p.Hash == hash {
			m.log.Debug(ctx, "duplicate photo ignored", "hash", hash)
			return p, nil
		}
	}

	position := 0
	for _, p := range h.Photos {
		if p.Position >= position {
			position = p.Position + 1
		}
	}

	photo := models.Photo{Hash: hash, URI: sourceURI, Position: position}
	h.Photos = append(h.Photos, photo)
	return photo, nil
}

// RemovePhoto drops the attachment at the given position. Remaining
// position values may keep gaps until the next bulk write re-densifies
// them; any already-uploaded remote copy is left alone.
func (m *PhotoManager) RemovePhoto(h *models.EntryHolder, position int) error {
	for i, p := range h.Photos {
		if p.Position == position {
			h.Photos = append(h.Photos[:i], h.Photos[i+1:]...)
			return nil
		}
	}
	return common.ErrInvalidPosition
}
