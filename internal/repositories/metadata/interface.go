// Package metadata is a small key/value store on top of the local database.
// It holds device settings (sync toggles), the active session credential,
// the linked-provider list, and the last-known nearest location.
package metadata

import "context"

// Well-known metadata keys.
const (
	KeySyncData         = "sync.data"
	KeySyncPhotos       = "sync.photos"
	KeyPhotosUnmetered  = "sync.photos_unmetered"
	KeyLastSyncVersion  = "sync.last_version"
	KeyClientID         = "client.id"
	KeySessionToken     = "session.token"
	KeySessionAccount   = "session.account"
	KeySessionProviders = "session.providers"
	KeyNearestLocation  = "location.nearest"
)

// Repository is a byte-valued key/value store.
type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key if present.
	Delete(ctx context.Context, key string) error

	// List returns all key/value pairs.
	List(ctx context.Context) (map[string][]byte, error)

	// Clear removes every key. Used on logout.
	Clear(ctx context.Context) error
}
