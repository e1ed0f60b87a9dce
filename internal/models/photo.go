package models

// Photo is one attachment of an entry, identified by the content hash of
// its bytes. Two photos with the same hash on the same entry are the same
// logical photo.
type Photo struct {
	// ID is 0 until the photo row is committed.
	ID      int64 `json:"id"`
	EntryID int64 `json:"entry_id"`

	// Hash is the hex MD5 digest of the source bytes, used as dedup key.
	Hash string `json:"hash"`

	// URI references the backing bytes, local path or remote URL.
	URI string `json:"uri"`

	// RemoteName is the filename of the uploaded copy in the cloud photo
	// folder, empty while the photo exists only locally.
	RemoteName string `json:"remote_name"`

	// Position orders photos within the entry. Values are dense and start
	// at 0; gaps are closed on the next bulk write.
	Position int `json:"position"`
}
