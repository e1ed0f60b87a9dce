package models

// Location is a named place the user tasted something at. New names entered
// free-text on an entry are recorded with the last known coordinates as a
// best-effort enrichment.
type Location struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
