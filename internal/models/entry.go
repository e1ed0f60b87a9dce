package models

import "time"

// MaxRating bounds the entry rating scale (0 .. MaxRating).
const MaxRating = 5.0

// Entry is one persisted tasting record.
type Entry struct {
	// ID is 0 until the entry is committed.
	ID         int64   `json:"id"`
	CategoryID int64   `json:"category_id"`
	Title      string  `json:"title"`
	Maker      string  `json:"maker"`
	Origin     string  `json:"origin"`
	Location   string  `json:"location"`
	Price      float64 `json:"price"`

	// Date is epoch milliseconds; defaults to creation time.
	Date   int64   `json:"date"`
	Rating float64 `json:"rating"`
	Notes  string  `json:"notes"`
	Shared bool    `json:"shared"`
	Link   string  `json:"link"`

	Extras  []ExtraValue  `json:"extras"`
	Flavors []FlavorValue `json:"flavors"`
	Photos  []Photo       `json:"photos"`
}

// ExtraValue is the per-entry free-text value of one category extra field.
type ExtraValue struct {
	ID      int64  `json:"id"`
	EntryID int64  `json:"entry_id"`
	FieldID int64  `json:"field_id"`
	Name    string `json:"name"`
	Value   string `json:"value"`
}

// FlavorValue is the per-entry intensity of one flavor axis.
type FlavorValue struct {
	ID        int64   `json:"id"`
	EntryID   int64   `json:"entry_id"`
	Name      string  `json:"name"`
	Intensity float64 `json:"intensity"`
}

// ClampRating limits r to the [0, MaxRating] scale.
func ClampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

// NowMillis returns the current wall clock as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
