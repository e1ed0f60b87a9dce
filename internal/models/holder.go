package models

import "sync/atomic"

// EntryInfo is the contribution of the info sub-form: the plain fields of
// an entry, without flavors or photos. Title is the only mandatory field;
// an out-of-scale rating is clamped on build, not rejected.
type EntryInfo struct {
	Title    string  `json:"title" validate:"required"`
	Maker    string  `json:"maker"`
	Origin   string  `json:"origin"`
	Location string  `json:"location"`
	Price    float64 `json:"price"`
	Date     int64   `json:"date"`
	Rating   float64 `json:"rating"`
	Notes    string  `json:"notes"`
	Shared   bool    `json:"shared"`
	Link     string  `json:"link"`
}

// EntryHolder carries the state of one add-entry session between
// independently-lifecycled sub-forms until a single atomic commit. It owns
// its sub-collections exclusively until handed to the store, and is
// destroyed after the commit call.
type EntryHolder struct {
	CategoryID   int64         `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Info         EntryInfo     `json:"info"`
	Extras       []ExtraValue  `json:"extras"`
	Flavors      []FlavorValue `json:"flavors"`
	Photos       []Photo       `json:"photos"`

	// committing guards against a second commit starting while one is in
	// flight for this session. Not serialized.
	committing atomic.Bool
}

// NewEntryHolder starts an add-entry session for the given category.
// The date defaults to session creation time.
func NewEntryHolder(cat Category) *EntryHolder {
	return &EntryHolder{
		CategoryID:   cat.ID,
		CategoryName: cat.DisplayName(),
		Info:         EntryInfo{Date: NowMillis()},
	}
}

// SetInfo replaces the info contribution. A zero date keeps the session
// creation time instead of erasing it.
func (h *EntryHolder) SetInfo(info EntryInfo) {
	if info.Date == 0 {
		info.Date = h.Info.Date
	}
	h.Info = info
}

// AppendFlavors adds flavor contributions; earlier contributions are kept.
func (h *EntryHolder) AppendFlavors(values ...FlavorValue) {
	h.Flavors = append(h.Flavors, values...)
}

// AppendExtras adds extra-field contributions; earlier contributions are kept.
func (h *EntryHolder) AppendExtras(values ...ExtraValue) {
	h.Extras = append(h.Extras, values...)
}

// BuildEntry materializes the aggregate as an Entry ready for insertion.
// Rating is clamped to the bounded scale and photo positions are
// re-densified so persisted values start at 0 without gaps.
func (h *EntryHolder) BuildEntry() Entry {
	photos := make([]Photo, len(h.Photos))
	copy(photos, h.Photos)
	for i := range photos {
		photos[i].Position = i
	}

	return Entry{
		CategoryID: h.CategoryID,
		Title:      h.Info.Title,
		Maker:      h.Info.Maker,
		Origin:     h.Info.Origin,
		Location:   h.Info.Location,
		Price:      h.Info.Price,
		Date:       h.Info.Date,
		Rating:     ClampRating(h.Info.Rating),
		Notes:      h.Info.Notes,
		Shared:     h.Info.Shared,
		Link:       h.Info.Link,
		Extras:     h.Extras,
		Flavors:    h.Flavors,
		Photos:     photos,
	}
}

// BeginCommit marks the session as having a commit in flight. It returns
// false if one is already outstanding.
func (h *EntryHolder) BeginCommit() bool {
	return h.committing.CompareAndSwap(false, true)
}

// EndCommit clears the in-flight marker on terminal completion, success or
// failure.
func (h *EntryHolder) EndCommit() {
	h.committing.Store(false)
}
