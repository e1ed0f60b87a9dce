// Package models defines the tasting-journal data model: categories with
// their user-extensible schemas, entries, photo attachments, and the
// transient aggregate used while an entry is being assembled.
package models

// Category groups entries sharing a schema: a set of extra fields plus the
// flavor axes of the radar chart. A category is either one of the built-in
// presets (identified by PresetKey) or fully user-defined.
type Category struct {
	// ID is 0 until the category is persisted.
	ID int64 `json:"id"`

	// Name is the free-text display name. Empty for preset categories,
	// whose name is resolved from PresetKey.
	Name string `json:"name"`

	// PresetKey identifies a built-in category ("beer", "wine", ...).
	// Empty for user-created categories.
	PresetKey string `json:"preset_key"`
}

// DisplayName resolves the category's visible name: the preset's localized
// name when PresetKey is set, the free-text name otherwise.
func (c Category) DisplayName() string {
	if c.PresetKey != "" {
		if p, ok := presetCatalog[c.PresetKey]; ok {
			return p.Name
		}
	}
	return c.Name
}

// ExtraField is a category-scoped, user-nameable attribute captured per
// entry as free text.
type ExtraField struct {
	// ID is 0 until the field is persisted.
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`

	// Preset marks a system-defined field of a preset category. Preset
	// fields cannot be deleted or renamed by the user.
	Preset bool `json:"preset"`

	// Deleted is the soft-delete marker, reversible until the schema is
	// saved.
	Deleted bool `json:"deleted"`
}

// Empty reports whether the field was never persisted and carries no
// content. Empty fields are pruned on save rather than stored.
func (f ExtraField) Empty() bool {
	return f.ID == 0 && f.Name == ""
}

// Flavor is one named axis of a category's radar chart. Position fixes the
// axis order around the chart.
type Flavor struct {
	// ID is 0 until the flavor is persisted.
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`

	// Deleted is the soft-delete marker, reversible until saved.
	Deleted bool `json:"deleted"`
}

// Empty reports whether the flavor was never persisted and carries no name.
func (f Flavor) Empty() bool {
	return f.ID == 0 && f.Name == ""
}

// Preset describes one built-in category: its display name and the schema
// installed when the category is first used.
type Preset struct {
	Key     string
	Name    string
	Fields  []string
	Flavors []string
}

var presetCatalog = map[string]Preset{
	"beer": {
		Key:     "beer",
		Name:    "Beer",
		Fields:  []string{"Style", "ABV", "IBU"},
		Flavors: []string{"Malty", "Hoppy", "Bitter", "Sweet", "Fruity", "Roasted"},
	},
	"wine": {
		Key:     "wine",
		Name:    "Wine",
		Fields:  []string{"Grape", "Vintage", "ABV"},
		Flavors: []string{"Fruity", "Tannic", "Acidic", "Sweet", "Oaky", "Floral"},
	},
	"coffee": {
		Key:     "coffee",
		Name:    "Coffee",
		Fields:  []string{"Roast", "Process", "Variety"},
		Flavors: []string{"Acidity", "Body", "Sweetness", "Bitterness", "Fruity", "Nutty"},
	},
	"whisky": {
		Key:     "whisky",
		Name:    "Whisky",
		Fields:  []string{"Type", "Age", "Cask"},
		Flavors: []string{"Peaty", "Smoky", "Sweet", "Spicy", "Fruity", "Woody"},
	},
}

// PresetByKey returns the built-in category definition for key, if any.
func PresetByKey(key string) (Preset, bool) {
	p, ok := presetCatalog[key]
	return p, ok
}

// Presets lists all built-in category definitions in no particular order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetCatalog))
	for _, p := range presetCatalog {
		out = append(out, p)
	}
	return out
}
