// Package services contains the application services of the journal core:
// the category schema editor, the entry aggregate builder, the photo
// attachment manager, the backend sync orchestrator, and identity linking.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/dbx"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/models"
	"github.com/tastebookapp/tastebook/internal/repositories/categories"
	"github.com/tastebookapp/tastebook/internal/repositories/entries"
	"github.com/tastebookapp/tastebook/internal/repositories/notify"
)

// RowState is the editor-side lifecycle of one schema row.
//
// Transitions:
//
//	Active        -> PendingDelete  (delete, reversible)
//	PendingDelete -> Active         (undo)
//	Unsaved       -> removed        (delete of an empty new row, irreversible)
type RowState int

const (
	// RowUnsaved marks a row added in this editing session, not yet persisted.
	RowUnsaved RowState = iota
	// RowActive marks a persisted, live row.
	RowActive
	// RowPendingDelete marks a row soft-deleted in this session; reversible
	// until save.
	RowPendingDelete
)

// FieldRow is one extra field under edit.
type FieldRow struct {
	Field models.ExtraField
	State RowState
}

// FlavorRow is one flavor axis under edit.
type FlavorRow struct {
	Flavor models.Flavor
	State  RowState
}

// SchemaEditor holds the in-memory, pre-save state of one category's
// schema. All mutations happen here; nothing touches the store until Save.
type SchemaEditor struct {
	Category models.Category
	Fields   []*FieldRow
	Flavors  []*FlavorRow
}

// AddField appends a new, empty user field to the editing session.
func (e *SchemaEditor) AddField() *FieldRow {
	row := &FieldRow{
		Field: models.ExtraField{CategoryID: e.Category.ID},
		State: RowUnsaved,
	}
	e.Fields = append(e.Fields, row)
	return row
}

// RenameField changes a field's name. Preset fields are immutable.
func (e *SchemaEditor) RenameField(index int, name string) error {
	if index < 0 || index >= len(e.Fields) {
		return common.ErrNotFound
	}
	row := e.Fields[index]
	if row.Field.Preset {
		return common.ErrPresetField
	}
	row.Field.Name = name
	return nil
}

// DeleteField deletes the field at index. A brand-new, still-empty field is
// removed outright (nothing to undo); a field with content is marked
// pending-delete and can be restored with UndoField until save. The
// returned flag reports an outright removal.
func (e *SchemaEditor) DeleteField(index int) (removed bool, err error) {
	if index < 0 || index >= len(e.Fields) {
		return false, common.ErrNotFound
	}
	row := e.Fields[index]
	if row.Field.Preset {
		return false, common.ErrPresetField
	}
	if row.State == RowUnsaved && row.Field.Name == "" {
		e.Fields = append(e.Fields[:index], e.Fields[index+1:]...)
		return true, nil
	}
	row.State = RowPendingDelete
	row.Field.Deleted = true
	return false, nil
}

// UndoField reverts a pending delete.
func (e *SchemaEditor) UndoField(index int) error {
	if index < 0 || index >= len(e.Fields) {
		return common.ErrNotFound
	}
	row := e.Fields[index]
	if row.State != RowPendingDelete {
		return nil
	}
	if row.Field.ID > 0 {
		row.State = RowActive
	} else {
		row.State = RowUnsaved
	}
	row.Field.Deleted = false
	return nil
}

// AddFlavor appends a new, empty flavor axis.
func (e *SchemaEditor) AddFlavor() *FlavorRow {
	row := &FlavorRow{
		Flavor: models.Flavor{CategoryID: e.Category.ID, Position: len(e.Flavors)},
		State:  RowUnsaved,
	}
	e.Flavors = append(e.Flavors, row)
	return row
}

// RenameFlavor changes a flavor's name.
func (e *SchemaEditor) RenameFlavor(index int, name string) error {
	if index < 0 || index >= len(e.Flavors) {
		return common.ErrNotFound
	}
	e.Flavors[index].Flavor.Name = name
	return nil
}

// DeleteFlavor mirrors DeleteField for flavor axes.
func (e *SchemaEditor) DeleteFlavor(index int) (removed bool, err error) {
	if index < 0 || index >= len(e.Flavors) {
		return false, common.ErrNotFound
	}
	row := e.Flavors[index]
	if row.State == RowUnsaved && row.Flavor.Name == "" {
		e.Flavors = append(e.Flavors[:index], e.Flavors[index+1:]...)
		return true, nil
	}
	row.State = RowPendingDelete
	row.Flavor.Deleted = true
	return false, nil
}

// UndoFlavor reverts a pending flavor delete.
func (e *SchemaEditor) UndoFlavor(index int) error {
	if index < 0 || index >= len(e.Flavors) {
		return common.ErrNotFound
	}
	row := e.Flavors[index]
	if row.State != RowPendingDelete {
		return nil
	}
	if row.Flavor.ID > 0 {
		row.State = RowActive
	} else {
		row.State = RowUnsaved
	}
	row.Flavor.Deleted = false
	return nil
}

// RadarFlavors returns the axes currently shown on the radar chart: every
// non-empty flavor that is not pending deletion. Recomputed on each call,
// so renames and delete/undo toggles take effect immediately.
func (e *SchemaEditor) RadarFlavors() []string {
	var names []string
	for _, row := range e.Flavors {
		if row.State == RowPendingDelete || row.Flavor.Name == "" {
			continue
		}
		names = append(names, row.Flavor.Name)
	}
	return names
}

// SchemaService loads and saves category schemas.
type SchemaService struct {
	db  *sql.DB
	hub *notify.Hub
	log logging.Logger
}

// NewSchemaService wires a SchemaService onto the local database.
func NewSchemaService(db *sql.DB, hub *notify.Hub, log logging.Logger) *SchemaService {
	return &SchemaService{db: db, hub: hub, log: log}
}

// NewCategory starts an editing session for a category that does not exist
// yet. For a preset key, the built-in fields and flavors are pre-filled as
// unsaved rows (fields flagged preset, so they stay undeletable once saved).
func (s *SchemaService) NewCategory(presetKey, name string) *SchemaEditor {
	e := &SchemaEditor{Category: models.Category{Name: name, PresetKey: presetKey}}

	if preset, ok := models.PresetByKey(presetKey); ok {
		for _, fieldName := range preset.Fields {
			e.Fields = append(e.Fields, &FieldRow{
				Field: models.ExtraField{Name: fieldName, Preset: true},
				State: RowUnsaved,
			})
		}
		for i, flavorName := range preset.Flavors {
			e.Flavors = append(e.Flavors, &FlavorRow{
				Flavor: models.Flavor{Name: flavorName, Position: i},
				State:  RowUnsaved,
			})
		}
	}
	return e
}

// LoadCategory reads the persisted schema into a fresh editing session.
// Rows come back in insertion order (id ascending) and start Active.
func (s *SchemaService) LoadCategory(ctx context.Context, id int64) (*SchemaEditor, error) {
	repo := categories.NewSQLiteRepository(s.db)

	cat, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	fields, err := repo.ListExtraFields(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load extra fields: %w", err)
	}
	flavors, err := repo.ListFlavors(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load flavors: %w", err)
	}

	e := &SchemaEditor{Category: *cat}
	for _, f := range fields {
		e.Fields = append(e.Fields, &FieldRow{Field: f, State: RowActive})
	}
	for _, f := range flavors {
		e.Flavors = append(e.Flavors, &FlavorRow{Flavor: f, State: RowActive})
	}
	return e, nil
}

// UserFields returns the editor's non-preset fields, the set the user may
// rename or delete.
func (e *SchemaEditor) UserFields() []*FieldRow {
	var out []*FieldRow
	for _, row := range e.Fields {
		if !row.Field.Preset {
			out = append(out, row)
		}
	}
	return out
}

// Save applies the editing session to the store in one transaction.
//
// New category: insert the category row, then every non-empty, non-deleted
// child. Existing category: update the name when changed to something
// non-empty; per child row, a persisted pending-delete is deleted, a
// persisted live row gets its name updated and any stale deleted flag
// cleared, and a new non-empty row is inserted.
func (s *SchemaService) Save(ctx context.Context, e *SchemaEditor) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := categories.NewSQLiteRepository(tx)

		if e.Category.ID == 0 {
			return s.saveNew(ctx, repo, e)
		}
		return s.saveExisting(ctx, repo, e)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(notify.Event{Path: "categories", Op: notify.OpUpdate, ID: e.Category.ID})
	return nil
}

func (s *SchemaService) saveNew(ctx context.Context, repo categories.Repository, e *SchemaEditor) error {
	if err := repo.Insert(ctx, &e.Category); err != nil {
		return err
	}

	for _, row := range e.Fields {
		if row.Field.Empty() || row.Field.Deleted {
			continue
		}
		row.Field.CategoryID = e.Category.ID
		if err := repo.InsertExtraField(ctx, &row.Field); err != nil {
			return err
		}
		row.State = RowActive
	}
	for _, row := range e.Flavors {
		if row.Flavor.Empty() || row.Flavor.Deleted {
			continue
		}
		row.Flavor.CategoryID = e.Category.ID
		if err := repo.InsertFlavor(ctx, &row.Flavor); err != nil {
			return err
		}
		row.State = RowActive
	}
	return nil
}

func (s *SchemaService) saveExisting(ctx context.Context, repo categories.Repository, e *SchemaEditor) error {
	if e.Category.PresetKey == "" && e.Category.Name != "" {
		if err := repo.UpdateName(ctx, e.Category.ID, e.Category.Name); err != nil {
			return err
		}
	}

	for _, row := range e.Fields {
		switch {
		case row.Field.ID > 0 && row.Field.Deleted:
			if err := repo.DeleteExtraField(ctx, row.Field.ID); err != nil {
				return err
			}
		case row.Field.ID > 0:
			if err := repo.UpdateExtraField(ctx, &row.Field); err != nil {
				return err
			}
		case !row.Field.Empty() && !row.Field.Deleted:
			row.Field.CategoryID = e.Category.ID
			if err := repo.InsertExtraField(ctx, &row.Field); err != nil {
				return err
			}
			row.State = RowActive
		}
	}

	for _, row := range e.Flavors {
		switch {
		case row.Flavor.ID > 0 && row.Flavor.Deleted:
			if err := repo.DeleteFlavor(ctx, row.Flavor.ID); err != nil {
				return err
			}
		case row.Flavor.ID > 0:
			if err := repo.UpdateFlavor(ctx, &row.Flavor); err != nil {
				return err
			}
		case !row.Flavor.Empty() && !row.Flavor.Deleted:
			row.Flavor.CategoryID = e.Category.ID
			if err := repo.InsertFlavor(ctx, &row.Flavor); err != nil {
				return err
			}
			row.State = RowActive
		}
	}
	return nil
}

// ListCategories returns all categories, presets and user-created alike.
func (s *SchemaService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return categories.NewSQLiteRepository(s.db).List(ctx)
}

// DeleteCategory removes an empty category. Categories still holding
// entries are protected.
func (s *SchemaService) DeleteCategory(ctx context.Context, id int64) error {
	n, err := entries.NewSQLiteRepository(s.db).CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category %d still has %d entries", common.ErrValidation, id, n)
	}

	if err := categories.NewSQLiteRepository(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.hub.Publish(notify.Event{Path: "categories", Op: notify.OpDelete, ID: id})
	return nil
}
