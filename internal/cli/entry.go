package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/tastebookapp/tastebook/internal/common"
	"github.com/tastebookapp/tastebook/internal/models"
)

func (a *App) listEntries(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: list <category-id>")
		return
	}
	categoryID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: list <category-id>")
		return
	}

	items, err := a.core.Entries.ListByCategory(ctx, categoryID)
	if err != nil {
		log.Println(err.Error())
		return
	}
	for _, e := range items {
		date := time.UnixMilli(e.Date).Format("2006-01-02")
		fmt.Printf("%d\t%s\t%s\t%.1f\n", e.ID, date, e.Title, e.Rating)
	}
}

func (a *App) showEntry(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: show <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: show <id>")
		return
	}

	e, err := a.core.Entries.Get(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return
	}

	fmt.Printf("Title:    %s\n", e.Title)
	fmt.Printf("Maker:    %s\n", e.Maker)
	fmt.Printf("Origin:   %s\n", e.Origin)
	fmt.Printf("Location: %s\n", e.Location)
	fmt.Printf("Price:    %.2f\n", e.Price)
	fmt.Printf("Date:     %s\n", time.UnixMilli(e.Date).Format("2006-01-02 15:04"))
	fmt.Printf("Rating:   %.1f / %.0f\n", e.Rating, models.MaxRating)
	if e.Notes != "" {
		fmt.Printf("Notes:    %s\n", e.Notes)
	}
	for _, f := range e.Flavors {
		fmt.Printf("  %s: %.1f\n", f.Name, f.Intensity)
	}
	for _, v := range e.Extras {
		fmt.Printf("  %s: %s\n", v.Name, v.Value)
	}
	for _, p := range e.Photos {
		fmt.Printf("  photo %d: %s\n", p.Position, p.URI)
	}
}

// newEntry runs the add-entry wizard: info form, flavor profile, photos,
// then a single atomic commit.
func (a *App) newEntry(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: new <category-id>")
		return
	}
	categoryID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: new <category-id>")
		return
	}

	editor, err := a.core.Schema.LoadCategory(ctx, categoryID)
	if err != nil {
		log.Printf("load category failed: %v", err)
		return
	}
	holder := models.NewEntryHolder(editor.Category)

	info, err := a.readEntryInfo()
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	holder.SetInfo(info)

	if err := a.readFlavorProfile(editor.RadarFlavors(), holder); err != nil {
		log.Printf("error: %v", err)
		return
	}
	a.readPhotos(ctx, holder)

	id, err := a.core.Entries.Commit(ctx, holder)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			fmt.Println("Entry not saved: a title is required")
			return
		}
		log.Printf("commit failed: %v", err)
		return
	}
	fmt.Printf("Entry %d saved\n", id)
}

func (a *App) readEntryInfo() (models.EntryInfo, error) {
	var info models.EntryInfo
	var err error

	if info.Title, err = GetSimpleText(a.reader, "Title", os.Stdout); err != nil {
		return info, err
	}
	if info.Maker, err = GetSimpleText(a.reader, "Maker (optional)", os.Stdout); err != nil {
		return info, err
	}
	if info.Origin, err = GetSimpleText(a.reader, "Origin (optional)", os.Stdout); err != nil {
		return info, err
	}
	if info.Location, err = GetSimpleText(a.reader, "Location (optional)", os.Stdout); err != nil {
		return info, err
	}
	if info.Price, err = GetFloat(a.reader, "Price (optional)", 0, os.Stdout); err != nil {
		return info, err
	}
	if info.Rating, err = GetFloat(a.reader, "Rating 0-5 (optional)", 0, os.Stdout); err != nil {
		return info, err
	}
	if info.Notes, err = GetMultiline(a.reader, "Notes (optional)", os.Stdout); err != nil {
		return info, err
	}
	return info, nil
}

func (a *App) readFlavorProfile(axes []string, holder *models.EntryHolder) error {
	if len(axes) == 0 {
		return nil
	}

	skip, err := GetSimpleText(a.reader, "Rate flavors? (y/N)", os.Stdout)
	if err != nil {
		return err
	}
	if skip != "y" && skip != "yes" {
		// Defaults are filled in on commit: every axis at zero intensity.
		return nil
	}

	for _, name := range axes {
		intensity, err := GetFloat(a.reader, name+" (0-5)", 0, os.Stdout)
		if err != nil {
			return err
		}
		holder.AppendFlavors(models.FlavorValue{Name: name, Intensity: intensity})
	}
	return nil
}

func (a *App) readPhotos(ctx context.Context, holder *models.EntryHolder) {
	for {
		path, err := GetSimpleText(a.reader, "Photo path (empty to finish)", os.Stdout)
		if err != nil || path == "" {
			return
		}
		if _, err := a.core.Photos.AddPhoto(ctx, holder, path); err != nil {
			if errors.Is(err, common.ErrUnreadable) {
				fmt.Println("Cannot read file:", path)
				continue
			}
			log.Printf("error: %v", err)
		}
	}
}

func (a *App) deleteEntry(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: delete <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: delete <id>")
		return
	}
	if err := a.core.Entries.Delete(ctx, id); err != nil {
		log.Printf("delete failed: %v", err)
		return
	}
	fmt.Println("Deleted")
}
