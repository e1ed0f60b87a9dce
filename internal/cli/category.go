package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tastebookapp/tastebook/internal/services"
)

func (a *App) listCategories(ctx context.Context) {
	cats, err := a.core.Schema.ListCategories(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}
	for _, c := range cats {
		fmt.Printf("%d\t%s\n", c.ID, c.DisplayName())
	}
}

// newCategory creates a category from a preset key or from scratch:
//
//	newcat beer
//	newcat custom "Hot Sauce"
func (a *App) newCategory(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: newcat <beer|wine|coffee|whisky|custom> [name]")
		return
	}

	presetKey := args[0]
	name := strings.Join(args[1:], " ")
	if presetKey == "custom" {
		presetKey = ""
		if name == "" {
			var err error
			name, err = GetSimpleText(a.reader, "Category name", os.Stdout)
			if err != nil {
				log.Printf("error: %v", err)
				return
			}
		}
	}

	editor := a.core.Schema.NewCategory(presetKey, name)
	a.editSchema(editor)

	if err := a.core.Schema.Save(ctx, editor); err != nil {
		log.Printf("save failed: %v", err)
		return
	}
	fmt.Printf("Category %d saved\n", editor.Category.ID)
}

func (a *App) editCategory(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: editcat <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: editcat <id>")
		return
	}

	editor, err := a.core.Schema.LoadCategory(ctx, id)
	if err != nil {
		log.Printf("load failed: %v", err)
		return
	}
	a.editSchema(editor)

	if err := a.core.Schema.Save(ctx, editor); err != nil {
		log.Printf("save failed: %v", err)
		return
	}
	fmt.Println("Saved")
}

// editSchema runs the inner field/flavor editing loop. Deletions stay
// reversible via undo until the editor is saved.
func (a *App) editSchema(e *services.SchemaEditor) {
	for {
		a.printSchema(e)
		line, err := GetSimpleText(a.reader,
			"addfield | addflavor | renfield <n> <name> | renflavor <n> <name> | delfield <n> | delflavor <n> | undofield <n> | undoflavor <n> | done",
			os.Stdout)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var cmdErr error
		switch parts[0] {
		case "done", "":
			return
		case "addfield":
			row := e.AddField()
			row.Field.Name, cmdErr = GetSimpleText(a.reader, "Field name", os.Stdout)
		case "addflavor":
			row := e.AddFlavor()
			row.Flavor.Name, cmdErr = GetSimpleText(a.reader, "Flavor name", os.Stdout)
		case "renfield":
			if n, ok := argIndex(parts); ok && len(parts) > 2 {
				cmdErr = e.RenameField(n, strings.Join(parts[2:], " "))
			}
		case "renflavor":
			if n, ok := argIndex(parts); ok && len(parts) > 2 {
				cmdErr = e.RenameFlavor(n, strings.Join(parts[2:], " "))
			}
		case "delfield":
			if n, ok := argIndex(parts); ok {
				_, cmdErr = e.DeleteField(n)
			}
		case "delflavor":
			if n, ok := argIndex(parts); ok {
				_, cmdErr = e.DeleteFlavor(n)
			}
		case "undofield":
			if n, ok := argIndex(parts); ok {
				cmdErr = e.UndoField(n)
			}
		case "undoflavor":
			if n, ok := argIndex(parts); ok {
				cmdErr = e.UndoFlavor(n)
			}
		default:
			fmt.Println("Unknown command:", parts[0])
		}
		if cmdErr != nil {
			log.Printf("error: %v", cmdErr)
		}
	}
}

func (a *App) printSchema(e *services.SchemaEditor) {
	fmt.Printf("Category: %s\n", e.Category.DisplayName())
	fmt.Println("Fields:")
	for i, row := range e.Fields {
		fmt.Printf("  %d\t%s%s\n", i, row.Field.Name, rowSuffix(row.State, row.Field.Preset))
	}
	fmt.Println("Flavors:")
	for i, row := range e.Flavors {
		fmt.Printf("  %d\t%s%s\n", i, row.Flavor.Name, rowSuffix(row.State, false))
	}
}

func rowSuffix(state services.RowState, preset bool) string {
	var parts []string
	if preset {
		parts = append(parts, "preset")
	}
	switch state {
	case services.RowUnsaved:
		parts = append(parts, "new")
	case services.RowPendingDelete:
		parts = append(parts, "deleted, undo available")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func argIndex(parts []string) (int, bool) {
	if len(parts) < 2 {
		fmt.Println("Usage:", parts[0], "<n>")
		return 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		fmt.Println("Usage:", parts[0], "<n>")
		return 0, false
	}
	return n, true
}

func (a *App) deleteCategory(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: delcat <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: delcat <id>")
		return
	}
	if err := a.core.Schema.DeleteCategory(ctx, id); err != nil {
		log.Printf("delete failed: %v", err)
		return
	}
	fmt.Println("Deleted")
}
