package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus(ctx context.Context) string {
	s := ""
	if session, err := a.core.Identity.Session(ctx); err == nil && session != nil {
		s = session.Account
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the read-eval-print loop until EOF or an exit command.
func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to tastebook CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("tb %s> ", a.getStatus(ctx))
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Categories: categories, newcat, editcat, delcat")
			fmt.Println("Entries:    list, show, new, delete")
			fmt.Println("Sync:       status, sync, photosync, unmetered, syncnow")
			if a.isLoggedIn(ctx) {
				fmt.Println("Account:    link, logout, exit")
			} else {
				fmt.Println("Account:    register, login, exit")
			}

		case "categories":
			a.listCategories(ctx)
		case "newcat":
			a.newCategory(ctx, args)
		case "editcat":
			a.editCategory(ctx, args)
		case "delcat":
			a.deleteCategory(ctx, args)

		case "l", "list":
			a.listEntries(ctx, args)
		case "show":
			a.showEntry(ctx, args)
		case "new":
			a.newEntry(ctx, args)
		case "delete":
			a.deleteEntry(ctx, args)

		case "status":
			a.syncStatus(ctx)
		case "sync":
			a.toggleDataSync(ctx, args)
		case "photosync":
			a.togglePhotoSync(ctx, args)
		case "unmetered":
			a.toggleUnmetered(ctx, args)
		case "syncnow":
			a.syncNow()

		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "link":
			a.link(ctx, args)
		case "logout":
			a.logout(ctx)

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
