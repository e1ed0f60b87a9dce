package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/tastebookapp/tastebook/internal/common"
)

func (a *App) register(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	defer common.WipeByteArray(password)

	session, err := a.core.Identity.RegisterEmail(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrWeakCredential):
			fmt.Println("Password too weak: use at least 8 characters")
		case errors.Is(err, common.ErrInvalidIdentifier):
			fmt.Println("Not a valid email address")
		case errors.Is(err, common.ErrIdentifierInUse):
			fmt.Println("This email is already registered, try 'login'")
		default:
			log.Printf("Registration unsuccessful: %s", err.Error())
		}
		return
	}

	log.Printf("Registered as %s", session.Account)
}

func (a *App) login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	defer common.WipeByteArray(password)

	session, err := a.core.Identity.SignInEmail(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			fmt.Println("Server unavailable, try again later")
		} else {
			log.Printf("Login unsuccessful: %s", err.Error())
		}
		return
	}

	log.Printf("Logged in as %s", session.Account)
}

func (a *App) link(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: link <provider>")
		return
	}

	session, err := a.core.Identity.LinkProvider(ctx, args[0])
	if err != nil {
		log.Printf("Link unsuccessful: %s", err.Error())
		return
	}
	fmt.Printf("Linked providers: %v\n", session.Providers)
}

// logout always succeeds from the user's point of view; remote teardown is
// best effort.
func (a *App) logout(ctx context.Context) {
	if err := a.core.Identity.Logout(ctx); err != nil {
		log.Printf("Logout failed: %s", err.Error())
		return
	}
	fmt.Println("Logged out")
}
