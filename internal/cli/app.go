// Package cli is the interactive terminal front end of the journal core.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/tastebookapp/tastebook/internal/app"
	"github.com/tastebookapp/tastebook/internal/config"
	"github.com/tastebookapp/tastebook/internal/services"
)

type App struct {
	core   *app.App
	reader *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, providers []services.Provider) (*App, error) {
	core, err := app.New(ctx, cfg, providers)
	if err != nil {
		return nil, err
	}
	return &App{core: core, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.core.Close()

	if err := a.core.Start(ctx); err != nil {
		return err
	}
	a.Root(ctx)
	return nil
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	session, err := a.core.Identity.Session(ctx)
	return err == nil && session != nil
}
