package main

import (
	"context"
	"log"
	"os"

	"github.com/tastebookapp/tastebook/internal/buildinfo"
	"github.com/tastebookapp/tastebook/internal/cli"
	"github.com/tastebookapp/tastebook/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg, nil)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
