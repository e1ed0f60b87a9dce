package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/tastebookapp/tastebook/internal/services"
)

func (a *App) syncStatus(ctx context.Context) {
	fmt.Printf("Data sync:  %s\n", a.core.Sync.State(services.ChannelData))
	fmt.Printf("Photo sync: %s\n", a.core.Sync.State(services.ChannelPhotos))
	if account := a.core.Sync.Account(); account != "" {
		fmt.Printf("Account:    %s\n", account)
	}
}

func parseOnOff(args []string) (bool, bool) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return false, false
	}
	return args[0] == "on", true
}

func (a *App) toggleDataSync(ctx context.Context, args []string) {
	enabled, ok := parseOnOff(args)
	if !ok {
		fmt.Println("Usage: sync <on|off>")
		return
	}
	if err := a.core.Sync.SetDataSync(ctx, enabled); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Data sync: %s\n", a.core.Sync.State(services.ChannelData))
}

func (a *App) togglePhotoSync(ctx context.Context, args []string) {
	enabled, ok := parseOnOff(args)
	if !ok {
		fmt.Println("Usage: photosync <on|off>")
		return
	}
	if err := a.core.Sync.SetPhotoSync(ctx, enabled); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Photo sync: %s\n", a.core.Sync.State(services.ChannelPhotos))
}

func (a *App) toggleUnmetered(ctx context.Context, args []string) {
	only, ok := parseOnOff(args)
	if !ok {
		fmt.Println("Usage: unmetered <on|off>")
		return
	}
	if err := a.core.Sync.SetPhotosUnmeteredOnly(ctx, only); err != nil {
		log.Printf("error: %v", err)
	}
}

// syncNow only enqueues; the channel loops pick the requests up.
func (a *App) syncNow() {
	a.core.Sync.TriggerDataSync()
	a.core.Sync.TriggerPhotoSync()
	fmt.Println("Sync requested")
}
