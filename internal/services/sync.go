package services

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tastebookapp/tastebook/internal/backend"
	"github.com/tastebookapp/tastebook/internal/logging"
	"github.com/tastebookapp/tastebook/internal/models"
	"github.com/tastebookapp/tastebook/internal/repositories/metadata"
	"github.com/tastebookapp/tastebook/internal/repositories/notify"
	"github.com/tastebookapp/tastebook/internal/repositories/photos"
)

// Channel identifies one independently toggled synchronization concern.
type Channel string

const (
	ChannelData   Channel = "data"
	ChannelPhotos Channel = "photos"
)

// ChannelState is the orchestrator-visible state of a sync channel.
type ChannelState int

const (
	StateDisabled ChannelState = iota
	StateRegistering
	StateEnabled
)

func (s ChannelState) String() string {
	switch s {
	case StateRegistering:
		return "registering"
	case StateEnabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// Uploader is the cloud photo mirror surface the orchestrator drives.
// *mirror.Mirror satisfies it.
type Uploader interface {
	SyncAll(ctx context.Context) error
	PutIfAbsent(ctx context.Context, p models.Photo) error
}

// SyncOrchestrator owns the background synchronization of local state with
// the backend and the cloud photo folder. Triggers are enqueue-only; the
// channel loops perform the actual network exchange and retry with
// exponential backoff. Failures never surface to the caller; only the
// current channel states and the last-known account identity do.
type SyncOrchestrator struct {
	db       *sql.DB
	backend  backend.Client
	uploader Uploader
	hub      *notify.Hub
	log      logging.Logger

	// metered reports whether the current network is metered. nil means
	// never metered.
	metered func() bool

	// retryBase and syncInterval are tunable for tests.
	retryBase    time.Duration
	syncInterval time.Duration

	mu         sync.Mutex
	dataState  ChannelState
	photoState ChannelState
	account    string
	dataStop   context.CancelFunc
	photoStop  context.CancelFunc
	watchStop  context.CancelFunc

	dataKick  chan struct{}
	photoKick chan struct{}

	wg sync.WaitGroup
}

// NewSyncOrchestrator wires the orchestrator. uploader may be nil when no
// object store is configured; the photo channel then stays disabled. A
// non-positive interval falls back to 15 minutes.
func NewSyncOrchestrator(db *sql.DB, be backend.Client, uploader Uploader, hub *notify.Hub, metered func() bool, interval time.Duration, log logging.Logger) *SyncOrchestrator {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SyncOrchestrator{
		db:           db,
		backend:      be,
		uploader:     uploader,
		hub:          hub,
		metered:      metered,
		log:          log,
		retryBase:    time.Second,
		syncInterval: interval,
		dataKick:     make(chan struct{}, 1),
		photoKick:    make(chan struct{}, 1),
	}
}

// Start restores channel states from persisted settings and begins
// listening for store change notifications.
func (o *SyncOrchestrator) Start(ctx context.Context) error {
	repo := metadata.NewSQLiteRepository(o.db)

	if on, _ := o.setting(ctx, metadata.KeySyncData); on {
		if err := o.SetDataSync(ctx, true); err != nil {
			return err
		}
	}
	if on, _ := o.setting(ctx, metadata.KeySyncPhotos); on {
		if err := o.SetPhotoSync(ctx, true); err != nil {
			return err
		}
	}

	if raw, err := repo.Get(ctx, metadata.KeySessionAccount); err == nil && raw != nil {
		o.mu.Lock()
		o.account = string(raw)
		o.mu.Unlock()
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.watchStop = cancel
	o.mu.Unlock()
	o.watchChanges(watchCtx)
	return nil
}

// watchChanges re-triggers the channels on local writes: a committed entry
// kicks data sync, new attachments kick the single-file photo upload path.
// The watcher runs until ctx is canceled by Stop.
func (o *SyncOrchestrator) watchChanges(ctx context.Context) {
	entriesCh, cancelEntries := o.hub.Subscribe("entries")
	photosCh, cancelPhotos := o.hub.Subscribe("photos")

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancelEntries()
		defer cancelPhotos()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-entriesCh:
				if !ok {
					return
				}
				o.TriggerDataSync()
			case ev, ok := <-photosCh:
				if !ok {
					return
				}
				o.uploadEntryPhotos(ev.ID)
			}
		}
	}()
}

// uploadEntryPhotos pushes the pending photos of one entry through the
// single-file put variant, if the photo channel is on and the network
// constraint allows.
func (o *SyncOrchestrator) uploadEntryPhotos(entryID int64) {
	if o.State(ChannelPhotos) != StateEnabled || !o.photoUploadAllowed() {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx := context.Background()

		pending, err := photos.NewSQLiteRepository(o.db).ListByEntry(ctx, entryID)
		if err != nil {
			o.log.Warn(ctx, "photo upload trigger failed", "entry", entryID, "error", err)
			return
		}
		for _, p := range pending {
			if err := o.uploader.PutIfAbsent(ctx, p); err != nil {
				o.log.Warn(ctx, "photo upload failed", "photo", p.ID, "error", err)
			}
		}
	}()
}

func (o *SyncOrchestrator) setting(ctx context.Context, key string) (bool, error) {
	raw, err := metadata.NewSQLiteRepository(o.db).Get(ctx, key)
	if err != nil {
		return false, err
	}
	return string(raw) == "1", nil
}

func (o *SyncOrchestrator) putSetting(ctx context.Context, key string, on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	return metadata.NewSQLiteRepository(o.db).Set(ctx, key, []byte(v))
}

// State returns the current state of a sync channel.
func (o *SyncOrchestrator) State(c Channel) ChannelState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c == ChannelPhotos {
		return o.photoState
	}
	return o.dataState
}

// Account returns the last-known account identity, empty when signed out.
func (o *SyncOrchestrator) Account() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.account
}

// SetDataSync enables or disables the data channel. Enabling registers the
// client with the backend (idempotent server-side) and then requests a full
// sync; disabling cancels the periodic job but leaves remote data alone.
// Toggling an already-matching state is a no-op.
func (o *SyncOrchestrator) SetDataSync(ctx context.Context, enabled bool) error {
	if err := o.putSetting(ctx, metadata.KeySyncData, enabled); err != nil {
		return err
	}

	o.mu.Lock()
	if enabled {
		if o.dataState != StateDisabled {
			o.mu.Unlock()
			return nil
		}
		o.dataState = StateRegistering
		loopCtx, cancel := context.WithCancel(context.Background())
		o.dataStop = cancel
		o.mu.Unlock()

		o.wg.Add(1)
		go o.dataLoop(loopCtx)
		return nil
	}

	if o.dataStop != nil {
		o.dataStop()
		o.dataStop = nil
	}
	o.dataState = StateDisabled
	o.mu.Unlock()
	return nil
}

// SetPhotoSync enables or disables the photo channel.
func (o *SyncOrchestrator) SetPhotoSync(ctx context.Context, enabled bool) error {
	if err := o.putSetting(ctx, metadata.KeySyncPhotos, enabled); err != nil {
		return err
	}
	o.reschedulePhotoJob(enabled)
	return nil
}

// SetPhotosUnmeteredOnly toggles the network-cost modifier and reschedules
// the photo job under the new constraint.
func (o *SyncOrchestrator) SetPhotosUnmeteredOnly(ctx context.Context, only bool) error {
	if err := o.putSetting(ctx, metadata.KeyPhotosUnmetered, only); err != nil {
		return err
	}
	if on, _ := o.setting(ctx, metadata.KeySyncPhotos); on {
		o.reschedulePhotoJob(true)
	}
	return nil
}

func (o *SyncOrchestrator) reschedulePhotoJob(enabled bool) {
	o.mu.Lock()
	if o.photoStop != nil {
		o.photoStop()
		o.photoStop = nil
	}
	if !enabled || o.uploader == nil {
		o.photoState = StateDisabled
		o.mu.Unlock()
		return
	}
	o.photoState = StateEnabled
	loopCtx, cancel := context.WithCancel(context.Background())
	o.photoStop = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go o.photoLoop(loopCtx)
	o.TriggerPhotoSync()
}

// TriggerDataSync enqueues a data sync request. Safe to call repeatedly;
// requests collapse into one pending kick.
func (o *SyncOrchestrator) TriggerDataSync() {
	select {
	case o.dataKick <- struct{}{}:
	default:
	}
}

// TriggerPhotoSync enqueues a photo folder sync request.
func (o *SyncOrchestrator) TriggerPhotoSync() {
	select {
	case o.photoKick <- struct{}{}:
	default:
	}
}

// dataLoop registers the client, then serves sync requests until the
// channel is disabled. Every network step retries with exponential backoff.
func (o *SyncOrchestrator) dataLoop(ctx context.Context) {
	defer o.wg.Done()

	if !o.registerWithRetry(ctx) {
		return
	}

	o.mu.Lock()
	if ctx.Err() != nil {
		// Disabled while registering; the disable path already reset the
		// state, do not overwrite it.
		o.mu.Unlock()
		return
	}
	o.dataState = StateEnabled
	o.mu.Unlock()

	// Initial full sync after (re-)enabling.
	o.TriggerDataSync()

	ticker := time.NewTicker(o.syncInterval)
	defer ticker.Stop()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.dataKick:
		case <-ticker.C:
		}

		if err := o.syncDataOnce(ctx); err != nil {
			attempt++
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.backoff(attempt)):
			}
			o.TriggerDataSync()
			continue
		}
		attempt = 0
	}
}

func (o *SyncOrchestrator) registerWithRetry(ctx context.Context) bool {
	repo := metadata.NewSQLiteRepository(o.db)

	account := ""
	if raw, err := repo.Get(ctx, metadata.KeySessionAccount); err == nil && raw != nil {
		account = string(raw)
	}

	clientID := ""
	if raw, err := repo.Get(ctx, metadata.KeyClientID); err == nil && raw != nil {
		clientID = string(raw)
	}
	if clientID == "" {
		clientID = uuid.NewString()
		if err := repo.Set(ctx, metadata.KeyClientID, []byte(clientID)); err != nil {
			o.log.Error(ctx, "client id persist failed", "error", err)
			return false
		}
	}

	for attempt := 0; ; attempt++ {
		err := o.backend.RegisterClient(ctx, account, clientID)
		if err == nil {
			o.mu.Lock()
			o.account = account
			o.mu.Unlock()
			return true
		}
		o.log.Warn(ctx, "client registration failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(o.backoff(attempt)):
		}
	}
}

// syncDataOnce performs one "everything changed since the last successful
// sync" exchange and advances the stored high-water mark. A returned error
// tells the loop to back off before retrying.
func (o *SyncOrchestrator) syncDataOnce(ctx context.Context) error {
	repo := metadata.NewSQLiteRepository(o.db)

	since := int64(0)
	if raw, err := repo.Get(ctx, metadata.KeyLastSyncVersion); err == nil && raw != nil {
		since, _ = strconv.ParseInt(string(raw), 10, 64)
	}

	version, err := o.backend.SyncData(ctx, since)
	if err != nil {
		o.log.Warn(ctx, "data sync failed", "since", since, "error", err)
		return err
	}

	if err := repo.Set(ctx, metadata.KeyLastSyncVersion, []byte(strconv.FormatInt(version, 10))); err != nil {
		o.log.Error(ctx, "sync version persist failed", "error", err)
	}
	return nil
}

func (o *SyncOrchestrator) photoUploadAllowed() bool {
	raw, err := metadata.NewSQLiteRepository(o.db).Get(context.Background(), metadata.KeyPhotosUnmetered)
	unmeteredOnly := err == nil && string(raw) == "1"
	if !unmeteredOnly {
		return true
	}
	return o.metered == nil || !o.metered()
}

// photoLoop mirrors the photo folder on each kick or tick, honoring the
// unmetered-only constraint.
func (o *SyncOrchestrator) photoLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.photoKick:
		case <-ticker.C:
		}

		if !o.photoUploadAllowed() {
			continue
		}
		if err := o.uploader.SyncAll(ctx); err != nil {
			o.log.Warn(ctx, "photo folder sync failed", "error", err)
		}
	}
}

func (o *SyncOrchestrator) backoff(attempt int) time.Duration {
	const max = 5 * time.Minute
	// The shift overflows int64 well before the cap matters; clamp the
	// exponent first.
	if attempt > 20 {
		return max
	}
	d := o.retryBase << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}

// Stop disables both loops and the change watcher and waits for in-flight
// work to settle.
func (o *SyncOrchestrator) Stop() {
	o.mu.Lock()
	if o.dataStop != nil {
		o.dataStop()
		o.dataStop = nil
	}
	if o.photoStop != nil {
		o.photoStop()
		o.photoStop = nil
	}
	if o.watchStop != nil {
		o.watchStop()
		o.watchStop = nil
	}
	o.dataState = StateDisabled
	o.photoState = StateDisabled
	o.mu.Unlock()
	o.wg.Wait()
}
