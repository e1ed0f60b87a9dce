package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebookapp/tastebook/internal/backend"
	"github.com/tastebookapp/tastebook/internal/models"
	"github.com/tastebookapp/tastebook/internal/repositories/metadata"
	"github.com/tastebookapp/tastebook/internal/repositories/notify"
)

// fakeBackend counts calls and serves canned responses. A non-nil
// registerGate blocks registrations until the channel is closed; a non-nil
// syncErr makes every data sync fail.
type fakeBackend struct {
	registerGate chan struct{}

	mu            sync.Mutex
	registrations int
	syncs         int
	registerErrs  int
	syncErr       error
	version       int64
	lastSince     int64
}

func (f *fakeBackend) RegisterClient(ctx context.Context, accountID, clientID string) error {
	if f.registerGate != nil {
		<-f.registerGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registrations++
	if f.registerErrs > 0 {
		f.registerErrs--
		return assert.AnError
	}
	return nil
}

func (f *fakeBackend) SyncData(ctx context.Context, sinceVersion int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	f.lastSince = sinceVersion
	if f.syncErr != nil {
		return 0, f.syncErr
	}
	f.version++
	return f.version, nil
}

func (f *fakeBackend) SignIn(ctx context.Context, provider, providerToken string) (*backend.Credential, error) {
	return nil, assert.AnError
}

func (f *fakeBackend) SignUp(ctx context.Context, identifier string, secret []byte) (*backend.Credential, error) {
	return nil, assert.AnError
}

func (f *fakeBackend) SignOut(ctx context.Context, token string) error { return nil }
func (f *fakeBackend) SetToken(token string)                           {}
func (f *fakeBackend) Close() error                                    { return nil }

func (f *fakeBackend) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registrations, f.syncs
}

// fakeUploader records mirror calls.
type fakeUploader struct {
	syncAlls atomic.Int32
	puts     atomic.Int32
}

func (f *fakeUploader) SyncAll(ctx context.Context) error {
	f.syncAlls.Add(1)
	return nil
}

func (f *fakeUploader) PutIfAbsent(ctx context.Context, p models.Photo) error {
	f.puts.Add(1)
	return nil
}

func newOrchestrator(t *testing.T, be backend.Client, up Uploader, metered func() bool) (*SyncOrchestrator, *notify.Hub, *metadata.SQLiteRepository) {
	t.Helper()
	db := setupDB(t)
	hub := notify.NewHub()
	o := NewSyncOrchestrator(db, be, up, hub, metered, 50*time.Millisecond, testLogger())
	o.retryBase = time.Millisecond
	t.Cleanup(o.Stop)
	return o, hub, metadata.NewSQLiteRepository(db)
}

func TestSetDataSync_EnableRegistersOnce(t *testing.T) {
	be := &fakeBackend{}
	o, _, _ := newOrchestrator(t, be, nil, nil)
	ctx := context.Background()

	require.NoError(t, o.SetDataSync(ctx, true))
	// Second enable while registering or enabled is a no-op.
	require.NoError(t, o.SetDataSync(ctx, true))

	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)

	regs, _ := be.counts()
	assert.Equal(t, 1, regs)
}

func TestSetDataSync_RegistrationRetriesWithBackoff(t *testing.T) {
	be := &fakeBackend{registerErrs: 2}
	o, _, _ := newOrchestrator(t, be, nil, nil)

	require.NoError(t, o.SetDataSync(context.Background(), true))

	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)

	regs, _ := be.counts()
	assert.Equal(t, 3, regs)
}

func TestSetDataSync_PersistsSettingAndRestores(t *testing.T) {
	be := &fakeBackend{}
	o, _, repo := newOrchestrator(t, be, nil, nil)
	ctx := context.Background()

	require.NoError(t, o.SetDataSync(ctx, true))
	v, err := repo.Get(ctx, metadata.KeySyncData)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, o.SetDataSync(ctx, false))
	assert.Equal(t, StateDisabled, o.State(ChannelData))
	v, err = repo.Get(ctx, metadata.KeySyncData)
	require.NoError(t, err)
	assert.Equal(t, []byte("0"), v)
}

func TestDataSync_AdvancesHighWaterMark(t *testing.T) {
	be := &fakeBackend{version: 41}
	o, _, repo := newOrchestrator(t, be, nil, nil)
	ctx := context.Background()

	require.NoError(t, o.SetDataSync(ctx, true))

	require.Eventually(t, func() bool {
		v, err := repo.Get(ctx, metadata.KeyLastSyncVersion)
		return err == nil && string(v) == "42"
	}, time.Second, 5*time.Millisecond)
}

func TestDataSync_ClientIDGeneratedOnce(t *testing.T) {
	be := &fakeBackend{}
	o, _, repo := newOrchestrator(t, be, nil, nil)
	ctx := context.Background()

	require.NoError(t, o.SetDataSync(ctx, true))
	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)

	first, err := repo.Get(ctx, metadata.KeyClientID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Toggling off and on keeps the same device identity.
	require.NoError(t, o.SetDataSync(ctx, false))
	require.NoError(t, o.SetDataSync(ctx, true))
	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)

	second, err := repo.Get(ctx, metadata.KeyClientID)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestEntryEvents_TriggerDataSync(t *testing.T) {
	be := &fakeBackend{}
	o, hub, _ := newOrchestrator(t, be, nil, nil)
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.SetDataSync(ctx, true))
	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)

	_, before := be.counts()
	hub.Publish(notify.Event{Path: "entries", Op: notify.OpInsert, ID: 1})

	require.Eventually(t, func() bool {
		_, after := be.counts()
		return after > before
	}, time.Second, 5*time.Millisecond)
}

func TestStop_ReturnsAfterStart(t *testing.T) {
	be := &fakeBackend{}
	o, _, _ := newOrchestrator(t, be, nil, nil)
	require.NoError(t, o.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		o.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; change watcher still running")
	}
}

func TestDataSync_FailuresBackOff(t *testing.T) {
	be := &fakeBackend{syncErr: assert.AnError}
	o, _, _ := newOrchestrator(t, be, nil, nil)
	o.retryBase = 20 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, o.SetDataSync(ctx, true))
	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)

	// With every exchange failing, retries must be paced by the backoff,
	// not spun on the kick channel.
	time.Sleep(500 * time.Millisecond)
	_, syncs := be.counts()
	assert.GreaterOrEqual(t, syncs, 1)
	assert.Less(t, syncs, 15)
}

func TestSetDataSync_DisableDuringRegistrationWins(t *testing.T) {
	gate := make(chan struct{})
	be := &fakeBackend{registerGate: gate}
	o, _, _ := newOrchestrator(t, be, nil, nil)
	ctx := context.Background()

	require.NoError(t, o.SetDataSync(ctx, true))
	require.NoError(t, o.SetDataSync(ctx, false))
	assert.Equal(t, StateDisabled, o.State(ChannelData))

	// The registration now completes, but the channel was disabled while it
	// was in flight; the loop must not resurrect it.
	close(gate)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateDisabled, o.State(ChannelData))

	// And a later enable still brings it up.
	require.NoError(t, o.SetDataSync(ctx, true))
	require.Eventually(t, func() bool {
		return o.State(ChannelData) == StateEnabled
	}, time.Second, 5*time.Millisecond)
}

func TestBackoff_CapsLargeAttempts(t *testing.T) {
	o := &SyncOrchestrator{retryBase: time.Second}

	assert.Equal(t, 2*time.Second, o.backoff(1))
	assert.Equal(t, 5*time.Minute, o.backoff(20))
	// Attempts past the shift range must not wrap negative.
	assert.Equal(t, 5*time.Minute, o.backoff(40))
	assert.Equal(t, 5*time.Minute, o.backoff(63))
	assert.Equal(t, 5*time.Minute, o.backoff(100))
}

func TestPhotoChannel_RunsFolderSync(t *testing.T) {
	be := &fakeBackend{}
	up := &fakeUploader{}
	o, _, _ := newOrchestrator(t, be, up, nil)
	ctx := context.Background()

	require.NoError(t, o.SetPhotoSync(ctx, true))
	assert.Equal(t, StateEnabled, o.State(ChannelPhotos))

	require.Eventually(t, func() bool {
		return up.syncAlls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, o.SetPhotoSync(ctx, false))
	assert.Equal(t, StateDisabled, o.State(ChannelPhotos))
}

func TestPhotoChannel_NilUploaderStaysDisabled(t *testing.T) {
	be := &fakeBackend{}
	o, _, _ := newOrchestrator(t, be, nil, nil)

	require.NoError(t, o.SetPhotoSync(context.Background(), true))
	assert.Equal(t, StateDisabled, o.State(ChannelPhotos))
}

func TestUnmeteredOnly_BlocksUploadsOnMeteredNetwork(t *testing.T) {
	be := &fakeBackend{}
	up := &fakeUploader{}
	metered := func() bool { return true }
	o, hub, _ := newOrchestrator(t, be, up, metered)
	ctx := context.Background()

	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.SetPhotosUnmeteredOnly(ctx, true))
	require.NoError(t, o.SetPhotoSync(ctx, true))

	hub.Publish(notify.Event{Path: "photos", Op: notify.OpInsert, ID: 1})

	// Give the loops a few intervals; nothing may be uploaded.
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, up.syncAlls.Load())
	assert.Zero(t, up.puts.Load())

	// Lifting the constraint lets the folder sync through.
	require.NoError(t, o.SetPhotosUnmeteredOnly(ctx, false))
	require.Eventually(t, func() bool {
		return up.syncAlls.Load() >= 1
	}, time.Second, 5*time.Millisecond)
}
