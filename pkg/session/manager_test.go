package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/pangea/pkg/adapters/memory"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/modal"
	"github.com/aretw0/pangea/pkg/ports"
	"github.com/aretw0/pangea/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterModal renders state["count"] as a single Text element.
type counterModal struct{}

func (counterModal) InitialState(props domain.Props) domain.State {
	return domain.State{"count": 0}
}

func (counterModal) Render(props domain.Props, state domain.State) (domain.Node, error) {
	return domain.El("Text", nil, domain.Number(state["count"].(int))), nil
}

// failingStore rejects every write.
type failingStore struct {
	*memory.Store
}

func (failingStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	return errors.New("disk full")
}

func open(t *testing.T, mgr *session.Manager, host *memory.Host, uiID string) *modal.Session {
	t.Helper()
	done := make(chan struct{})
	s, err := mgr.Open(context.Background(), host, counterModal{},
		domain.Props{domain.PropContainer: domain.ContainerFor(uiID)},
		func() { close(done) })
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("initial push was not acknowledged")
	}
	return s
}

func bump(t *testing.T, s *modal.Session, n int) {
	t.Helper()
	done := make(chan struct{})
	require.NoError(t, s.SetState(domain.State{"count": n}, func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("update was not acknowledged")
	}
}

func TestManager_OpenAndGet(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	defer mgr.Close()
	host := memory.NewHost()

	s := open(t, mgr, host, "ui-1")

	got, err := mgr.Get("ui-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = mgr.Get("ui-unknown")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_PersistsSnapshots(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	defer mgr.Close()
	host := memory.NewHost()

	s := open(t, mgr, host, "ui-2")
	bump(t, s, 5)

	snap, err := store.Load(context.Background(), "ui-2")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, `{"props":{},"children":[{"type":"Text","props":{},"children":5}]}`, snap.JSON)
}

func TestManager_SnapshotFallsBackToStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Snapshot{UIID: "ui-old", Version: 7, JSON: `{"props":{},"children":[]}`}))

	mgr := session.NewManager(store)
	snap, err := mgr.Snapshot(ctx, "ui-old")
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Version)

	_, err = mgr.Snapshot(ctx, "ui-missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_ReplaceClosesPrevious(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	defer mgr.Close()
	host := memory.NewHost()

	first := open(t, mgr, host, "ui-3")
	second := open(t, mgr, host, "ui-3")

	assert.NotSame(t, first, second)
	assert.ErrorIs(t, first.SetState(domain.State{"count": 1}, nil), domain.ErrSessionClosed)
	assert.Equal(t, []string{"ui-3"}, mgr.List())
}

func TestManager_Discard(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	host := memory.NewHost()
	ctx := context.Background()

	s := open(t, mgr, host, "ui-4")
	require.NoError(t, mgr.Discard(ctx, "ui-4"))

	assert.Empty(t, mgr.List())
	assert.ErrorIs(t, s.SetState(domain.State{"count": 1}, nil), domain.ErrSessionClosed)
	_, err := store.Load(ctx, "ui-4")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_DiscardUnknownWithoutStore(t *testing.T) {
	mgr := session.NewManager(nil)
	assert.ErrorIs(t, mgr.Discard(context.Background(), "ui-none"), domain.ErrSessionNotFound)
}

func TestManager_OpenFailureLeavesNoSession(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	host := memory.NewHost()

	failing := domain.ComponentFunc(func(props domain.Props, state domain.State) (domain.Node, error) {
		return nil, errors.New("broken")
	})
	_, err := mgr.Open(context.Background(), host, failing,
		domain.Props{domain.PropContainer: domain.ContainerFor("ui-5")}, nil)

	assert.ErrorIs(t, err, domain.ErrRender)
	assert.Empty(t, mgr.List())
}

func TestManager_SaveFailureIsNotFatal(t *testing.T) {
	mgr := session.NewManager(failingStore{memory.NewStore()})
	defer mgr.Close()
	host := memory.NewHost()

	s := open(t, mgr, host, "ui-6")
	bump(t, s, 1)

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Version)
}

func TestManager_ConcurrentSessions(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	defer mgr.Close()
	host := memory.NewHost()

	ids := []string{"ui-a", "ui-b", "ui-c", "ui-d"}
	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Open(context.Background(), host, counterModal{},
				domain.Props{domain.PropContainer: domain.ContainerFor(id)}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, ids, mgr.List())
}

// recordingLocker counts lock acquisitions and releases.
type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	err      error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, key)
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker, 0))
	host := memory.NewHost()

	open(t, mgr, host, "ui-7")
	require.NoError(t, mgr.Discard(context.Background(), "ui-7"))

	assert.Equal(t, []string{"ui-7", "ui-7"}, locker.locked)
	assert.Equal(t, 2, locker.unlocked)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &recordingLocker{err: errors.New("redis down")}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker, time.Second))

	_, err := mgr.Open(context.Background(), memory.NewHost(), counterModal{},
		domain.Props{domain.PropContainer: domain.ContainerFor("ui-8")}, nil)
	assert.ErrorContains(t, err, "redis down")
	assert.Empty(t, mgr.List())
}
