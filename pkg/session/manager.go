package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/pangea/internal/logging"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/modal"
	"github.com/aretw0/pangea/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// liveSession is a registered modal session. session is nil while Open is
// still running.
type liveSession struct {
	session *modal.Session
}

// Manager keeps track of the modal sessions a process serves, addressed by
// UI identifier, and persists the last delivered tree of each one.
//
// Operations on the same UI identifier are serialized. Locks are reference
// counted and dropped once unused.
type Manager struct {
	store ports.SnapshotStore

	mu       sync.Mutex            // Global lock for the maps
	locks    map[string]*lockEntry // Map of active locks
	sessions map[string]*liveSession

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration

	opts   []modal.Option
	logger *slog.Logger
}

// DefaultLockTTL bounds how long a crashed replica can hold a UI identifier.
const DefaultLockTTL = 30 * time.Second

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLocker serializes Open and Discard across replicas. A zero ttl
// selects DefaultLockTTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		m.lockTTL = ttl
		if m.lockTTL <= 0 {
			m.lockTTL = DefaultLockTTL
		}
	}
}

// WithSessionOptions sets options applied to every session the Manager opens.
func WithSessionOptions(opts ...modal.Option) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// NewManager creates a Manager persisting snapshots to store.
// A nil store disables persistence.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*liveSession),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(uiID) after unlocking.
func (m *Manager) acquire(uiID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[uiID]
	if !exists {
		entry = &lockEntry{}
		m.locks[uiID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(uiID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[uiID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, uiID)
	}
}

// WithLock executes fn while holding the lock for uiID, and the distributed
// lock when a locker is configured.
func (m *Manager) WithLock(ctx context.Context, uiID string, fn func(context.Context) error) error {
	entry := m.acquire(uiID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(uiID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, uiID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"ui_id", uiID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Open starts a modal session and registers it under the UI identifier of
// the container in props. A live session already registered under the same
// identifier is closed and replaced.
func (m *Manager) Open(ctx context.Context, host ports.Host, c domain.Component, props domain.Props, done func(), opts ...modal.Option) (*modal.Session, error) {
	container, err := domain.ContainerFrom(props)
	if err != nil {
		return nil, err
	}
	uiID := container.UIID()

	var s *modal.Session
	err = m.WithLock(ctx, uiID, func(ctx context.Context) error {
		live := &liveSession{}

		m.mu.Lock()
		prev := m.sessions[uiID]
		m.sessions[uiID] = live
		m.mu.Unlock()

		if prev != nil && prev.session != nil {
			m.logger.Warn("replacing live modal session", "ui_id", uiID)
			prev.session.Close()
		}

		all := make([]modal.Option, 0, len(m.opts)+len(opts)+1)
		all = append(all, m.opts...)
		all = append(all, opts...)
		all = append(all, modal.WithObserver(m.persister(live)))

		var err error
		s, err = modal.Open(ctx, host, c, props, done, all...)
		if err != nil {
			m.forget(uiID, live)
			return err
		}

		m.mu.Lock()
		live.session = s
		m.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("modal session opened", "ui_id", uiID)
	return s, nil
}

// persister returns the observer saving snapshots of live while it stays registered.
func (m *Manager) persister(live *liveSession) func(context.Context, domain.Snapshot) {
	return func(ctx context.Context, snap domain.Snapshot) {
		if m.store == nil {
			return
		}

		m.mu.Lock()
		current := m.sessions[snap.UIID] == live
		m.mu.Unlock()
		if !current {
			return
		}

		if err := m.store.Save(ctx, &snap); err != nil {
			m.logger.Warn("failed to persist modal snapshot",
				"ui_id", snap.UIID,
				"version", snap.Version,
				"err", err,
			)
		}
	}
}

func (m *Manager) forget(uiID string, live *liveSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[uiID] == live {
		delete(m.sessions, uiID)
	}
}

// Get returns the live session for uiID.
func (m *Manager) Get(uiID string) (*modal.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live, ok := m.sessions[uiID]
	if !ok || live.session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, uiID)
	}
	return live.session, nil
}

// List returns the UI identifiers of all live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id, live := range m.sessions {
		if live.session != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the last tree delivered for uiID. Live sessions answer
// directly; otherwise the snapshot store is consulted, which lets a restarted
// process report trees delivered before the restart.
func (m *Manager) Snapshot(ctx context.Context, uiID string) (*domain.Snapshot, error) {
	if s, err := m.Get(uiID); err == nil {
		if snap, ok := s.Snapshot(); ok {
			return &snap, nil
		}
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, uiID)
	}
	return m.store.Load(ctx, uiID)
}

// Discard closes the session for uiID and removes its snapshot.
// It is called when the host stops addressing a modal.
func (m *Manager) Discard(ctx context.Context, uiID string) error {
	return m.WithLock(ctx, uiID, func(ctx context.Context) error {
		m.mu.Lock()
		live, ok := m.sessions[uiID]
		delete(m.sessions, uiID)
		m.mu.Unlock()

		if ok && live.session != nil {
			live.session.Close()
		}

		if m.store == nil {
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, uiID)
			}
			return nil
		}

		return m.store.Delete(ctx, uiID)
	})
}

// Close closes every live session. Snapshots are kept.
func (m *Manager) Close() {
	m.mu.Lock()
	var open []*modal.Session
	for _, live := range m.sessions {
		if live.session != nil {
			open = append(open, live.session)
		}
	}
	m.sessions = make(map[string]*liveSession)
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}
