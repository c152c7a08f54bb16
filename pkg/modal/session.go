package modal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pangea/internal/logging"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/ports"
	"github.com/aretw0/pangea/pkg/render"
)

// Session keeps one modal component in sync with the host.
//
// Every state update is queued and processed in order by a single drain
// goroutine, which only exists while the queue is non-empty. A changed tree
// is pushed to the host and the next update waits for the host's ack, so at
// most one push is in flight per session.
type Session struct {
	uiID       string
	component  domain.Component
	props      domain.Props
	host       ports.ModalRenderer
	serializer *render.Serializer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	coalesce   bool
	observer   func(context.Context, domain.Snapshot)
	ctx        context.Context

	mu        sync.Mutex
	state     domain.State
	queue     []update
	running   bool
	closed    bool
	closing   chan struct{}
	delivered *delivered
}

// update is one queued state transition.
type update struct {
	patch domain.State
	done  func()

	// tree is set for the initial render, which happens synchronously in Open.
	tree    *domain.Tree
	encoded render.Encoded
}

// delivered is the last tree the host acknowledged.
type delivered struct {
	tree      *domain.Tree
	encoded   render.Encoded
	version   int
	updatedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithCoalesce merges all updates queued behind an in-flight push into a
// single render pass. Intermediate trees are then never sent.
func WithCoalesce(enabled bool) Option {
	return func(s *Session) {
		s.coalesce = enabled
	}
}

// WithObserver registers a callback invoked after every acknowledged push.
func WithObserver(fn func(context.Context, domain.Snapshot)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithSerializer overrides the serializer built from the host registry.
func WithSerializer(serializer *render.Serializer) Option {
	return func(s *Session) {
		s.serializer = serializer
	}
}

// Open constructs the modal, renders it and queues the initial push.
// props must carry a domain.Container under domain.PropContainer.
//
// Failures of the first render are returned here and nothing is sent.
// done runs once the host has acknowledged the first tree, so the host
// must not make that ack wait on a later update of this session.
func Open(ctx context.Context, host ports.Host, c domain.Component, props domain.Props, done func(), opts ...Option) (*Session, error) {
	container, err := domain.ContainerFrom(props)
	if err != nil {
		return nil, err
	}

	s := &Session{
		uiID:      container.UIID(),
		component: c,
		props:     props,
		host:      host,
		logger:    logging.NewNop(),
		ctx:       context.WithoutCancel(ctx),
		closing:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("ui_id", s.uiID)
	if s.serializer == nil {
		s.serializer = render.NewSerializer(host,
			render.WithLifecycleHooks(s.hooks),
			render.WithLogger(s.logger),
		)
	}

	if init, ok := c.(domain.Initializer); ok {
		s.state = init.InitialState(props)
	}

	tree, err := s.serializer.RenderTree(ctx, s.uiID, c, props, s.state.Clone())
	if err != nil {
		s.logger.Warn("initial render failed", "err", err)
		return nil, err
	}
	encoded, err := render.Encode(tree)
	if err != nil {
		s.release(tree)
		s.logger.Warn("initial render failed", "err", err)
		return nil, err
	}

	s.enqueue(update{tree: tree, encoded: encoded, done: done})

	if m, ok := c.(domain.Mounter); ok {
		m.Mount(s)
	}
	return s, nil
}

// UIID returns the host identifier of the session.
func (s *Session) UIID() string {
	return s.uiID
}

// SetState merges patch into the state and queues a re-render.
// A nil patch re-renders with the current state.
//
// done runs after the resulting tree was acknowledged by the host, or right
// away when the tree did not change. It is never called if the render fails.
func (s *Session) SetState(patch domain.State, done func()) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return domain.ErrSessionClosed
	}

	s.enqueue(update{patch: patch, done: done})
	return nil
}

// State returns a copy of the current component state.
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Snapshot returns the last tree acknowledged by the host.
// The second result is false until the first push was acknowledged.
func (s *Session) Snapshot() (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivered == nil {
		return domain.Snapshot{UIID: s.uiID}, false
	}
	return s.snapshotLocked(), true
}

// Tree returns the last tree acknowledged by the host, or nil.
func (s *Session) Tree() *domain.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivered == nil {
		return nil
	}
	return s.delivered.tree
}

// Close tears the session down. Queued updates are dropped, a pending ack
// is abandoned, and their continuations never run.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.closing)
}

func (s *Session) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		UIID:      s.uiID,
		Version:   s.delivered.version,
		JSON:      s.delivered.encoded.Wire,
		UpdatedAt: s.delivered.updatedAt,
	}
}

func (s *Session) enqueue(u update) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, u)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.drain()
}

// drain processes queued updates until none are left.
func (s *Session) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.closed {
			s.running = false
			s.mu.Unlock()
			return
		}
		batch := s.nextBatchLocked()
		s.mu.Unlock()

		s.process(batch)
	}
}

// nextBatchLocked pops the next update, or with coalescing every queued
// update up to the next initial render.
func (s *Session) nextBatchLocked() []update {
	n := 1
	if s.coalesce && s.queue[0].tree == nil {
		for n < len(s.queue) && s.queue[n].tree == nil {
			n++
		}
	}
	batch := make([]update, n)
	copy(batch, s.queue[:n])
	s.queue = s.queue[n:]
	return batch
}

func (s *Session) process(batch []update) {
	tree, encoded := batch[0].tree, batch[0].encoded
	if tree == nil {
		s.mu.Lock()
		for _, u := range batch {
			s.state = s.state.Merge(u.patch)
		}
		state := s.state.Clone()
		s.mu.Unlock()

		var err error
		tree, err = s.serializer.RenderTree(s.ctx, s.uiID, s.component, s.props, state)
		if err != nil {
			s.fail(err)
			return
		}
		encoded, err = render.Encode(tree)
		if err != nil {
			s.release(tree)
			s.fail(err)
			return
		}
	}

	s.mu.Lock()
	prev := s.delivered
	s.mu.Unlock()

	version := 1
	if prev != nil {
		version = prev.version + 1
		if prev.encoded.Wire == encoded.Wire {
			s.logger.Debug("tree unchanged, skipping push", "version", prev.version)
			if s.hooks.OnSkip != nil {
				s.hooks.OnSkip(s.ctx, &domain.PushEvent{
					EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSkip, UIID: s.uiID},
					Version:   prev.version,
					Size:      len(encoded.Wire),
				})
			}
			resolve(batch)
			return
		}
	}

	var prevTree *domain.Tree
	if prev != nil {
		prevTree = prev.tree
	}
	changes := domain.DiffTrees(prevTree, tree)

	if s.hooks.OnPush != nil {
		s.hooks.OnPush(s.ctx, &domain.PushEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPush, UIID: s.uiID},
			Version:   version,
			Size:      len(encoded.Wire),
			Changes:   changes,
		})
	}
	s.logger.Debug("pushing tree", "version", version, "size", len(encoded.Wire), "changes", len(changes))

	sent := time.Now()
	if !s.push(encoded.Wire) {
		s.logger.Debug("session closed while waiting for ack", "version", version)
		return
	}

	s.mu.Lock()
	s.delivered = &delivered{
		tree:      tree,
		encoded:   encoded,
		version:   version,
		updatedAt: time.Now(),
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if prev != nil {
		s.release(prev.tree)
	}

	if s.hooks.OnAck != nil {
		s.hooks.OnAck(s.ctx, &domain.AckEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAck, UIID: s.uiID},
			Version:   version,
			Latency:   time.Since(sent),
		})
	}
	if s.observer != nil {
		s.observer(s.ctx, snap)
	}

	resolve(batch)
}

// push hands the tree to the host and blocks until it is acknowledged.
// It returns false if the session was closed first.
func (s *Session) push(wire string) bool {
	acked := make(chan struct{})
	var once sync.Once
	s.host.RenderModal(s.uiID, wire, func() {
		once.Do(func() { close(acked) })
	})

	select {
	case <-acked:
		return true
	case <-s.closing:
		return false
	}
}

// release drops the function handles of a tree the host no longer shows.
func (s *Session) release(tree *domain.Tree) {
	r, ok := s.host.(ports.HandleReleaser)
	if !ok || tree == nil {
		return
	}
	for _, h := range tree.Handles() {
		r.Release(h)
	}
}

func (s *Session) fail(err error) {
	s.logger.Error("modal update failed", "err", err)
	if s.hooks.OnError != nil {
		s.hooks.OnError(s.ctx, &domain.ErrorEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventError, UIID: s.uiID},
			Err:       err,
		})
	}
}

func resolve(batch []update) {
	for _, u := range batch {
		if u.done != nil {
			u.done()
		}
	}
}
