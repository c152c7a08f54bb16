package pangea

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/pangea/internal/logging"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/modal"
	"github.com/aretw0/pangea/pkg/ports"
	"github.com/aretw0/pangea/pkg/render"
	"github.com/aretw0/pangea/pkg/session"
)

// ErrNoHost is returned by New without a host.
var ErrNoHost = errors.New("pangea: host is required")

// MessageRenderer turns the payload of a typed message into the component
// and props to render.
type MessageRenderer func(ctx context.Context, payload map[string]any) (domain.Component, domain.Props, error)

// SDK is the high-level entry point for DApps. It renders messages and
// opens modal sessions against one host.
type SDK struct {
	host       ports.Host
	serializer *render.Serializer
	sessions   *session.Manager
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	store    ports.SnapshotStore
	coalesce bool
	locker   ports.DistributedLocker
	lockTTL  time.Duration

	mu        sync.RWMutex
	renderers map[string]MessageRenderer
}

// Option defines a functional option for configuring the SDK.
type Option func(*SDK)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SDK) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks for messages and modals.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *SDK) {
		s.hooks = hooks
	}
}

// WithSnapshotStore persists the last delivered tree of every modal.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(s *SDK) {
		s.store = store
	}
}

// WithCoalesce merges updates queued behind an in-flight push.
func WithCoalesce(enabled bool) Option {
	return func(s *SDK) {
		s.coalesce = enabled
	}
}

// WithLocker serializes modal opening and teardown across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *SDK) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// New creates an SDK bound to host.
func New(host ports.Host, opts ...Option) (*SDK, error) {
	if host == nil {
		return nil, ErrNoHost
	}

	s := &SDK{
		host:      host,
		logger:    logging.NewNop(),
		renderers: make(map[string]MessageRenderer),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.serializer = render.NewSerializer(host,
		render.WithLifecycleHooks(s.hooks),
		render.WithLogger(s.logger),
	)

	managerOpts := []session.Option{
		session.WithLogger(s.logger),
		session.WithSessionOptions(
			modal.WithLogger(s.logger),
			modal.WithLifecycleHooks(s.hooks),
			modal.WithCoalesce(s.coalesce),
			modal.WithSerializer(s.serializer),
		),
	}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker, s.lockTTL))
	}
	s.sessions = session.NewManager(s.store, managerOpts...)

	return s, nil
}

// RenderMessage renders a stateless component once and hands the tree to cb.
func (s *SDK) RenderMessage(ctx context.Context, c domain.Component, props domain.Props, cb func(*domain.Tree)) error {
	return s.serializer.RenderMessage(ctx, c, props, cb)
}

// RenderModal opens a modal session. props must carry a domain.Container
// under domain.PropContainer; done runs once the first tree is acknowledged.
func (s *SDK) RenderModal(ctx context.Context, c domain.Component, props domain.Props, done func()) (*modal.Session, error) {
	return s.sessions.Open(ctx, s.host, c, props, done)
}

// NewModalUIID allocates a fresh modal UI identifier.
func (s *SDK) NewModalUIID() string {
	return domain.NewContainer().UIID()
}

// ModalProps returns a copy of props addressed to uiID.
func ModalProps(uiID string, props domain.Props) domain.Props {
	out := props.Without()
	out[domain.PropContainer] = domain.ContainerFor(uiID)
	return out
}

// SetMessageRenderer registers r for messages of msgType, replacing any
// previous renderer. A nil r removes it.
func (s *SDK) SetMessageRenderer(msgType string, r MessageRenderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		delete(s.renderers, msgType)
		return
	}
	s.renderers[msgType] = r
}

// MessageTypes returns the registered message types, sorted.
func (s *SDK) MessageTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.renderers))
	for t := range s.renderers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// RenderMessageType renders a message through the renderer registered for msgType.
func (s *SDK) RenderMessageType(ctx context.Context, msgType string, payload map[string]any, cb func(*domain.Tree)) error {
	s.mu.RLock()
	r, ok := s.renderers[msgType]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMessageType, msgType)
	}

	c, props, err := r(ctx, payload)
	if err != nil {
		return fmt.Errorf("message renderer %q: %w", msgType, err)
	}
	return s.RenderMessage(ctx, c, props, cb)
}

// Sessions returns the registry of live modal sessions.
func (s *SDK) Sessions() *session.Manager {
	return s.sessions
}

// Close closes every live modal session.
func (s *SDK) Close() {
	s.sessions.Close()
}
