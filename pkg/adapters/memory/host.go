package memory

import "sync"

// Push is one tree delivered to the Host.
type Push struct {
	UIID string
	Tree string

	ack  func()
	once *sync.Once
}

// Ack acknowledges the push. Extra calls are ignored.
func (p Push) Ack() {
	p.once.Do(p.ack)
}

// Host implements ports.Host in memory.
// It records every push and, unless configured for manual acks, acknowledges
// it synchronously from inside RenderModal.
type Host struct {
	*Registry

	mu     sync.Mutex
	pushes []Push
	manual bool
	onPush func(Push)
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithManualAck leaves pushes unacknowledged until Push.Ack is called.
func WithManualAck() HostOption {
	return func(h *Host) {
		h.manual = true
	}
}

// WithOnPush installs a callback invoked for each push, before any automatic ack.
func WithOnPush(fn func(Push)) HostOption {
	return func(h *Host) {
		h.onPush = fn
	}
}

// WithRegistry replaces the default registry.
func WithRegistry(r *Registry) HostOption {
	return func(h *Host) {
		h.Registry = r
	}
}

// NewHost creates an in-memory host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		Registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RenderModal records the push and acknowledges it unless acks are manual.
func (h *Host) RenderModal(uiID string, tree string, ack func()) {
	p := Push{UIID: uiID, Tree: tree, ack: ack, once: &sync.Once{}}

	h.mu.Lock()
	h.pushes = append(h.pushes, p)
	onPush := h.onPush
	manual := h.manual
	h.mu.Unlock()

	if onPush != nil {
		onPush(p)
	}
	if !manual {
		p.Ack()
	}
}

// Pushes returns the pushes received for uiID, oldest first.
// An empty uiID returns every push.
func (h *Host) Pushes(uiID string) []Push {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Push
	for _, p := range h.pushes {
		if uiID == "" || p.UIID == uiID {
			out = append(out, p)
		}
	}
	return out
}

// Trees returns the tree strings received for uiID, oldest first.
func (h *Host) Trees(uiID string) []string {
	pushes := h.Pushes(uiID)
	out := make([]string, len(pushes))
	for i, p := range pushes {
		out[i] = p.Tree
	}
	return out
}

// Last returns the most recent push for uiID.
func (h *Host) Last(uiID string) (Push, bool) {
	pushes := h.Pushes(uiID)
	if len(pushes) == 0 {
		return Push{}, false
	}
	return pushes[len(pushes)-1], true
}
