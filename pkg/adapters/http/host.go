package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/pangea/internal/logging"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/ports"
	"github.com/google/uuid"
)

// Event names on the SSE stream.
const (
	EventPing   = "ping"
	EventRender = "render"
	EventDiff   = "diff"
)

// RenderPayload is the data of a render event. The client displays Tree and
// then acknowledges with POST /modals/{ui_id}/ack/{ack_id}.
type RenderPayload struct {
	UIID  string          `json:"ui_id"`
	AckID string          `json:"ack_id"`
	Tree  json.RawMessage `json:"tree"`
}

// DiffPayload is the data of a diff event, sent ahead of the render it describes.
type DiffPayload struct {
	UIID    string          `json:"ui_id"`
	Version int             `json:"version"`
	Changes domain.TreeDiff `json:"changes"`
}

type pendingAck struct {
	uiID  string
	ack   func()
	event Event
}

// Host implements ports.Host for clients connected over HTTP.
// Trees are streamed as SSE render events; acks arrive as POST requests.
type Host struct {
	registry ports.FunctionRegistry
	streams  *StreamManager
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingAck
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost creates a Host registering functions with registry.
func NewHost(registry ports.FunctionRegistry, opts ...HostOption) *Host {
	h := &Host{
		registry: registry,
		logger:   logging.NewNop(),
		pending:  make(map[string]pendingAck),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.streams = NewStreamManager(h.logger)
	return h
}

// Streams returns the SSE fan-out used by the Host.
func (h *Host) Streams() *StreamManager {
	return h.streams
}

// RegisterFunction delegates to the registry.
func (h *Host) RegisterFunction(fn any) (domain.Handle, error) {
	return h.registry.RegisterFunction(fn)
}

// Release forwards to the registry when it supports releasing handles.
func (h *Host) Release(handle domain.Handle) {
	if r, ok := h.registry.(ports.HandleReleaser); ok {
		r.Release(handle)
	}
}

// RenderModal parks ack under a fresh ack id and broadcasts the tree.
func (h *Host) RenderModal(uiID string, tree string, ack func()) {
	ackID := uuid.NewString()

	data, err := encode(RenderPayload{UIID: uiID, AckID: ackID, Tree: json.RawMessage(tree)})
	if err != nil {
		// Only reachable when tree is not valid JSON.
		h.logger.Error("failed to encode render event", "ui_id", uiID, "err", err)
		return
	}
	ev := Event{Name: EventRender, Data: data}

	h.mu.Lock()
	h.pending[ackID] = pendingAck{uiID: uiID, ack: ack, event: ev}
	h.mu.Unlock()

	h.streams.Broadcast(uiID, ev)
}

// Replay returns the render events still awaiting an ack, for uiID or for
// every modal when uiID is empty. Late subscribers use it to catch up.
func (h *Host) Replay(uiID string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Event
	for _, p := range h.pending {
		if uiID == "" || p.uiID == uiID {
			out = append(out, p.event)
		}
	}
	return out
}

// Ack resolves a pending push. It reports false for unknown or mismatched ids.
func (h *Host) Ack(uiID, ackID string) bool {
	h.mu.Lock()
	p, ok := h.pending[ackID]
	if ok && p.uiID == uiID {
		delete(h.pending, ackID)
	}
	h.mu.Unlock()

	if !ok || p.uiID != uiID {
		return false
	}
	p.ack()
	return true
}

// Pending returns the number of pushes awaiting an ack for uiID.
func (h *Host) Pending(uiID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, p := range h.pending {
		if p.uiID == uiID {
			n++
		}
	}
	return n
}

// Forget drops pending acks for uiID. The sessions waiting on them stay stalled
// until closed.
func (h *Host) Forget(uiID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, p := range h.pending {
		if p.uiID == uiID {
			delete(h.pending, id)
		}
	}
}

// Hooks streams the structural diff of every push as a diff event.
func (h *Host) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPush: func(ctx context.Context, e *domain.PushEvent) {
			data, err := encode(DiffPayload{UIID: e.UIID, Version: e.Version, Changes: e.Changes})
			if err != nil {
				h.logger.Warn("failed to encode diff event", "ui_id", e.UIID, "err", err)
				return
			}
			h.streams.Broadcast(e.UIID, Event{Name: EventDiff, Data: data})
		},
	}
}

// encode marshals v on one line without HTML escaping.
func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
