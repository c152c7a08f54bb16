package http

import (
	"log/slog"
	"sync"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// StreamManager fans events out to SSE subscribers, keyed by UI identifier.
// Subscribers of the empty identifier receive every event.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for uiID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(uiID string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 16)
	if _, ok := sm.subscribers[uiID]; !ok {
		sm.subscribers[uiID] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[uiID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[uiID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, uiID)
				}
			}
		})
	}
}

// Subscribers returns the number of subscribers for uiID.
func (sm *StreamManager) Subscribers(uiID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[uiID])
}

// Broadcast sends ev to the subscribers of uiID and to global subscribers.
// Slow subscribers whose buffer is full miss the event.
func (sm *StreamManager) Broadcast(uiID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("broadcasting event", "ui_id", uiID, "event", ev.Name, "payload_size", len(ev.Data))

	targets := []string{uiID}
	if uiID != "" {
		targets = append(targets, "")
	}
	for _, id := range targets {
		for ch := range sm.subscribers[id] {
			select {
			case ch <- ev:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping event", "ui_id", uiID, "event", ev.Name)
			}
		}
	}
}
