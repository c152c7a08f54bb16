package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender   EventType = "render"
	EventPush     EventType = "push"
	EventSkip     EventType = "skip"
	EventAck      EventType = "ack"
	EventRegister EventType = "register"
	EventError    EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	UIID      string    `json:"ui_id,omitempty"` // Empty for messages
}

// RenderEvent reports one completed render pass.
type RenderEvent struct {
	EventBase
	Component string        `json:"component"`
	Duration  time.Duration `json:"duration"`
}

// PushEvent reports a tree sent to the host, or skipped because it was unchanged.
type PushEvent struct {
	EventBase
	Version int      `json:"version"`
	Size    int      `json:"size"`
	Changes TreeDiff `json:"changes,omitempty"`
}

// AckEvent reports a host acknowledgment.
type AckEvent struct {
	EventBase
	Version int           `json:"version"`
	Latency time.Duration `json:"latency"`
}

// RegisterEvent reports a function prop replaced by a handle.
type RegisterEvent struct {
	EventBase
	Prop   string `json:"prop"`
	Handle Handle `json:"handle"`
}

// ErrorEvent reports a failure that has no synchronous caller to return to.
type ErrorEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for renderer observability.
type LifecycleHooks struct {
	OnRender   func(context.Context, *RenderEvent)
	OnPush     func(context.Context, *PushEvent)
	OnSkip     func(context.Context, *PushEvent)
	OnAck      func(context.Context, *AckEvent)
	OnRegister func(context.Context, *RegisterEvent)
	OnError    func(context.Context, *ErrorEvent)
}

// ChainHooks returns hooks that call each of the given hooks in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRender: func(ctx context.Context, e *RenderEvent) {
			for _, h := range hooks {
				if h.OnRender != nil {
					h.OnRender(ctx, e)
				}
			}
		},
		OnPush: func(ctx context.Context, e *PushEvent) {
			for _, h := range hooks {
				if h.OnPush != nil {
					h.OnPush(ctx, e)
				}
			}
		},
		OnSkip: func(ctx context.Context, e *PushEvent) {
			for _, h := range hooks {
				if h.OnSkip != nil {
					h.OnSkip(ctx, e)
				}
			}
		},
		OnAck: func(ctx context.Context, e *AckEvent) {
			for _, h := range hooks {
				if h.OnAck != nil {
					h.OnAck(ctx, e)
				}
			}
		},
		OnRegister: func(ctx context.Context, e *RegisterEvent) {
			for _, h := range hooks {
				if h.OnRegister != nil {
					h.OnRegister(ctx, e)
				}
			}
		},
		OnError: func(ctx context.Context, e *ErrorEvent) {
			for _, h := range hooks {
				if h.OnError != nil {
					h.OnError(ctx, e)
				}
			}
		},
	}
}
