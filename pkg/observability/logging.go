package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pangea/pkg/domain"
)

// LogHooks returns lifecycle hooks writing one log line per event.
// Renders and registrations are logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render",
				"ui_id", e.UIID,
				"component", e.Component,
				"duration", e.Duration,
			)
		},
		OnPush: func(ctx context.Context, e *domain.PushEvent) {
			logger.InfoContext(ctx, "push",
				"ui_id", e.UIID,
				"version", e.Version,
				"size", e.Size,
				"changes", len(e.Changes),
			)
		},
		OnSkip: func(ctx context.Context, e *domain.PushEvent) {
			logger.InfoContext(ctx, "skip", "ui_id", e.UIID, "version", e.Version)
		},
		OnAck: func(ctx context.Context, e *domain.AckEvent) {
			logger.InfoContext(ctx, "ack",
				"ui_id", e.UIID,
				"version", e.Version,
				"latency", e.Latency,
			)
		},
		OnRegister: func(ctx context.Context, e *domain.RegisterEvent) {
			logger.DebugContext(ctx, "register", "ui_id", e.UIID, "prop", e.Prop, "handle", e.Handle)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.ErrorContext(ctx, "update failed", "ui_id", e.UIID, "err", e.Err)
		},
	}
}
