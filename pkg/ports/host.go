package ports

import (
	"context"

	"github.com/aretw0/pangea/pkg/domain"
)

// FunctionRegistry assigns handles to function-valued props.
// Implementations must be safe for concurrent use and never return the
// same handle twice during the process lifetime.
type FunctionRegistry interface {
	RegisterFunction(fn any) (domain.Handle, error)
}

// HandleReleaser is implemented by registries that can forget handles.
// A modal session releases the handles of a tree once the host replaced it.
type HandleReleaser interface {
	Release(h domain.Handle)
}

// ModalRenderer receives serialized modal trees.
type ModalRenderer interface {
	// RenderModal delivers tree (a JSON string) for uiID.
	// The host must call ack exactly once after processing it, from any goroutine.
	//
	// The next update of the session waits for this ack. Calling ack must
	// therefore not depend on a later update of the same session, such as
	// passing ack as the continuation of a SetState issued from RenderModal.
	// That session would block forever.
	RenderModal(uiID string, tree string, ack func())
}

// Host is the full call surface the renderer consumes from its host runtime.
type Host interface {
	FunctionRegistry
	ModalRenderer
}

// HandleAllocator hands out unique handle numbers.
type HandleAllocator interface {
	Next(ctx context.Context) (domain.Handle, error)
}
