package ports

import (
	"context"

	"github.com/aretw0/pangea/pkg/domain"
)

// SnapshotStore persists the last tree delivered to the host for each modal.
// This allows inspection and recovery of what a host currently displays.
type SnapshotStore interface {
	// Save persists the snapshot under its UI identifier.
	Save(ctx context.Context, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a UI identifier.
	// Returns domain.ErrSessionNotFound if none exists.
	Load(ctx context.Context, uiID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a UI identifier.
	Delete(ctx context.Context, uiID string) error

	// List returns the UI identifiers with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
