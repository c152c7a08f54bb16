package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pangea/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs the standard compliance tests against a SnapshotStore implementation.
// All adapters must pass this suite.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	uiID := "contract-test-modal-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			UIID:      uiID,
			Version:   3,
			JSON:      `{"props":{"title":"my title"},"children":[]}`,
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, uiID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.UIID, loaded.UIID)
		assert.Equal(t, snap.Version, loaded.Version)
		assert.Equal(t, snap.JSON, loaded.JSON)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should round-trip")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.Snapshot{UIID: uiID, Version: 4, JSON: `{"props":{},"children":[]}`}))

		loaded, err := store.Load(ctx, uiID)
		require.NoError(t, err)
		assert.Equal(t, 4, loaded.Version)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+uiID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, &domain.Snapshot{UIID: uiID, Version: 1})
		require.NoError(t, err)

		err = store.Delete(ctx, uiID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, uiID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := uiID + "-1"
		id2 := uiID + "-2"
		_ = store.Save(ctx, &domain.Snapshot{UIID: id1, Version: 1})
		_ = store.Save(ctx, &domain.Snapshot{UIID: id2, Version: 1})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
