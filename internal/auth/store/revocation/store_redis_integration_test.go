//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"splitledger/pkg/testutil/containers"
)

func TestRedisRevocationStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	t.Run("unflagged session reads as not revoked", func(t *testing.T) {
		revoked, err := store.IsRevoked(ctx, uuid.NewString())
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revoked session is flagged until the TTL lapses", func(t *testing.T) {
		sessionID := uuid.NewString()
		require.NoError(t, store.Revoke(ctx, sessionID, time.Second))

		revoked, err := store.IsRevoked(ctx, sessionID)
		require.NoError(t, err)
		require.True(t, revoked)

		require.Eventually(t, func() bool {
			revoked, err := store.IsRevoked(ctx, sessionID)
			return err == nil && !revoked
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("zero ttl is rejected", func(t *testing.T) {
		require.Error(t, store.Revoke(ctx, uuid.NewString(), 0))
	})

	t.Run("batch revoke flags every session", func(t *testing.T) {
		ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
		require.NoError(t, store.RevokeAll(ctx, ids, time.Minute))

		for _, sid := range ids {
			revoked, err := store.IsRevoked(ctx, sid)
			require.NoError(t, err)
			require.True(t, revoked, sid)
		}
	})
}
