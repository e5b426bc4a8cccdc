//go:build integration

package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setforge/internal/emitter"
	"setforge/pkg/testutil/containers"
)

func TestRedisStoreIntegration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	s := NewRedisStore(rc.Client)

	res := &emitter.Result{Status: "failed", StatusCode: 400, Body: `{"err":"x"}`}

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		require.NoError(t, s.Put(ctx, "inv-1", res, time.Minute))

		got, ok, err := s.Get(ctx, "inv-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, res, got)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "inv-unknown")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "inv-ttl", res, time.Second))
		time.Sleep(1500 * time.Millisecond)
		_, ok, err := s.Get(ctx, "inv-ttl")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
