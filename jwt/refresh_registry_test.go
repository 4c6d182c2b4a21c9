package jwt

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func registryFixtures() map[string]func(t *testing.T) RefreshRegistry {
	return map[string]func(t *testing.T) RefreshRegistry{
		"memory": func(t *testing.T) RefreshRegistry {
			return NewMemoryRefreshRegistry()
		},
		"redis": func(t *testing.T) RefreshRegistry {
			_, client := newTestRedis(t)
			return NewRedisRefreshRegistry(client, "test:refresh:", newFakeClock())
		},
	}
}

func TestRefreshRegistry_SingleUse(t *testing.T) {
	ctx := context.Background()
	for name, setup := range registryFixtures() {
		t.Run(name, func(t *testing.T) {
			r := setup(t)
			require.NoError(t, r.Register(ctx, "j1", "u1", epoch.Add(time.Hour)))

			removed, err := r.Invalidate(ctx, "j1")
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = r.Invalidate(ctx, "j1")
			require.NoError(t, err)
			assert.False(t, removed)

			removed, err = r.Invalidate(ctx, "unknown")
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

func TestRefreshRegistry_ConcurrentInvalidate(t *testing.T) {
	ctx := context.Background()
	for name, setup := range registryFixtures() {
		t.Run(name, func(t *testing.T) {
			r := setup(t)
			require.NoError(t, r.Register(ctx, "j1", "u1", epoch.Add(time.Hour)))

			var winners atomic.Int32
			var g errgroup.Group
			for i := 0; i < 20; i++ {
				g.Go(func() error {
					removed, err := r.Invalidate(ctx, "j1")
					if removed {
						winners.Add(1)
					}
					return err
				})
			}
			require.NoError(t, g.Wait())
			assert.Equal(t, int32(1), winners.Load())
		})
	}
}

func TestRefreshRegistry_InvalidateAllForSubject(t *testing.T) {
	ctx := context.Background()
	for name, setup := range registryFixtures() {
		t.Run(name, func(t *testing.T) {
			r := setup(t)
			exp := epoch.Add(time.Hour)
			require.NoError(t, r.Register(ctx, "b", "u1", exp))
			require.NoError(t, r.Register(ctx, "a", "u1", exp))
			require.NoError(t, r.Register(ctx, "c", "u2", exp))

			entries, err := r.InvalidateAllForSubject(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "a", entries[0].JTI)
			assert.Equal(t, "b", entries[1].JTI)
			assert.Equal(t, "u1", entries[0].Subject)
			assert.Equal(t, exp.Unix(), entries[0].ExpiresAt.Unix())

			n, err := r.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			removed, err := r.Invalidate(ctx, "a")
			require.NoError(t, err)
			assert.False(t, removed)

			entries, err = r.InvalidateAllForSubject(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRefreshRegistry_EmptySubject(t *testing.T) {
	ctx := context.Background()
	for name, setup := range registryFixtures() {
		t.Run(name, func(t *testing.T) {
			r := setup(t)
			require.NoError(t, r.Register(ctx, "anon", "", epoch.Add(time.Hour)))

			removed, err := r.Invalidate(ctx, "anon")
			require.NoError(t, err)
			assert.True(t, removed)
		})
	}
}

func TestRefreshRegistry_Clear(t *testing.T) {
	ctx := context.Background()
	for name, setup := range registryFixtures() {
		t.Run(name, func(t *testing.T) {
			r := setup(t)
			for i := 0; i < 5; i++ {
				require.NoError(t, r.Register(ctx, fmt.Sprintf("j%d", i), "u1", epoch.Add(time.Hour)))
			}
			n, err := r.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 5, n)

			require.NoError(t, r.Clear(ctx))
			n, err = r.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestMemoryRefreshRegistry_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRefreshRegistry()
	require.NoError(t, r.Register(ctx, "short", "u1", epoch.Add(time.Minute)))
	require.NoError(t, r.Register(ctx, "long", "u1", epoch.Add(time.Hour)))

	n, err := r.PurgeExpired(ctx, epoch.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := r.InvalidateAllForSubject(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "long", entries[0].JTI)
}

func TestRedisRefreshRegistry_TTLAndPurge(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	fc := newFakeClock()
	r := NewRedisRefreshRegistry(client, "test:refresh:", fc)

	require.NoError(t, r.Register(ctx, "short", "u1", fc.Now().Add(time.Minute)))
	require.NoError(t, r.Register(ctx, "long", "u1", fc.Now().Add(time.Hour)))
	assert.True(t, mr.Exists("test:refresh:jti:short"))

	mr.FastForward(2 * time.Minute)
	fc.Advance(2 * time.Minute)

	n, err := r.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the hash expired on its own, the subject set still names it
	purged, err := r.PurgeExpired(ctx, fc.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	members, err := mr.Members("test:refresh:sub:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, members)

	// past entries are not stored
	require.NoError(t, r.Register(ctx, "stale", "u1", fc.Now().Add(-time.Second)))
	assert.False(t, mr.Exists("test:refresh:jti:stale"))
}
