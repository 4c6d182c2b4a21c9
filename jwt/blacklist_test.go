package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blacklistFixture struct {
	list    Blacklist
	clock   *clockwork.FakeClock
	advance func(time.Duration)
}

func blacklistFixtures(t *testing.T) map[string]func(t *testing.T) blacklistFixture {
	return map[string]func(t *testing.T) blacklistFixture{
		"memory": func(t *testing.T) blacklistFixture {
			fc := newFakeClock()
			return blacklistFixture{list: NewMemoryBlacklist(fc), clock: fc, advance: fc.Advance}
		},
		"redis": func(t *testing.T) blacklistFixture {
			mr, client := newTestRedis(t)
			fc := newFakeClock()
			return blacklistFixture{
				list:  NewRedisBlacklist(client, "test:blacklist:", fc),
				clock: fc,
				advance: func(d time.Duration) {
					fc.Advance(d)
					mr.FastForward(d)
				},
			}
		},
	}
}

func TestBlacklist_AddHas(t *testing.T) {
	ctx := context.Background()
	for name, setup := range blacklistFixtures(t) {
		t.Run(name, func(t *testing.T) {
			f := setup(t)

			require.NoError(t, f.list.Add(ctx, "j1", f.clock.Now().Add(time.Minute)))
			hit, err := f.list.Has(ctx, "j1")
			require.NoError(t, err)
			assert.True(t, hit)

			hit, err = f.list.Has(ctx, "j2")
			require.NoError(t, err)
			assert.False(t, hit)

			f.advance(time.Minute + time.Second)
			hit, err = f.list.Has(ctx, "j1")
			require.NoError(t, err)
			assert.False(t, hit, "retention over")
		})
	}
}

func TestBlacklist_SkipsPastEntries(t *testing.T) {
	ctx := context.Background()
	for name, setup := range blacklistFixtures(t) {
		t.Run(name, func(t *testing.T) {
			f := setup(t)

			require.NoError(t, f.list.Add(ctx, "old", f.clock.Now().Add(-time.Second)))
			n, err := f.list.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestBlacklist_SubjectWatermark(t *testing.T) {
	ctx := context.Background()
	for name, setup := range blacklistFixtures(t) {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			now := f.clock.Now()

			_, ok, err := f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, f.list.RevokeSubject(ctx, "u1", now, now.Add(time.Hour)))
			at, ok, err := f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, now.UnixMicro(), at.UnixMicro())

			// an older mark never lowers the watermark
			require.NoError(t, f.list.RevokeSubject(ctx, "u1", now.Add(-time.Minute), now.Add(time.Hour)))
			at, _, err = f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, now.UnixMicro(), at.UnixMicro())

			later := now.Add(10 * time.Second)
			require.NoError(t, f.list.RevokeSubject(ctx, "u1", later, now.Add(time.Hour)))
			at, _, err = f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, later.UnixMicro(), at.UnixMicro())

			// sub-second marks keep their precision
			within := later.Add(250*time.Millisecond + 7*time.Microsecond)
			require.NoError(t, f.list.RevokeSubject(ctx, "u1", within, now.Add(time.Hour)))
			at, _, err = f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, within.UnixMicro(), at.UnixMicro())

			f.advance(time.Hour + time.Second)
			_, ok, err = f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestBlacklist_LenAndClear(t *testing.T) {
	ctx := context.Background()
	for name, setup := range blacklistFixtures(t) {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			until := f.clock.Now().Add(time.Hour)

			for _, jti := range []string{"a", "b", "c"} {
				require.NoError(t, f.list.Add(ctx, jti, until))
			}
			require.NoError(t, f.list.RevokeSubject(ctx, "u1", f.clock.Now(), until))

			n, err := f.list.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, f.list.Clear(ctx))
			n, err = f.list.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			_, ok, err := f.list.SubjectRevokedAt(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryBlacklist_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	fc := newFakeClock()
	b := NewMemoryBlacklist(fc)

	require.NoError(t, b.Add(ctx, "short", fc.Now().Add(time.Minute)))
	require.NoError(t, b.Add(ctx, "long", fc.Now().Add(time.Hour)))
	require.NoError(t, b.RevokeSubject(ctx, "u1", fc.Now(), fc.Now().Add(time.Minute)))

	n, err := b.PurgeExpired(ctx, fc.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, left)
	hit, err := b.Has(ctx, "long")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestRedisBlacklist_StoreFailure(t *testing.T) {
	mr, client := newTestRedis(t)
	b := NewRedisBlacklist(client, "test:", newFakeClock())
	mr.Close()

	_, err := b.Has(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrStore)
}
