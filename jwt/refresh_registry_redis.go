package jwt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// The scripts build subject and jti keys from ARGV prefixes, so the registry
// needs a standalone Redis (or a cluster with every key in one slot).

// KEYS[1] jti hash; KEYS[2] subject set; ARGV: subject, exp, ttl ms, jti
var registerRefresh = redis.NewScript(`
redis.call('HSET', KEYS[1], 'sub', ARGV[1], 'exp', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
if ARGV[1] ~= '' then
  redis.call('SADD', KEYS[2], ARGV[4])
  if redis.call('PTTL', KEYS[2]) < tonumber(ARGV[3]) then
    redis.call('PEXPIRE', KEYS[2], ARGV[3])
  end
end
return 1
`)

// KEYS[1] jti hash; ARGV: subject key prefix, jti
var invalidateRefresh = redis.NewScript(`
local sub = redis.call('HGET', KEYS[1], 'sub')
if not sub then
  return 0
end
redis.call('DEL', KEYS[1])
if sub ~= '' then
  redis.call('SREM', ARGV[1] .. sub, ARGV[2])
end
return 1
`)

// KEYS[1] subject set; ARGV: jti key prefix. Returns a flat jti, exp list.
var invalidateSubject = redis.NewScript(`
local out = {}
for _, jti in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  local k = ARGV[1] .. jti
  local exp = redis.call('HGET', k, 'exp')
  if exp then
    redis.call('DEL', k)
    table.insert(out, jti)
    table.insert(out, exp)
  end
end
redis.call('DEL', KEYS[1])
return out
`)

// KEYS[1] subject set; ARGV: jti key prefix. Drops members whose hash expired.
var pruneSubject = redis.NewScript(`
local n = 0
for _, jti in ipairs(redis.call('SMEMBERS', KEYS[1])) do
  if redis.call('EXISTS', ARGV[1] .. jti) == 0 then
    redis.call('SREM', KEYS[1], jti)
    n = n + 1
  end
end
return n
`)

// RedisRefreshRegistry registry shared across instances.
//
// Keys: <prefix>jti:<jti> hash {sub, exp} with a TTL, <prefix>sub:<subject> set of jtis
type RedisRefreshRegistry struct {
	client redis.UniversalClient
	prefix string
	clock  clockwork.Clock
}

// NewRedisRefreshRegistry the client is owned by the caller
func NewRedisRefreshRegistry(client redis.UniversalClient, prefix string, clock clockwork.Clock) *RedisRefreshRegistry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisRefreshRegistry{client: client, prefix: prefix, clock: clock}
}

func (r *RedisRefreshRegistry) Register(ctx context.Context, jti, subject string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}
	err := registerRefresh.Run(ctx, r.client,
		[]string{r.jtiKey(jti), r.subjectKey(subject)},
		subject, expiresAt.Unix(), ttl.Milliseconds(), jti).Err()
	if err != nil {
		return ErrStore.Wrapf(err, "register refresh token")
	}
	return nil
}

func (r *RedisRefreshRegistry) Invalidate(ctx context.Context, jti string) (bool, error) {
	n, err := invalidateRefresh.Run(ctx, r.client, []string{r.jtiKey(jti)},
		r.prefix+"sub:", jti).Int()
	if err != nil {
		return false, ErrStore.Wrapf(err, "invalidate refresh token")
	}
	return n == 1, nil
}

func (r *RedisRefreshRegistry) InvalidateAllForSubject(ctx context.Context, subject string) ([]RefreshEntry, error) {
	flat, err := invalidateSubject.Run(ctx, r.client, []string{r.subjectKey(subject)},
		r.prefix+"jti:").StringSlice()
	if err != nil {
		return nil, ErrStore.Wrapf(err, "invalidate subject")
	}
	if len(flat)%2 != 0 {
		return nil, ErrStore.WithMsgf("invalidate subject: odd reply length %d", len(flat))
	}

	out := make([]RefreshEntry, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		exp, err := strconv.ParseInt(flat[i+1], 10, 64)
		if err != nil {
			return nil, ErrStore.Wrap(fmt.Errorf("parse exp of %s: %w", flat[i], err))
		}
		out = append(out, RefreshEntry{JTI: flat[i], Subject: subject, ExpiresAt: time.Unix(exp, 0)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JTI < out[j].JTI })
	return out, nil
}

// PurgeExpired entries expire by TTL; this removes the dangling jtis left in subject sets
func (r *RedisRefreshRegistry) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	total := 0
	err := scanKeys(ctx, r.client, r.prefix+"sub:*", func(keys []string) error {
		for _, k := range keys {
			n, err := pruneSubject.Run(ctx, r.client, []string{k}, r.prefix+"jti:").Int()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return total, ErrStore.Wrapf(err, "purge refresh registry")
	}
	return total, nil
}

func (r *RedisRefreshRegistry) Len(ctx context.Context) (int, error) {
	n := 0
	err := scanKeys(ctx, r.client, r.prefix+"jti:*", func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		return 0, ErrStore.Wrapf(err, "refresh registry scan")
	}
	return n, nil
}

func (r *RedisRefreshRegistry) Clear(ctx context.Context) error {
	err := scanKeys(ctx, r.client, r.prefix+"*", func(keys []string) error {
		return r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return ErrStore.Wrapf(err, "refresh registry clear")
	}
	return nil
}

func (r *RedisRefreshRegistry) jtiKey(jti string) string {
	return r.prefix + "jti:" + jti
}

func (r *RedisRefreshRegistry) subjectKey(subject string) string {
	return r.prefix + "sub:" + subject
}
