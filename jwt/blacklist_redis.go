package jwt

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// raiseSubjectMark keeps the larger watermark and the longer ttl.
// KEYS[1] mark key; ARGV[1] unix microseconds; ARGV[2] ttl in ms
var raiseSubjectMark = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if (not cur) or tonumber(cur) < tonumber(ARGV[1]) then
  local pttl = redis.call('PTTL', KEYS[1])
  redis.call('SET', KEYS[1], ARGV[1])
  if pttl > tonumber(ARGV[2]) then
    redis.call('PEXPIRE', KEYS[1], pttl)
  else
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
  return 1
end
if redis.call('PTTL', KEYS[1]) < tonumber(ARGV[2]) then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

const scanBatch = 200

// RedisBlacklist blacklist shared across instances. Retention is enforced
// with key TTLs, so PurgeExpired has nothing to do.
//
// Keys: <prefix>jti:<jti> and <prefix>sub:<subject>
type RedisBlacklist struct {
	client redis.UniversalClient
	prefix string
	clock  clockwork.Clock
}

// NewRedisBlacklist the client is owned by the caller and never closed here
func NewRedisBlacklist(client redis.UniversalClient, prefix string, clock clockwork.Clock) *RedisBlacklist {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisBlacklist{client: client, prefix: prefix, clock: clock}
}

func (b *RedisBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return ErrStore.Wrapf(err, "blacklist add")
	}
	return nil
}

func (b *RedisBlacklist) Has(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, ErrStore.Wrapf(err, "blacklist lookup")
	}
	return n > 0, nil
}

func (b *RedisBlacklist) RevokeSubject(ctx context.Context, subject string, at, until time.Time) error {
	ttl := until.Sub(b.clock.Now())
	if ttl <= 0 {
		return nil
	}
	err := raiseSubjectMark.Run(ctx, b.client, []string{b.subjectKey(subject)},
		at.UnixMicro(), ttl.Milliseconds()).Err()
	if err != nil {
		return ErrStore.Wrapf(err, "revoke subject")
	}
	return nil
}

func (b *RedisBlacklist) SubjectRevokedAt(ctx context.Context, subject string) (time.Time, bool, error) {
	v, err := b.client.Get(ctx, b.subjectKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, ErrStore.Wrapf(err, "subject lookup")
	}
	us, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, ErrStore.Wrapf(err, "parse subject mark %q", v)
	}
	return time.UnixMicro(us), true, nil
}

func (b *RedisBlacklist) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Len counts token entries with SCAN; O(n), meant for tests and diagnostics
func (b *RedisBlacklist) Len(ctx context.Context) (int, error) {
	n := 0
	err := scanKeys(ctx, b.client, b.prefix+"jti:*", func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		return 0, ErrStore.Wrapf(err, "blacklist scan")
	}
	return n, nil
}

func (b *RedisBlacklist) Clear(ctx context.Context) error {
	err := scanKeys(ctx, b.client, b.prefix+"*", func(keys []string) error {
		return b.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return ErrStore.Wrapf(err, "blacklist clear")
	}
	return nil
}

func (b *RedisBlacklist) jtiKey(jti string) string {
	return b.prefix + "jti:" + jti
}

func (b *RedisBlacklist) subjectKey(subject string) string {
	return b.prefix + "sub:" + subject
}

// scanKeys walks every key matching pattern, handing non-empty batches to fn
func scanKeys(ctx context.Context, client redis.UniversalClient, pattern string, fn func([]string) error) error {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
