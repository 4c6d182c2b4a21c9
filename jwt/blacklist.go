package jwt

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Blacklist revoked token ids, each kept until its retention time.
//
// Besides single tokens it holds subject watermarks: every token of a
// subject issued at or before the watermark counts as revoked.
type Blacklist interface {
	// Add revokes jti until expiresAt; entries already past expiresAt are not stored
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Has(ctx context.Context, jti string) (bool, error)

	// RevokeSubject records a watermark at "at", kept until "until". A later watermark wins.
	RevokeSubject(ctx context.Context, subject string, at, until time.Time) error
	SubjectRevokedAt(ctx context.Context, subject string) (time.Time, bool, error)

	// PurgeExpired drops entries whose retention ended before now and returns how many went
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type subjectMark struct {
	at    time.Time
	until time.Time
}

// MemoryBlacklist in-process blacklist, for single instance deployments and tests
type MemoryBlacklist struct {
	entries  sync.Map // jti -> time.Time
	subjects sync.Map // subject -> subjectMark
	markMu   sync.Mutex
	clock    clockwork.Clock
}

// NewMemoryBlacklist clock decides when entries stop counting; nil means the real clock
func NewMemoryBlacklist(clock clockwork.Clock) *MemoryBlacklist {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryBlacklist{clock: clock}
}

func (b *MemoryBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	if !expiresAt.After(b.clock.Now()) {
		return nil
	}
	b.entries.Store(jti, expiresAt)
	return nil
}

func (b *MemoryBlacklist) Has(ctx context.Context, jti string) (bool, error) {
	v, ok := b.entries.Load(jti)
	if !ok {
		return false, nil
	}
	if !v.(time.Time).After(b.clock.Now()) {
		b.entries.Delete(jti)
		return false, nil
	}
	return true, nil
}

func (b *MemoryBlacklist) RevokeSubject(ctx context.Context, subject string, at, until time.Time) error {
	b.markMu.Lock()
	defer b.markMu.Unlock()

	mark := subjectMark{at: at, until: until}
	if v, ok := b.subjects.Load(subject); ok {
		cur := v.(subjectMark)
		if cur.at.After(mark.at) {
			mark.at = cur.at
		}
		if cur.until.After(mark.until) {
			mark.until = cur.until
		}
	}
	b.subjects.Store(subject, mark)
	return nil
}

func (b *MemoryBlacklist) SubjectRevokedAt(ctx context.Context, subject string) (time.Time, bool, error) {
	v, ok := b.subjects.Load(subject)
	if !ok {
		return time.Time{}, false, nil
	}
	mark := v.(subjectMark)
	if !mark.until.After(b.clock.Now()) {
		return time.Time{}, false, nil
	}
	return mark.at, true, nil
}

func (b *MemoryBlacklist) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	count := 0
	b.entries.Range(func(key, value interface{}) bool {
		if !value.(time.Time).After(now) {
			b.entries.Delete(key)
			count++
		}
		return true
	})

	b.markMu.Lock()
	b.subjects.Range(func(key, value interface{}) bool {
		if !value.(subjectMark).until.After(now) {
			b.subjects.Delete(key)
		}
		return true
	})
	b.markMu.Unlock()

	return count, nil
}

// Len counts token entries, watermarks excluded
func (b *MemoryBlacklist) Len(ctx context.Context) (int, error) {
	n := 0
	b.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n, nil
}

func (b *MemoryBlacklist) Clear(ctx context.Context) error {
	b.entries.Range(func(key, _ interface{}) bool {
		b.entries.Delete(key)
		return true
	})
	b.markMu.Lock()
	b.subjects.Range(func(key, _ interface{}) bool {
		b.subjects.Delete(key)
		return true
	})
	b.markMu.Unlock()
	return nil
}
