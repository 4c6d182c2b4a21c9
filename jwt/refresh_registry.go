package jwt

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RefreshRegistry live refresh tokens by jti.
//
// Invalidate is the single-use gate of a refresh: of several callers
// removing the same jti exactly one gets true.
type RefreshRegistry interface {
	Register(ctx context.Context, jti, subject string, expiresAt time.Time) error
	// Invalidate removes jti and reports whether this call removed it
	Invalidate(ctx context.Context, jti string) (bool, error)
	// InvalidateAllForSubject removes and returns every entry of subject
	InvalidateAllForSubject(ctx context.Context, subject string) ([]RefreshEntry, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// MemoryRefreshRegistry in-process registry with a per-subject index
type MemoryRefreshRegistry struct {
	mu        sync.Mutex
	entries   map[string]RefreshEntry
	bySubject map[string]map[string]struct{}
}

func NewMemoryRefreshRegistry() *MemoryRefreshRegistry {
	return &MemoryRefreshRegistry{
		entries:   make(map[string]RefreshEntry),
		bySubject: make(map[string]map[string]struct{}),
	}
}

func (r *MemoryRefreshRegistry) Register(ctx context.Context, jti, subject string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[jti]; ok {
		r.unindex(old)
	}
	r.entries[jti] = RefreshEntry{JTI: jti, Subject: subject, ExpiresAt: expiresAt}
	if subject != "" {
		set, ok := r.bySubject[subject]
		if !ok {
			set = make(map[string]struct{})
			r.bySubject[subject] = set
		}
		set[jti] = struct{}{}
	}
	return nil
}

func (r *MemoryRefreshRegistry) Invalidate(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[jti]
	if !ok {
		return false, nil
	}
	delete(r.entries, jti)
	r.unindex(e)
	return true, nil
}

func (r *MemoryRefreshRegistry) InvalidateAllForSubject(ctx context.Context, subject string) ([]RefreshEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.bySubject[subject]
	out := make([]RefreshEntry, 0, len(set))
	for jti := range set {
		if e, ok := r.entries[jti]; ok {
			out = append(out, e)
			delete(r.entries, jti)
		}
	}
	delete(r.bySubject, subject)

	sort.Slice(out, func(i, j int) bool { return out[i].JTI < out[j].JTI })
	return out, nil
}

func (r *MemoryRefreshRegistry) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for jti, e := range r.entries {
		if !e.ExpiresAt.After(now) {
			delete(r.entries, jti)
			r.unindex(e)
			count++
		}
	}
	return count, nil
}

func (r *MemoryRefreshRegistry) Len(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}

func (r *MemoryRefreshRegistry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]RefreshEntry)
	r.bySubject = make(map[string]map[string]struct{})
	return nil
}

// unindex caller holds mu
func (r *MemoryRefreshRegistry) unindex(e RefreshEntry) {
	set, ok := r.bySubject[e.Subject]
	if !ok {
		return
	}
	delete(set, e.JTI)
	if len(set) == 0 {
		delete(r.bySubject, e.Subject)
	}
}
