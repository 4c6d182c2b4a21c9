package errcode

import (
	"fmt"
	"sort"
	"sync"
)

// Registry guards against two packages claiming the same code
type Registry struct {
	mu     sync.RWMutex
	codes  map[int]string // code -> "module:msgKey"
	locked bool
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register records err in the global registry and returns it, for use in var blocks
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register records err's code.
// Registering the same module:msgKey twice is a no-op; a different key for
// a taken code panics, as does registering after Lock.
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		panic(fmt.Sprintf("errcode: registry is locked, cannot register %d", err.Code()))
	}

	key := err.Module() + ":" + err.MsgKey()
	if existing, ok := r.codes[err.Code()]; ok && existing != key {
		panic(fmt.Sprintf("errcode: code %d already registered as %s, cannot register as %s",
			err.Code(), existing, key))
	}
	r.codes[err.Code()] = key
	return err
}

// Lookup returns the "module:msgKey" registered for code
func (r *Registry) Lookup(code int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.codes[code]
	return key, ok
}

// Codes returns the registered codes in ascending order
func (r *Registry) Codes() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]int, 0, len(r.codes))
	for code := range r.codes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Lock rejects further registrations, call once startup is done
func (r *Registry) Lock() {
	r.mu.Lock()
	r.locked = true
	r.mu.Unlock()
}

// Unlock allows registrations again
func (r *Registry) Unlock() {
	r.mu.Lock()
	r.locked = false
	r.mu.Unlock()
}

// IsLocked reports whether registrations are rejected
func (r *Registry) IsLocked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

// Global returns the process-wide registry
func Global() *Registry {
	return globalRegistry
}
