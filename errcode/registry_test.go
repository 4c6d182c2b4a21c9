package errcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	err := New(90, 1, "test", "test.a", "a")
	assert.Same(t, err, r.Register(err))

	key, ok := r.Lookup(900001)
	assert.True(t, ok)
	assert.Equal(t, "test:test.a", key)

	// idempotent for the same key
	assert.NotPanics(t, func() { r.Register(New(90, 1, "test", "test.a", "again")) })
	assert.Equal(t, []int{900001}, r.Codes())
}

func TestRegistry_Conflict(t *testing.T) {
	r := NewRegistry()
	r.Register(New(90, 2, "test", "test.b", "b"))

	assert.PanicsWithValue(t,
		"errcode: code 900002 already registered as test:test.b, cannot register as other:other.b",
		func() { r.Register(New(90, 2, "other", "other.b", "b")) })
}

func TestRegistry_Lock(t *testing.T) {
	r := NewRegistry()
	r.Lock()
	assert.True(t, r.IsLocked())
	assert.Panics(t, func() { r.Register(New(90, 3, "test", "c", "c")) })

	r.Unlock()
	assert.False(t, r.IsLocked())
	assert.NotPanics(t, func() { r.Register(New(90, 3, "test", "c", "c")) })
}

func TestRegistry_CodesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(New(90, 9, "t", "9", "9"))
	r.Register(New(90, 4, "t", "4", "4"))
	r.Register(New(80, 1, "t", "1", "1"))

	assert.Equal(t, []int{800001, 900004, 900009}, r.Codes())
}

func TestGlobal(t *testing.T) {
	assert.Same(t, globalRegistry, Global())
}
