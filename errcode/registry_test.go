package errcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRegistry_Register
func TestRegistry_Register(t *testing.T) {
	t.Run("idempotent for same key", func(t *testing.T) {
		r := NewRegistry()
		e := New(50, 1, "test", "Same", "same")
		r.Register(e)
		r.Register(e)
		assert.Len(t, r.GetAll(), 1)
	})

	t.Run("conflicting key panics", func(t *testing.T) {
		r := NewRegistry()
		r.Register(New(50, 1, "test", "First", "first"))
		assert.Panics(t, func() {
			r.Register(New(50, 1, "test", "Second", "second"))
		})
	})
}

// TestGlobalRegistry_HasMarketplaceCodes
func TestGlobalRegistry_HasMarketplaceCodes(t *testing.T) {
	codes := GetAllRegisteredCodes()
	assert.Equal(t, "gateway:ServiceUnavailable", codes[ErrServiceUnavailable.Code()])
	assert.Equal(t, "customer:InvalidRequest", codes[ErrInvalidRequest.Code()])
}
