package errcode

import (
	"fmt"
	"sync"
)

// Registry 错误码注册表（防止错误码冲突）
type Registry struct {
	mu    sync.RWMutex
	codes map[int]string // code -> module:msgKey
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register records err in the global registry, panicking on conflict
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register records err; re-registering the same code and key is allowed
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s:%s", err.Module(), err.MsgKey())
	if existing, exists := r.codes[err.Code()]; exists && existing != key {
		panic(fmt.Sprintf("error code conflict: code %d is already registered as %s, cannot register as %s",
			err.Code(), existing, key))
	}

	r.codes[err.Code()] = key
	return err
}

// GetAll returns a copy of every registered code
func (r *Registry) GetAll() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make(map[int]string, len(r.codes))
	for k, v := range r.codes {
		codes[k] = v
	}
	return codes
}

// GetAllRegisteredCodes returns the global registry contents
func GetAllRegisteredCodes() map[int]string {
	return globalRegistry.GetAll()
}
