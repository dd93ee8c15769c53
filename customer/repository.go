package customer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound no document for the customer
var ErrNotFound = errors.New("customer profile not found")

// MutateFunc changes a profile in place; an error aborts the update
type MutateFunc func(p *Profile) error

// Repository persists profiles.
// Update must be atomic per customer: concurrent updates never lose writes.
type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, fn MutateFunc) (*Profile, error)
}

// MemoryRepository process-local repository
type MemoryRepository struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	now      func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[string]*Profile),
		now:      time.Now,
	}
}

// Get returns a copy of the stored profile
func (r *MemoryRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.clone(), nil
}

// Update applies fn under the repository lock, creating the profile if absent
func (r *MemoryRepository) Update(ctx context.Context, userID string, fn MutateFunc) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if ok {
		p = p.clone()
	} else {
		p = newProfile(userID)
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = r.now().UTC()

	r.profiles[userID] = p
	return p.clone(), nil
}
