package repository

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns a Store that lives only as long as the process.
func NewMemory() Store {
	return &memoryRepo{values: map[string]string{}}
}

func (r *memoryRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) Set(_ context.Context, key string, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

func (r *memoryRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}
