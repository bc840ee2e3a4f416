package repository

import (
	"context"
	"errors"
)

// Keys of the cached credential.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store is the durable local key/value store holding the cached credential.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}
