package model

import "context"

// Keys under which the session is persisted.
const (
	KeyToken = "authToken"
	KeyUser  = "user"
)

// Store is a durable key-value store that survives process restarts.
//
// Get returns ErrNotFound for keys that were never written or were deleted.
// Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
