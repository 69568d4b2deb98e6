package storage

import (
	"context"
	"errors"
)

// ErrUnavailable wraps backend failures (connection refused, I/O errors).
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a keyed string store. A missing key is not an error: Get
// reports it through the boolean.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every listed key. Deleting absent keys succeeds.
	Delete(ctx context.Context, keys ...string) error
}
