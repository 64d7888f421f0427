package driven

import (
	"context"
	"errors"
)

// Sentinel errors returned by KVStore implementations and their callers.
var (
	// ErrKeyNotFound indicates the key has never been written.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStorageRead wraps failures reading from the backing store.
	ErrStorageRead = errors.New("storage read failed")

	// ErrStorageWrite wraps failures writing to the backing store.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrStorageParse indicates a stored value that could not be decoded.
	ErrStorageParse = errors.New("stored value is malformed")
)

// KVStore defines the driven port for durable local key-value storage.
// Both operations are fallible; callers decide whether a failure matters.
// Get returns ErrKeyNotFound for absent keys and wraps other failures with
// ErrStorageRead. Set wraps failures with ErrStorageWrite.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
