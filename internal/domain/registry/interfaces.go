package registry

import "context"

// Store is the key-value persistence used by the registry. Get returns
// repository.ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Listener receives registry notifications. Listeners must not block.
type Listener func(Notification)
